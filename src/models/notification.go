package models

import (
	"ers/src/types"
)

// Notification is the audit row written next to every sink delivery.
type Notification struct {
	ID      uint                   `gorm:"primarykey" json:"id"`
	UserID  uint                   `gorm:"index" json:"user_id,omitempty"`
	Kind    types.NotificationKind `json:"kind,omitempty"`
	Title   string                 `json:"title,omitempty"`
	Payload *types.JSONB           `gorm:"type:jsonb" json:"payload,omitempty"`

	types.Timestamps
}

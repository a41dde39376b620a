package models

import (
	"ers/src/types"
	"time"
)

type WaitlistEntry struct {
	ID             uint                 `gorm:"primarykey" json:"id"`
	EventID        uint                 `gorm:"index" json:"event_id,omitempty"`
	UserID         uint                 `json:"user_id,omitempty"`
	RegistrationID *uint                `json:"registration_id,omitempty"`
	Status         types.WaitlistStatus `gorm:"default:'queued'" json:"status,omitempty"`
	EnqueuedAt     time.Time            `json:"enqueued_at,omitempty"`
	NotifiedAt     *time.Time           `json:"notified_at,omitempty"`
	ExpiresAt      *time.Time           `json:"expires_at,omitempty"`

	Event        *Event        `gorm:"foreignKey:event_id" json:"event,omitempty"`
	User         *User         `gorm:"foreignKey:user_id" json:"-"`
	Registration *Registration `gorm:"foreignKey:registration_id" json:"registration,omitempty"`

	types.Timestamps
}

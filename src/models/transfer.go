package models

import (
	"ers/src/types"
)

type TransferRequest struct {
	ID             uint                 `gorm:"primarykey" json:"id"`
	RegistrationID uint                 `gorm:"index" json:"registration_id,omitempty"`
	FromUserID     uint                 `json:"from_user,omitempty"`
	ToUserID       uint                 `json:"to_user,omitempty"`
	Status         types.TransferStatus `gorm:"default:'sent'" json:"status,omitempty"`
	Message        *string              `json:"message,omitempty"`

	Registration Registration `json:"registration,omitempty"`
	FromUser     User         `gorm:"foreignKey:from_user_id" json:"-"`
	ToUser       User         `gorm:"foreignKey:to_user_id" json:"-"`

	types.Timestamps
}

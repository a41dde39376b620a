package models

import (
	"ers/src/types"
)

type User struct {
	ID         uint    `gorm:"primarykey" json:"id"`
	Name       string  `json:"name,omitempty"`
	Email      string  `json:"email,omitempty"`
	Document   string  `json:"document,omitempty"`
	Phone      string  `json:"phone,omitempty"`
	Role       string  `json:"role,omitempty"`
	Reputation float64 `gorm:"default:5.0" json:"reputation,omitempty"`

	Registrations []Registration `gorm:"foreignKey:user_id" json:"registrations,omitempty"`
	Events        []Event        `gorm:"foreignKey:organizer_id" json:"events,omitempty"`

	types.Timestamps
}

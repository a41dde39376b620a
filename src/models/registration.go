package models

import (
	"ers/src/types"
	"time"
)

// Registration snapshots the registrant's identity at submission time. The
// holder fields stay frozen even when the user later edits their profile;
// transfer acceptance is the only code path rewriting them.
type Registration struct {
	ID      uint `gorm:"primarykey" json:"id"`
	EventID uint `gorm:"index:idx_registrations_event_user" json:"event_id,omitempty"`
	UserID  uint `gorm:"index:idx_registrations_event_user" json:"user_id,omitempty"`

	HolderName     string `json:"holder_name,omitempty"`
	HolderDocument string `json:"holder_document,omitempty"`
	HolderPhone    string `json:"holder_phone,omitempty"`
	HolderEmail    string `json:"holder_email,omitempty"`

	Status        types.RegistrationStatus `gorm:"default:'pending'" json:"status,omitempty"`
	PaymentStatus types.PaymentStatus      `gorm:"default:'pending'" json:"payment_status,omitempty"`
	OriginalPrice float64                  `json:"original_price"`
	Discount      float64                  `json:"discount"`
	FinalPrice    float64                  `json:"final_price"`
	PaymentMethod string                   `json:"payment_method,omitempty"`
	ExpiresAt     *time.Time               `json:"expires_at,omitempty"`

	CheckedIn   bool       `gorm:"default:false" json:"checked_in"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`

	TicketCode string `gorm:"uniqueIndex" json:"ticket_code,omitempty"`

	Event *Event `gorm:"foreignKey:event_id" json:"event,omitempty"`
	User  *User  `gorm:"foreignKey:user_id" json:"user,omitempty"`

	types.Timestamps
}

func (r *Registration) Active() bool {
	switch r.Status {
	case types.REGISTRATION_PENDING, types.REGISTRATION_CONFIRMED, types.REGISTRATION_WAITLISTED:
		return true
	}
	return false
}

func (r *Registration) Expired(now time.Time) bool {
	return r.Status == types.REGISTRATION_PENDING &&
		r.PaymentStatus == types.PAYMENT_PENDING &&
		r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}

package models

import (
	"ers/src/types"
	"time"
)

type Event struct {
	ID                 uint              `gorm:"primarykey" json:"id"`
	Title              string            `json:"title,omitempty"`
	Slug               string            `json:"slug,omitempty"`
	About              *string           `json:"about,omitempty"`
	Location           string            `json:"location,omitempty"`
	StartsAt           time.Time         `json:"starts_at,omitempty"`
	Status             types.EventStatus `gorm:"default:'draft'" json:"status,omitempty"`
	OrganizerID        uint              `json:"organizer,omitempty"`
	Capacity           uint              `json:"capacity,omitempty"`
	SeatsTaken         uint              `gorm:"default:0" json:"seats_taken"`
	DepositPrice       float64           `json:"deposit_price"`
	TransferAllowed    bool              `gorm:"default:false" json:"transfer_allowed"`
	CancellationPolicy string            `json:"cancellation_policy,omitempty"`

	Organizer     User           `gorm:"foreignKey:organizer_id" json:"-"`
	Registrations []Registration `gorm:"foreignKey:event_id" json:"registrations,omitempty"`

	types.Timestamps
}

// Available is derived for responses only. Capacity accounting goes through
// the ledger's conditional updates, never through this value.
func (e *Event) Available() uint {
	if e.SeatsTaken >= e.Capacity {
		return 0
	}
	return e.Capacity - e.SeatsTaken
}

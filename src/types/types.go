package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type EventStatus string

const (
	EVENT_DRAFT       EventStatus = "draft"
	EVENT_PUBLISHED   EventStatus = "published"
	EVENT_IN_PROGRESS EventStatus = "in_progress"
	EVENT_FINISHED    EventStatus = "finished"
	EVENT_CANCELED    EventStatus = "canceled"
)

type RegistrationStatus string

const (
	REGISTRATION_PENDING     RegistrationStatus = "pending"
	REGISTRATION_CONFIRMED   RegistrationStatus = "confirmed"
	REGISTRATION_CANCELED    RegistrationStatus = "canceled"
	REGISTRATION_TRANSFERRED RegistrationStatus = "transferred"
	REGISTRATION_WAITLISTED  RegistrationStatus = "waitlisted"
)

type PaymentStatus string

const (
	PAYMENT_PENDING  PaymentStatus = "pending"
	PAYMENT_APPROVED PaymentStatus = "approved"
	PAYMENT_REJECTED PaymentStatus = "rejected"
	PAYMENT_REFUNDED PaymentStatus = "refunded"
)

type WaitlistStatus string

const (
	WAITLIST_QUEUED   WaitlistStatus = "queued"
	WAITLIST_NOTIFIED WaitlistStatus = "notified"
	WAITLIST_ACCEPTED WaitlistStatus = "accepted"
	WAITLIST_EXPIRED  WaitlistStatus = "expired"
)

type TransferStatus string

const (
	TRANSFER_SENT     TransferStatus = "sent"
	TRANSFER_ACCEPTED TransferStatus = "accepted"
	TRANSFER_DENIED   TransferStatus = "denied"
	TRANSFER_CANCELED TransferStatus = "canceled"
)

// NotificationKind names the state transitions fanned out to the sink.
type NotificationKind string

const (
	NOTIFY_REGISTRATION_PENDING   NotificationKind = "registration_pending"
	NOTIFY_REGISTRATION_CONFIRMED NotificationKind = "registration_confirmed"
	NOTIFY_REGISTRATION_CANCELED  NotificationKind = "registration_canceled"
	NOTIFY_REGISTRATION_EXPIRED   NotificationKind = "registration_expired"
	NOTIFY_WAITLIST_JOINED        NotificationKind = "waitlist_joined"
	NOTIFY_WAITLIST_PROMOTED      NotificationKind = "waitlist_promoted"
	NOTIFY_TRANSFER_RECEIVED      NotificationKind = "transfer_received"
	NOTIFY_TRANSFER_ACCEPTED      NotificationKind = "transfer_accepted"
	NOTIFY_TRANSFER_DENIED        NotificationKind = "transfer_denied"
	NOTIFY_CHECKIN_COMPLETED      NotificationKind = "checkin_completed"
)

type CreateEventRequestBody struct {
	Title              string  `json:"title" binding:"required"`
	About              string  `json:"about,omitempty"`
	Location           string  `json:"location,omitempty"`
	StartsAt           string  `json:"starts_at" binding:"required,bookabledate" time_format:"2006-01-02 15:04:05 -07:00"`
	Capacity           uint    `json:"capacity" binding:"required,min=1"`
	DepositPrice       float64 `json:"deposit_price"`
	TransferAllowed    bool    `json:"transfer_allowed"`
	CancellationPolicy string  `json:"cancellation_policy,omitempty"`
	Publish            bool    `json:"publish,omitempty"`
}

type RegisterRequestBody struct {
	PaymentMethod string `json:"payment_method,omitempty"`
}

type CreateTransferRequestBody struct {
	RegistrationID uint   `json:"registration_id" binding:"required"`
	ToUserID       uint   `json:"to_user" binding:"required"`
	Message        string `json:"message,omitempty"`
}

type ResolveTransferRequestBody struct {
	Decision string `json:"decision" binding:"required,oneof=accepted denied canceled"`
}

type CreateAdmissionRequestBody struct {
	Code string `json:"code" binding:"required"`
}

type LoginUserRequestBody struct {
	Email string `json:"email" binding:"required"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type Claims struct {
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

type APIResponseEvent struct {
	ID              uint       `json:"id,omitempty"`
	Title           string     `json:"title,omitempty"`
	Slug            string     `json:"slug,omitempty"`
	Status          *string    `json:"status,omitempty"`
	StartsAt        *time.Time `json:"starts_at,omitempty"`
	Capacity        *uint      `json:"capacity,omitempty"`
	Available       *uint      `json:"available,omitempty"`
	DepositPrice    *float64   `json:"deposit_price,omitempty"`
	TransferAllowed bool       `json:"transfer_allowed,omitempty"`

	Timestamps
}

type APIResponseRegistration struct {
	ID            uint       `json:"id,omitempty"`
	EventID       uint       `json:"event_id,omitempty"`
	Status        string     `json:"status,omitempty"`
	PaymentStatus string     `json:"payment_status,omitempty"`
	FinalPrice    float64    `json:"final_price"`
	TicketCode    string     `json:"ticket_code,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`

	Timestamps
}

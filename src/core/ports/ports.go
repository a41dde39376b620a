package ports

import (
	"context"
	"time"

	"ers/src/models"
	"ers/src/types"
)

// Clock is injected so deadline and lead-time logic is deterministic under
// test.
type Clock interface {
	Now() time.Time
}

// Profile is the read-only identity snapshot captured onto a registration at
// submission time.
type Profile struct {
	Name       string
	Document   string
	Phone      string
	Email      string
	Reputation float64
}

type ProfileSource interface {
	Snapshot(ctx context.Context, userID uint) (*Profile, error)
}

// PaymentGateway authorizes a deposit charge and hands back an opaque session
// handle. The gateway result lands later through the webhook route.
type PaymentGateway interface {
	Authorize(ctx context.Context, reg *models.Registration) (string, error)
}

// NotificationSink is fire-and-forget. Callers must never let a sink failure
// roll back the state transition that triggered it.
type NotificationSink interface {
	Notify(ctx context.Context, userID uint, kind types.NotificationKind, payload types.JSONB) error
}

type EventRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Event, error)
	// ReserveSeat increments seats_taken iff it is below capacity and
	// reports whether the increment happened. The update must be atomic at
	// the storage level.
	ReserveSeat(ctx context.Context, id uint) (bool, error)
	// ReleaseSeat decrements seats_taken, never below zero.
	ReleaseSeat(ctx context.Context, id uint) error
}

type RegistrationRepository interface {
	Create(ctx context.Context, reg *models.Registration) error
	GetByID(ctx context.Context, id uint) (*models.Registration, error)
	GetByTicketCode(ctx context.Context, code string) (*models.Registration, error)
	// GetActive returns the pending/confirmed/waitlisted registration for
	// the pair, or nil when none exists.
	GetActive(ctx context.Context, eventID, userID uint) (*models.Registration, error)
	ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]models.Registration, error)
	// CompareAndSwap applies updates iff the row still holds one of the
	// given statuses. Racing sweep/payment/cancel writers lose here with
	// swapped=false instead of clobbering each other.
	CompareAndSwap(ctx context.Context, id uint, from []types.RegistrationStatus, updates map[string]any) (bool, error)
}

type WaitlistRepository interface {
	Create(ctx context.Context, entry *models.WaitlistEntry) error
	GetQueued(ctx context.Context, eventID, userID uint) (*models.WaitlistEntry, error)
	// NextQueued returns the earliest queued entry by enqueue time, ties
	// broken by insertion order, or nil when the queue is empty.
	NextQueued(ctx context.Context, eventID uint) (*models.WaitlistEntry, error)
	// PositionOf is 1-based; 0 means the user holds no queued entry.
	PositionOf(ctx context.Context, eventID, userID uint) (int, error)
	UpdateStatus(ctx context.Context, id uint, from, to types.WaitlistStatus, updates map[string]any) (bool, error)
}

type TransferRepository interface {
	Create(ctx context.Context, req *models.TransferRequest) error
	GetByID(ctx context.Context, id uint) (*models.TransferRequest, error)
	CompareAndSwap(ctx context.Context, id uint, from, to types.TransferStatus) (bool, error)
}

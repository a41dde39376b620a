package core

import (
	"context"
	"sync"

	"ers/src/core/ports"
)

// CapacityLedger serializes every capacity mutation for a given event. The
// per-event mutex keeps check-then-increment atomic end to end inside one
// process; the repository's conditional update backs it at the storage level
// so a second process cannot oversell either.
type CapacityLedger struct {
	events ports.EventRepository
	locks  sync.Map // eventID -> *sync.Mutex
}

func NewCapacityLedger(events ports.EventRepository) *CapacityLedger {
	return &CapacityLedger{events: events}
}

func (l *CapacityLedger) lockFor(eventID uint) *sync.Mutex {
	mu, _ := l.locks.LoadOrStore(eventID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Lock takes the per-event serialization point and returns the unlock func.
// Promotion runs under the same lock as the release that freed the seat.
func (l *CapacityLedger) Lock(eventID uint) func() {
	mu := l.lockFor(eventID)
	mu.Lock()
	return mu.Unlock
}

func (l *CapacityLedger) TryReserve(ctx context.Context, eventID uint) (bool, error) {
	defer l.Lock(eventID)()
	return l.events.ReserveSeat(ctx, eventID)
}

// tryReserveLocked is for callers already holding the event lock.
func (l *CapacityLedger) tryReserveLocked(ctx context.Context, eventID uint) (bool, error) {
	return l.events.ReserveSeat(ctx, eventID)
}

func (l *CapacityLedger) releaseLocked(ctx context.Context, eventID uint) error {
	return l.events.ReleaseSeat(ctx, eventID)
}

func (l *CapacityLedger) Available(ctx context.Context, eventID uint) (uint, error) {
	event, err := l.events.GetByID(ctx, eventID)
	if err != nil {
		return 0, err
	}
	return event.Available(), nil
}

package core

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"ers/src/models"
	"ers/src/types"
)

// JoinWaitlist queues the user for a full event and returns their 1-based
// position. A shadow registration is created for bookkeeping; it holds no
// capacity until promotion.
func (e *Engine) JoinWaitlist(ctx context.Context, eventID, userID uint) (*models.WaitlistEntry, int, error) {
	event, err := e.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, 0, err
	}
	if event.Status != types.EVENT_PUBLISHED {
		return nil, 0, ErrEventNotOpen
	}
	if event.Available() > 0 {
		return nil, 0, ErrSeatsAvailable
	}

	active, err := e.regs.GetActive(ctx, eventID, userID)
	if err != nil {
		return nil, 0, err
	}
	if active != nil {
		if active.Status == types.REGISTRATION_WAITLISTED {
			return nil, 0, ErrAlreadyQueued
		}
		if !active.Expired(e.clock.Now()) {
			return nil, 0, ErrAlreadyRegistered
		}
		if err := e.expire(ctx, active); err != nil {
			return nil, 0, err
		}
	}
	queued, err := e.waitlist.GetQueued(ctx, eventID, userID)
	if err != nil {
		return nil, 0, err
	}
	if queued != nil {
		return nil, 0, ErrAlreadyQueued
	}

	profile, err := e.profiles.Snapshot(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	// Check-and-create runs under the event lock so a same-user racer
	// cannot slip a second queued entry in between.
	unlock := e.ledger.Lock(eventID)
	racer, err := e.regs.GetActive(ctx, eventID, userID)
	if err != nil {
		unlock()
		return nil, 0, err
	}
	if racer != nil {
		unlock()
		if racer.Status == types.REGISTRATION_WAITLISTED {
			return nil, 0, ErrAlreadyQueued
		}
		return nil, 0, ErrAlreadyRegistered
	}
	if queued, err := e.waitlist.GetQueued(ctx, eventID, userID); err != nil {
		unlock()
		return nil, 0, err
	} else if queued != nil {
		unlock()
		return nil, 0, ErrAlreadyQueued
	}
	// A slot may have freed while we waited for the lock.
	if event, err = e.events.GetByID(ctx, eventID); err != nil {
		unlock()
		return nil, 0, err
	}
	if event.Available() > 0 {
		unlock()
		return nil, 0, ErrSeatsAvailable
	}

	shadow := &models.Registration{
		EventID:        eventID,
		UserID:         userID,
		HolderName:     profile.Name,
		HolderDocument: profile.Document,
		HolderPhone:    profile.Phone,
		HolderEmail:    profile.Email,
		Status:         types.REGISTRATION_WAITLISTED,
		PaymentStatus:  types.PAYMENT_PENDING,
		TicketCode:     uuid.NewString(),
	}
	if err := e.regs.Create(ctx, shadow); err != nil {
		unlock()
		return nil, 0, err
	}
	entry := &models.WaitlistEntry{
		EventID:        eventID,
		UserID:         userID,
		RegistrationID: &shadow.ID,
		Status:         types.WAITLIST_QUEUED,
		EnqueuedAt:     e.clock.Now(),
	}
	if err := e.waitlist.Create(ctx, entry); err != nil {
		unlock()
		return nil, 0, err
	}
	position, err := e.waitlist.PositionOf(ctx, eventID, userID)
	unlock()
	if err != nil {
		return nil, 0, err
	}
	e.notify(ctx, userID, types.NOTIFY_WAITLIST_JOINED, types.JSONB{
		"event_id": eventID,
		"position": position,
	})
	return entry, position, nil
}

// LeaveWaitlist abandons a queued entry and retires its shadow registration.
func (e *Engine) LeaveWaitlist(ctx context.Context, eventID, userID uint) error {
	entry, err := e.waitlist.GetQueued(ctx, eventID, userID)
	if err != nil {
		return err
	}
	if entry == nil {
		return ErrNotFound
	}
	swapped, err := e.waitlist.UpdateStatus(ctx, entry.ID, types.WAITLIST_QUEUED, types.WAITLIST_EXPIRED, nil)
	if err != nil {
		return err
	}
	if !swapped {
		return ErrNotFound
	}
	if entry.RegistrationID != nil {
		if _, err := e.regs.CompareAndSwap(ctx, *entry.RegistrationID,
			[]types.RegistrationStatus{types.REGISTRATION_WAITLISTED},
			map[string]any{"status": types.REGISTRATION_CANCELED}); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) WaitlistPosition(ctx context.Context, eventID, userID uint) (int, error) {
	return e.waitlist.PositionOf(ctx, eventID, userID)
}

// releaseAndPromote gives a slot back to the ledger and immediately offers
// it to the queue, all under the event's serialization point so the freed
// capacity cannot be left unclaimed or double-granted.
func (e *Engine) releaseAndPromote(ctx context.Context, eventID uint) error {
	defer e.ledger.Lock(eventID)()
	if err := e.ledger.releaseLocked(ctx, eventID); err != nil {
		return err
	}
	e.recordReleased(ctx, eventID)
	return e.promoteLocked(ctx, eventID)
}

// promoteLocked fills one freed slot from the queue. A stale entry (left or
// already promoted elsewhere) is skipped, never silently dropping the seat:
// the next queued entry gets it, and when the queue drains the reservation
// is handed back.
func (e *Engine) promoteLocked(ctx context.Context, eventID uint) error {
	reserved, err := e.ledger.tryReserveLocked(ctx, eventID)
	if err != nil {
		return err
	}
	if !reserved {
		return nil
	}
	for {
		entry, err := e.waitlist.NextQueued(ctx, eventID)
		if err != nil {
			return err
		}
		if entry == nil {
			return e.ledger.releaseLocked(ctx, eventID)
		}
		promoted, err := e.promoteEntry(ctx, entry)
		if err != nil {
			return err
		}
		if promoted {
			e.recordPromoted(ctx, eventID)
			return nil
		}
	}
}

// promoteEntry upgrades the entry's shadow registration under the same
// pricing rules as a direct registration. Reports false when the entry was
// already claimed or abandoned.
func (e *Engine) promoteEntry(ctx context.Context, entry *models.WaitlistEntry) (bool, error) {
	if entry.RegistrationID == nil {
		_, err := e.waitlist.UpdateStatus(ctx, entry.ID, types.WAITLIST_QUEUED, types.WAITLIST_EXPIRED, nil)
		return false, err
	}
	reg, err := e.regs.GetByID(ctx, *entry.RegistrationID)
	if err != nil {
		return false, err
	}
	event, err := e.events.GetByID(ctx, entry.EventID)
	if err != nil {
		return false, err
	}
	profile, err := e.profiles.Snapshot(ctx, entry.UserID)
	if err != nil {
		return false, err
	}
	quote := e.policy.Price(event.DepositPrice, profile.Reputation)

	now := e.clock.Now()
	updates := map[string]any{
		"original_price": quote.Original,
		"discount":       quote.Discount,
		"final_price":    quote.Final,
	}
	entryStatus := types.WAITLIST_ACCEPTED
	kind := types.NOTIFY_REGISTRATION_CONFIRMED
	if quote.Exempt {
		updates["status"] = types.REGISTRATION_CONFIRMED
		updates["payment_status"] = types.PAYMENT_APPROVED
	} else {
		deadline := now.Add(e.paymentDeadline)
		updates["status"] = types.REGISTRATION_PENDING
		updates["expires_at"] = deadline
		entryStatus = types.WAITLIST_NOTIFIED
		kind = types.NOTIFY_WAITLIST_PROMOTED
	}
	swapped, err := e.regs.CompareAndSwap(ctx, reg.ID,
		[]types.RegistrationStatus{types.REGISTRATION_WAITLISTED}, updates)
	if err != nil {
		return false, err
	}
	if !swapped {
		// Shadow registration is gone; retire the entry and move on.
		_, err := e.waitlist.UpdateStatus(ctx, entry.ID, types.WAITLIST_QUEUED, types.WAITLIST_EXPIRED, nil)
		return false, err
	}
	if _, err := e.waitlist.UpdateStatus(ctx, entry.ID, types.WAITLIST_QUEUED, entryStatus,
		map[string]any{"notified_at": now}); err != nil {
		return false, err
	}
	if !quote.Exempt {
		if _, err := e.payments.Authorize(ctx, reg); err != nil {
			log.Printf("Error authorizing payment for promoted registration %d: %s\n", reg.ID, err.Error())
		}
	}
	e.notify(ctx, entry.UserID, kind, types.JSONB{
		"event_id":        entry.EventID,
		"registration_id": reg.ID,
	})
	return true, nil
}

// WaitlistStats is informational only: the estimate is derived from recent
// release history cached in redis and plays no part in correctness.
type WaitlistStats struct {
	Position           int     `json:"position,omitempty"`
	ReleasedPerDay     float64 `json:"released_per_day"`
	PromotionsRecorded int64   `json:"promotions_recorded"`
}

const statsWindowDays = 7

func (e *Engine) WaitlistStatus(ctx context.Context, eventID, userID uint) (*WaitlistStats, error) {
	position, err := e.waitlist.PositionOf(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	stats := &WaitlistStats{Position: position}
	if e.rdb == nil {
		return stats, nil
	}
	var released int64
	day := time.UnixMilli(e.clock.Now().UnixMilli()).UTC()
	for i := 0; i < statsWindowDays; i++ {
		n, err := e.rdb.Get(ctx, releasedKey(eventID, day.AddDate(0, 0, -i))).Int64()
		if err == nil {
			released += n
		}
	}
	stats.ReleasedPerDay = float64(released) / float64(statsWindowDays)
	if n, err := e.rdb.Get(ctx, promotedKey(eventID)).Int64(); err == nil {
		stats.PromotionsRecorded = n
	}
	return stats, nil
}

func (e *Engine) recordReleased(ctx context.Context, eventID uint) {
	if e.rdb == nil {
		return
	}
	key := releasedKey(eventID, e.clock.Now().UTC())
	if err := e.rdb.Incr(ctx, key).Err(); err != nil {
		log.Printf("Error recording release for event %d: %s\n", eventID, err.Error())
		return
	}
	e.rdb.Expire(ctx, key, (statsWindowDays+1)*24*time.Hour)
}

func (e *Engine) recordPromoted(ctx context.Context, eventID uint) {
	if e.rdb == nil {
		return
	}
	if err := e.rdb.Incr(ctx, promotedKey(eventID)).Err(); err != nil {
		log.Printf("Error recording promotion for event %d: %s\n", eventID, err.Error())
	}
}

func releasedKey(eventID uint, day time.Time) string {
	return fmt.Sprintf("waitlist:released:%d:%s", eventID, day.Format("2006-01-02"))
}

func promotedKey(eventID uint) string {
	return fmt.Sprintf("waitlist:promoted:%d", eventID)
}

package core

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"ers/src/models"
	"ers/src/types"
)

// RegistrationResult carries the created registration plus the payment
// session handle when a capture is required.
type RegistrationResult struct {
	Registration   *models.Registration
	PaymentSession string
}

// Register attempts to claim a slot for the user. A capacity-exhausted
// outcome is returned as ErrCapacityExhausted so the transport layer can
// offer the waitlist instead.
func (e *Engine) Register(ctx context.Context, eventID, userID uint, paymentMethod string) (*RegistrationResult, error) {
	event, err := e.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status != types.EVENT_PUBLISHED {
		return nil, ErrEventNotOpen
	}

	active, err := e.regs.GetActive(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		if !active.Expired(e.clock.Now()) {
			return nil, ErrAlreadyRegistered
		}
		// Abandoned pending registration: reconcile before re-admitting.
		if err := e.expire(ctx, active); err != nil {
			return nil, err
		}
	}

	profile, err := e.profiles.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	quote := e.policy.Price(event.DepositPrice, profile.Reputation)

	reg := &models.Registration{
		EventID:        eventID,
		UserID:         userID,
		HolderName:     profile.Name,
		HolderDocument: profile.Document,
		HolderPhone:    profile.Phone,
		HolderEmail:    profile.Email,
		OriginalPrice:  quote.Original,
		Discount:       quote.Discount,
		FinalPrice:     quote.Final,
		PaymentMethod:  paymentMethod,
		TicketCode:     uuid.NewString(),
	}
	if quote.Exempt {
		reg.Status = types.REGISTRATION_CONFIRMED
		reg.PaymentStatus = types.PAYMENT_APPROVED
	} else {
		deadline := e.clock.Now().Add(e.paymentDeadline)
		reg.Status = types.REGISTRATION_PENDING
		reg.PaymentStatus = types.PAYMENT_PENDING
		reg.ExpiresAt = &deadline
	}

	// Reservation and row creation happen under the same per-event lock so
	// two racers for the last seat cannot both observe success.
	unlock := e.ledger.Lock(eventID)
	// Re-check uniqueness under the lock: a same-user racer may have
	// created a registration since the check above. A hold that expired in
	// the window is reconciled on the next attempt.
	racer, err := e.regs.GetActive(ctx, eventID, userID)
	if err != nil {
		unlock()
		return nil, err
	}
	if racer != nil {
		unlock()
		return nil, ErrAlreadyRegistered
	}
	reserved, err := e.ledger.tryReserveLocked(ctx, eventID)
	if err != nil {
		unlock()
		return nil, err
	}
	if !reserved {
		unlock()
		return nil, ErrCapacityExhausted
	}
	if err := e.regs.Create(ctx, reg); err != nil {
		if rerr := e.ledger.releaseLocked(ctx, eventID); rerr != nil {
			log.Printf("Error releasing seat after failed registration create: %s\n", rerr.Error())
		}
		unlock()
		return nil, err
	}
	unlock()

	result := &RegistrationResult{Registration: reg}
	if quote.Exempt {
		e.notify(ctx, userID, types.NOTIFY_REGISTRATION_CONFIRMED, types.JSONB{
			"event_id":        eventID,
			"registration_id": reg.ID,
			"ticket_code":     reg.TicketCode,
		})
		return result, nil
	}

	session, err := e.payments.Authorize(ctx, reg)
	if err != nil {
		// The slot stays provisionally held; the caller retries the
		// capture or the sweeper reclaims it at the deadline.
		log.Printf("Error authorizing payment for registration %d: %s\n", reg.ID, err.Error())
		return result, fmt.Errorf("%w: %s", ErrPaymentGateway, err.Error())
	}
	result.PaymentSession = session
	e.notify(ctx, userID, types.NOTIFY_REGISTRATION_PENDING, types.JSONB{
		"event_id":        eventID,
		"registration_id": reg.ID,
		"expires_at":      reg.ExpiresAt,
	})
	return result, nil
}

// ConfirmPayment lands the gateway's approval. Losing the race against the
// sweeper or an explicit cancel is an idempotent no-op.
func (e *Engine) ConfirmPayment(ctx context.Context, regID uint) error {
	reg, err := e.regs.GetByID(ctx, regID)
	if err != nil {
		return err
	}
	swapped, err := e.regs.CompareAndSwap(ctx, regID,
		[]types.RegistrationStatus{types.REGISTRATION_PENDING},
		map[string]any{
			"status":         types.REGISTRATION_CONFIRMED,
			"payment_status": types.PAYMENT_APPROVED,
			"expires_at":     nil,
		})
	if err != nil {
		return err
	}
	if !swapped {
		log.Printf("Ignoring payment confirmation for registration %d in status %s\n", regID, reg.Status)
		return nil
	}
	e.notify(ctx, reg.UserID, types.NOTIFY_REGISTRATION_CONFIRMED, types.JSONB{
		"event_id":        reg.EventID,
		"registration_id": reg.ID,
		"ticket_code":     reg.TicketCode,
	})
	return nil
}

// RejectPayment lands a declined capture: the pending registration is
// canceled and its slot goes back to the ledger.
func (e *Engine) RejectPayment(ctx context.Context, regID uint) error {
	reg, err := e.regs.GetByID(ctx, regID)
	if err != nil {
		return err
	}
	swapped, err := e.regs.CompareAndSwap(ctx, regID,
		[]types.RegistrationStatus{types.REGISTRATION_PENDING},
		map[string]any{
			"status":         types.REGISTRATION_CANCELED,
			"payment_status": types.PAYMENT_REJECTED,
		})
	if err != nil {
		return err
	}
	if !swapped {
		log.Printf("Ignoring payment rejection for registration %d in status %s\n", regID, reg.Status)
		return nil
	}
	if err := e.releaseAndPromote(ctx, reg.EventID); err != nil {
		return err
	}
	e.notify(ctx, reg.UserID, types.NOTIFY_REGISTRATION_CANCELED, types.JSONB{
		"event_id":        reg.EventID,
		"registration_id": reg.ID,
		"reason":          "payment_rejected",
	})
	return nil
}

// Cancel is the user- or organizer-initiated cancellation. Pending and
// confirmed registrations give their slot back; waitlisted ones leave the
// queue through Leave instead.
func (e *Engine) Cancel(ctx context.Context, regID, actorID uint, override bool) error {
	reg, err := e.regs.GetByID(ctx, regID)
	if err != nil {
		return err
	}
	if reg.UserID != actorID && !override {
		return ErrNotFound
	}
	event, err := e.events.GetByID(ctx, reg.EventID)
	if err != nil {
		return err
	}
	if e.clock.Now().After(event.StartsAt) {
		return ErrInvalidTransition
	}
	swapped, err := e.regs.CompareAndSwap(ctx, regID,
		[]types.RegistrationStatus{types.REGISTRATION_PENDING, types.REGISTRATION_CONFIRMED},
		map[string]any{"status": types.REGISTRATION_CANCELED})
	if err != nil {
		return err
	}
	if !swapped {
		if reg.Status == types.REGISTRATION_CANCELED {
			return nil
		}
		return ErrInvalidTransition
	}
	if err := e.releaseAndPromote(ctx, reg.EventID); err != nil {
		return err
	}
	e.notify(ctx, reg.UserID, types.NOTIFY_REGISTRATION_CANCELED, types.JSONB{
		"event_id":        reg.EventID,
		"registration_id": reg.ID,
	})
	return nil
}

// GetRegistration reconciles an expired pending row before returning it, so
// readers never observe a stale hold.
func (e *Engine) GetRegistration(ctx context.Context, regID uint) (*models.Registration, error) {
	reg, err := e.regs.GetByID(ctx, regID)
	if err != nil {
		return nil, err
	}
	if reg.Expired(e.clock.Now()) {
		if err := e.expire(ctx, reg); err != nil {
			return nil, err
		}
		reg.Status = types.REGISTRATION_CANCELED
		return reg, ErrExpiredRegistration
	}
	return reg, nil
}

// CheckIn admits a confirmed registration by its ticket code.
func (e *Engine) CheckIn(ctx context.Context, ticketCode string) (*models.Registration, error) {
	reg, err := e.regs.GetByTicketCode(ctx, ticketCode)
	if err != nil {
		return nil, err
	}
	if reg.Status != types.REGISTRATION_CONFIRMED || reg.PaymentStatus != types.PAYMENT_APPROVED {
		return nil, ErrInvalidTransition
	}
	if reg.CheckedIn {
		return nil, ErrAlreadyCheckedIn
	}
	event, err := e.events.GetByID(ctx, reg.EventID)
	if err != nil {
		return nil, err
	}
	if event.Status != types.EVENT_PUBLISHED && event.Status != types.EVENT_IN_PROGRESS {
		return nil, ErrEventNotOpen
	}
	now := e.clock.Now()
	swapped, err := e.regs.CompareAndSwap(ctx, reg.ID,
		[]types.RegistrationStatus{types.REGISTRATION_CONFIRMED},
		map[string]any{
			"checked_in":    true,
			"checked_in_at": now,
		})
	if err != nil {
		return nil, err
	}
	if !swapped {
		return nil, ErrInvalidTransition
	}
	reg.CheckedIn = true
	reg.CheckedInAt = &now
	e.notify(ctx, reg.UserID, types.NOTIFY_CHECKIN_COMPLETED, types.JSONB{
		"event_id":        reg.EventID,
		"registration_id": reg.ID,
	})
	return reg, nil
}

// expire moves a deadline-overrun pending registration to canceled and feeds
// the freed slot back to the ledger. Safe to call twice: the loser of the
// compare-and-swap does nothing.
func (e *Engine) expire(ctx context.Context, reg *models.Registration) error {
	swapped, err := e.regs.CompareAndSwap(ctx, reg.ID,
		[]types.RegistrationStatus{types.REGISTRATION_PENDING},
		map[string]any{"status": types.REGISTRATION_CANCELED})
	if err != nil {
		return err
	}
	if !swapped {
		return nil
	}
	if err := e.releaseAndPromote(ctx, reg.EventID); err != nil {
		return err
	}
	e.notify(ctx, reg.UserID, types.NOTIFY_REGISTRATION_EXPIRED, types.JSONB{
		"event_id":        reg.EventID,
		"registration_id": reg.ID,
	})
	return nil
}

// IsRoutingSignal reports whether err only redirects the caller rather than
// failing the request.
func IsRoutingSignal(err error) bool {
	return errors.Is(err, ErrCapacityExhausted)
}

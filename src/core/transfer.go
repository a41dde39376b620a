package core

import (
	"context"

	"ers/src/models"
	"ers/src/types"
)

// CreateTransfer opens a transfer request for a confirmed registration. The
// event must allow transfers and still be more than the lead time away.
func (e *Engine) CreateTransfer(ctx context.Context, regID, fromUserID, toUserID uint, message string) (*models.TransferRequest, error) {
	reg, err := e.regs.GetByID(ctx, regID)
	if err != nil {
		return nil, err
	}
	if reg.UserID != fromUserID {
		return nil, ErrNotFound
	}
	if reg.Status != types.REGISTRATION_CONFIRMED {
		return nil, ErrTransferNotAllowed
	}
	event, err := e.events.GetByID(ctx, reg.EventID)
	if err != nil {
		return nil, err
	}
	if !event.TransferAllowed {
		return nil, ErrTransferNotAllowed
	}
	if e.clock.Now().Add(e.transferLead).After(event.StartsAt) {
		return nil, ErrTransferNotAllowed
	}
	req := &models.TransferRequest{
		RegistrationID: regID,
		FromUserID:     fromUserID,
		ToUserID:       toUserID,
		Status:         types.TRANSFER_SENT,
	}
	if message != "" {
		req.Message = &message
	}
	if err := e.transfers.Create(ctx, req); err != nil {
		return nil, err
	}
	e.notify(ctx, toUserID, types.NOTIFY_TRANSFER_RECEIVED, types.JSONB{
		"transfer_id":     req.ID,
		"registration_id": regID,
		"from_user":       fromUserID,
	})
	return req, nil
}

// ResolveTransfer settles a sent request. Acceptance rewrites the holder
// snapshot to the recipient and marks the registration transferred; the
// ledger count never moves, the slot just changes hands.
func (e *Engine) ResolveTransfer(ctx context.Context, reqID, actorID uint, decision types.TransferStatus, override bool) error {
	req, err := e.transfers.GetByID(ctx, reqID)
	if err != nil {
		return err
	}
	switch decision {
	case types.TRANSFER_ACCEPTED, types.TRANSFER_DENIED:
		if req.ToUserID != actorID && !override {
			return ErrTransferNotAllowed
		}
	case types.TRANSFER_CANCELED:
		if req.FromUserID != actorID && !override {
			return ErrTransferNotAllowed
		}
	default:
		return ErrInvalidTransition
	}

	swapped, err := e.transfers.CompareAndSwap(ctx, reqID, types.TRANSFER_SENT, decision)
	if err != nil {
		return err
	}
	if !swapped {
		return ErrInvalidTransition
	}
	if decision != types.TRANSFER_ACCEPTED {
		if decision == types.TRANSFER_DENIED {
			e.notify(ctx, req.FromUserID, types.NOTIFY_TRANSFER_DENIED, types.JSONB{
				"transfer_id": req.ID,
			})
		}
		return nil
	}

	profile, err := e.profiles.Snapshot(ctx, req.ToUserID)
	if err != nil {
		return err
	}
	regSwapped, err := e.regs.CompareAndSwap(ctx, req.RegistrationID,
		[]types.RegistrationStatus{types.REGISTRATION_CONFIRMED},
		map[string]any{
			"status":          types.REGISTRATION_TRANSFERRED,
			"user_id":         req.ToUserID,
			"holder_name":     profile.Name,
			"holder_document": profile.Document,
			"holder_phone":    profile.Phone,
			"holder_email":    profile.Email,
		})
	if err != nil {
		return err
	}
	if !regSwapped {
		// Holder canceled between resolution and reassignment.
		return ErrInvalidTransition
	}
	e.notify(ctx, req.FromUserID, types.NOTIFY_TRANSFER_ACCEPTED, types.JSONB{
		"transfer_id": req.ID,
	})
	e.notify(ctx, req.ToUserID, types.NOTIFY_TRANSFER_ACCEPTED, types.JSONB{
		"transfer_id":     req.ID,
		"registration_id": req.RegistrationID,
	})
	return nil
}

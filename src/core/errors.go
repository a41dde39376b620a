package core

import "errors"

var (
	// ErrCapacityExhausted is a routing signal, not a failure: the caller
	// should offer the waitlist instead.
	ErrCapacityExhausted = errors.New("event capacity exhausted")

	ErrAlreadyRegistered   = errors.New("user already holds an active registration for this event")
	ErrAlreadyQueued       = errors.New("user already holds a queued waitlist entry for this event")
	ErrInvalidTransition   = errors.New("invalid registration state transition")
	ErrTransferNotAllowed  = errors.New("transfer not allowed for this registration")
	ErrExpiredRegistration = errors.New("registration expired, please register again")
	ErrPaymentGateway      = errors.New("payment gateway error")
	ErrNotFound            = errors.New("record not found")
	ErrEventNotOpen        = errors.New("event is not open for registration")
	ErrSeatsAvailable      = errors.New("event still has available capacity")
	ErrAlreadyCheckedIn    = errors.New("registration already checked in")
)

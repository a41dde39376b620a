package core

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"ers/src/config"
	"ers/src/core/ports"
	"ers/src/types"
)

// Engine owns the registration lifecycle for every event: it is the only
// code path allowed to flip registration status or payment status.
type Engine struct {
	events    ports.EventRepository
	regs      ports.RegistrationRepository
	waitlist  ports.WaitlistRepository
	transfers ports.TransferRepository

	ledger   *CapacityLedger
	policy   PricePolicy
	payments ports.PaymentGateway
	sink     ports.NotificationSink
	profiles ports.ProfileSource
	clock    ports.Clock
	rdb      *redis.Client

	paymentDeadline time.Duration
	transferLead    time.Duration
}

type EngineParams struct {
	Events    ports.EventRepository
	Regs      ports.RegistrationRepository
	Waitlist  ports.WaitlistRepository
	Transfers ports.TransferRepository
	Payments  ports.PaymentGateway
	Sink      ports.NotificationSink
	Profiles  ports.ProfileSource
	Clock     ports.Clock
	Redis     *redis.Client
}

func NewEngine(p EngineParams) *Engine {
	clock := p.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	return &Engine{
		events:          p.Events,
		regs:            p.Regs,
		waitlist:        p.Waitlist,
		transfers:       p.Transfers,
		ledger:          NewCapacityLedger(p.Events),
		policy:          PricePolicy{MinPayable: config.MinPayable()},
		payments:        p.Payments,
		sink:            p.Sink,
		profiles:        p.Profiles,
		clock:           clock,
		rdb:             p.Redis,
		paymentDeadline: config.PaymentDeadline(),
		transferLead:    config.TransferLeadTime(),
	}
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// notify delivers to the sink without ever failing the caller.
func (e *Engine) notify(ctx context.Context, userID uint, kind types.NotificationKind, payload types.JSONB) {
	if e.sink == nil {
		return
	}
	if err := e.sink.Notify(ctx, userID, kind, payload); err != nil {
		log.Printf("Error delivering %s notification to user %d: %s\n", kind, userID, err.Error())
	}
}

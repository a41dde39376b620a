package core_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ers/src/core"
	"ers/src/core/ports"
	"ers/src/models"
	"ers/src/types"
)

type testEnv struct {
	store    *memStore
	clock    *fakeClock
	profiles *fakeProfiles
	gateway  *fakeGateway
	sink     *recordingSink
	engine   *core.Engine
}

func newTestEnv() *testEnv {
	store := newMemStore()
	clock := newFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	profiles := newFakeProfiles()
	gateway := &fakeGateway{}
	sink := &recordingSink{}
	engine := core.NewEngine(core.EngineParams{
		Events:    store,
		Regs:      memRegs{store},
		Waitlist:  memWaitlist{store},
		Transfers: memTransfers{store},
		Payments:  gateway,
		Sink:      sink,
		Profiles:  profiles,
		Clock:     clock,
	})
	return &testEnv{
		store:    store,
		clock:    clock,
		profiles: profiles,
		gateway:  gateway,
		sink:     sink,
		engine:   engine,
	}
}

func (env *testEnv) addEvent(capacity uint, depositPrice float64) *models.Event {
	return env.store.addEvent(models.Event{
		Title:           "Expo Imigrantes",
		Status:          types.EVENT_PUBLISHED,
		Capacity:        capacity,
		DepositPrice:    depositPrice,
		TransferAllowed: true,
		StartsAt:        env.clock.Now().Add(72 * time.Hour),
	})
}

func TestRegisterExemptConfirmsImmediately(t *testing.T) {
	env := newTestEnv()
	ev := env.addEvent(10, 0)

	res, err := env.engine.Register(context.TODO(), ev.ID, 1, "card")
	require.NoError(t, err)
	assert.Equal(t, types.REGISTRATION_CONFIRMED, res.Registration.Status)
	assert.Equal(t, types.PAYMENT_APPROVED, res.Registration.PaymentStatus)
	assert.Nil(t, res.Registration.ExpiresAt)
	assert.Empty(t, res.PaymentSession)
	assert.NotEmpty(t, res.Registration.TicketCode)
	assert.Equal(t, uint(1), env.store.event(ev.ID).SeatsTaken)
	assert.Contains(t, env.sink.kinds(), types.NOTIFY_REGISTRATION_CONFIRMED)
}

func TestRegisterPendingWithDeadline(t *testing.T) {
	env := newTestEnv()
	ev := env.addEvent(10, 100)

	res, err := env.engine.Register(context.TODO(), ev.ID, 1, "card")
	require.NoError(t, err)
	reg := res.Registration
	assert.Equal(t, types.REGISTRATION_PENDING, reg.Status)
	assert.Equal(t, types.PAYMENT_PENDING, reg.PaymentStatus)
	require.NotNil(t, reg.ExpiresAt)
	assert.Equal(t, env.clock.Now().Add(15*time.Minute), *reg.ExpiresAt)
	assert.Equal(t, "session-1", res.PaymentSession)
	assert.Equal(t, 100.0, reg.FinalPrice)
}

func TestRegisterSnapshotsProfileAndDiscount(t *testing.T) {
	env := newTestEnv()
	ev := env.addEvent(10, 100)
	env.profiles.set(7, ports.Profile{
		Name:       "Maria Souza",
		Document:   "123.456.789-00",
		Email:      "maria@example.com",
		Reputation: 9.0,
	})

	res, err := env.engine.Register(context.TODO(), ev.ID, 7, "card")
	require.NoError(t, err)
	reg := res.Registration
	assert.Equal(t, "Maria Souza", reg.HolderName)
	assert.Equal(t, "123.456.789-00", reg.HolderDocument)
	assert.Equal(t, 25.0, reg.Discount)
	assert.Equal(t, 75.0, reg.FinalPrice)
}

func TestRegisterDuplicateRejected(t *testing.T) {
	env := newTestEnv()
	ev := env.addEvent(10, 0)

	_, err := env.engine.Register(context.TODO(), ev.ID, 1, "card")
	require.NoError(t, err)
	_, err = env.engine.Register(context.TODO(), ev.ID, 1, "card")
	assert.ErrorIs(t, err, core.ErrAlreadyRegistered)
	assert.Equal(t, uint(1), env.store.event(ev.ID).SeatsTaken)
}

func TestRegisterUnpublishedEvent(t *testing.T) {
	env := newTestEnv()
	ev := env.store.addEvent(models.Event{Status: types.EVENT_DRAFT, Capacity: 10})

	_, err := env.engine.Register(context.TODO(), ev.ID, 1, "card")
	assert.ErrorIs(t, err, core.ErrEventNotOpen)
}

func TestRegisterCapacityExhausted(t *testing.T) {
	env := newTestEnv()
	ev := env.addEvent(1, 0)

	_, err := env.engine.Register(context.TODO(), ev.ID, 1, "card")
	require.NoError(t, err)
	_, err = env.engine.Register(context.TODO(), ev.ID, 2, "card")
	assert.ErrorIs(t, err, core.ErrCapacityExhausted)
	assert.True(t, core.IsRoutingSignal(err))
	assert.Equal(t, uint(1), env.store.event(ev.ID).SeatsTaken)
}

func TestRegisterGatewayFailureKeepsHold(t *testing.T) {
	env := newTestEnv()
	ev := env.addEvent(10, 100)
	env.gateway.fail = true

	res, err := env.engine.Register(context.TODO(), ev.ID, 1, "card")
	assert.ErrorIs(t, err, core.ErrPaymentGateway)
	require.NotNil(t, res)
	assert.Equal(t, types.REGISTRATION_PENDING, res.Registration.Status)
	// The hold stays until the deadline sweeper reclaims it.
	assert.Equal(t, uint(1), env.store.event(ev.ID).SeatsTaken)
}

func TestConcurrentRegistrationsNeverOversell(t *testing.T) {
	env := newTestEnv()
	ev := env.addEvent(3, 0)

	const attempts = 12
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.engine.Register(context.TODO(), ev.ID, uint(i+1), "card")
		}(i)
	}
	wg.Wait()

	granted := 0
	for _, err := range errs {
		if err == nil {
			granted++
		} else {
			assert.ErrorIs(t, err, core.ErrCapacityExhausted)
		}
	}
	assert.Equal(t, 3, granted)
	assert.Equal(t, uint(3), env.store.event(ev.ID).SeatsTaken)
}

func TestConcurrentSameUserRegistrations(t *testing.T) {
	env := newTestEnv()
	ev := env.addEvent(10, 0)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.engine.Register(context.TODO(), ev.ID, 2, "card")
		}(i)
	}
	wg.Wait()

	granted := 0
	for _, err := range errs {
		if err == nil {
			granted++
		} else {
			assert.ErrorIs(t, err, core.ErrAlreadyRegistered)
		}
	}
	// One user never holds more than one slot, no matter the interleaving.
	assert.Equal(t, 1, granted)
	assert.Equal(t, uint(1), env.store.event(ev.ID).SeatsTaken)
}

func TestConfirmPayment(t *testing.T) {
	env := newTestEnv()
	ev := env.addEvent(10, 100)
	res, err := env.engine.Register(context.TODO(), ev.ID, 1, "card")
	require.NoError(t, err)

	require.NoError(t, env.engine.ConfirmPayment(context.TODO(), res.Registration.ID))
	reg := env.store.registration(res.Registration.ID)
	assert.Equal(t, types.REGISTRATION_CONFIRMED, reg.Status)
	assert.Equal(t, types.PAYMENT_APPROVED, reg.PaymentStatus)
	assert.Nil(t, reg.ExpiresAt)

	// Duplicate webhook delivery is a no-op.
	require.NoError(t, env.engine.ConfirmPayment(context.TODO(), res.Registration.ID))
}

func TestRejectPaymentReleasesSeat(t *testing.T) {
	env := newTestEnv()
	ev := env.addEvent(10, 100)
	res, err := env.engine.Register(context.TODO(), ev.ID, 1, "card")
	require.NoError(t, err)

	require.NoError(t, env.engine.RejectPayment(context.TODO(), res.Registration.ID))
	reg := env.store.registration(res.Registration.ID)
	assert.Equal(t, types.REGISTRATION_CANCELED, reg.Status)
	assert.Equal(t, types.PAYMENT_REJECTED, reg.PaymentStatus)
	assert.Zero(t, env.store.event(ev.ID).SeatsTaken)
}

func TestCancelByOwnerReleasesSeat(t *testing.T) {
	env := newTestEnv()
	ev := env.addEvent(10, 0)
	res, err := env.engine.Register(context.TODO(), ev.ID, 1, "card")
	require.NoError(t, err)

	require.NoError(t, env.engine.Cancel(context.TODO(), res.Registration.ID, 1, false))
	assert.Equal(t, types.REGISTRATION_CANCELED, env.store.registration(res.Registration.ID).Status)
	assert.Zero(t, env.store.event(ev.ID).SeatsTaken)

	// Second cancel is idempotent.
	require.NoError(t, env.engine.Cancel(context.TODO(), res.Registration.ID, 1, false))
	assert.Zero(t, env.store.event(ev.ID).SeatsTaken)
}

func TestCancelByStranger(t *testing.T) {
	env := newTestEnv()
	ev := env.addEvent(10, 0)
	res, err := env.engine.Register(context.TODO(), ev.ID, 1, "card")
	require.NoError(t, err)

	assert.ErrorIs(t, env.engine.Cancel(context.TODO(), res.Registration.ID, 2, false), core.ErrNotFound)
	// Organizer override still goes through.
	require.NoError(t, env.engine.Cancel(context.TODO(), res.Registration.ID, 2, true))
}

func TestCancelAfterEventStart(t *testing.T) {
	env := newTestEnv()
	ev := env.addEvent(10, 0)
	res, err := env.engine.Register(context.TODO(), ev.ID, 1, "card")
	require.NoError(t, err)

	env.clock.Advance(73 * time.Hour)
	assert.ErrorIs(t, env.engine.Cancel(context.TODO(), res.Registration.ID, 1, false), core.ErrInvalidTransition)
}

func TestGetRegistrationReconcilesExpiredHold(t *testing.T) {
	env := newTestEnv()
	ev := env.addEvent(10, 100)
	res, err := env.engine.Register(context.TODO(), ev.ID, 1, "card")
	require.NoError(t, err)

	env.clock.Advance(16 * time.Minute)
	reg, err := env.engine.GetRegistration(context.TODO(), res.Registration.ID)
	assert.ErrorIs(t, err, core.ErrExpiredRegistration)
	require.NotNil(t, reg)
	assert.Equal(t, types.REGISTRATION_CANCELED, reg.Status)
	assert.Zero(t, env.store.event(ev.ID).SeatsTaken)
	assert.Contains(t, env.sink.kinds(), types.NOTIFY_REGISTRATION_EXPIRED)
}

func TestSweepExpired(t *testing.T) {
	env := newTestEnv()
	ev := env.addEvent(10, 100)
	for i := 1; i <= 2; i++ {
		_, err := env.engine.Register(context.TODO(), ev.ID, uint(i), "card")
		require.NoError(t, err)
	}
	confirmed, err := env.engine.Register(context.TODO(), ev.ID, 3, "card")
	require.NoError(t, err)
	require.NoError(t, env.engine.ConfirmPayment(context.TODO(), confirmed.Registration.ID))

	env.clock.Advance(16 * time.Minute)
	swept, err := env.engine.SweepExpired(context.TODO())
	require.NoError(t, err)
	assert.Equal(t, 2, swept)
	assert.Equal(t, uint(1), env.store.event(ev.ID).SeatsTaken)
	assert.Equal(t, types.REGISTRATION_CONFIRMED, env.store.registration(confirmed.Registration.ID).Status)

	// Sweeping twice has the same effect as once.
	swept, err = env.engine.SweepExpired(context.TODO())
	require.NoError(t, err)
	assert.Zero(t, swept)
	assert.Equal(t, uint(1), env.store.event(ev.ID).SeatsTaken)
}

func TestConfirmAfterSweepIsNoop(t *testing.T) {
	env := newTestEnv()
	ev := env.addEvent(10, 100)
	res, err := env.engine.Register(context.TODO(), ev.ID, 1, "card")
	require.NoError(t, err)

	env.clock.Advance(16 * time.Minute)
	_, err = env.engine.SweepExpired(context.TODO())
	require.NoError(t, err)

	// The webhook lost the race; the cancellation stands.
	require.NoError(t, env.engine.ConfirmPayment(context.TODO(), res.Registration.ID))
	assert.Equal(t, types.REGISTRATION_CANCELED, env.store.registration(res.Registration.ID).Status)
	assert.Zero(t, env.store.event(ev.ID).SeatsTaken)
}

func TestReRegisterAfterAbandonedHold(t *testing.T) {
	env := newTestEnv()
	ev := env.addEvent(1, 100)
	_, err := env.engine.Register(context.TODO(), ev.ID, 1, "card")
	require.NoError(t, err)

	env.clock.Advance(16 * time.Minute)
	res, err := env.engine.Register(context.TODO(), ev.ID, 1, "card")
	require.NoError(t, err)
	assert.Equal(t, types.REGISTRATION_PENDING, res.Registration.Status)
	assert.Equal(t, uint(1), env.store.event(ev.ID).SeatsTaken)
}

func TestCheckIn(t *testing.T) {
	env := newTestEnv()
	ev := env.addEvent(10, 0)
	res, err := env.engine.Register(context.TODO(), ev.ID, 1, "card")
	require.NoError(t, err)

	reg, err := env.engine.CheckIn(context.TODO(), res.Registration.TicketCode)
	require.NoError(t, err)
	assert.True(t, reg.CheckedIn)
	require.NotNil(t, reg.CheckedInAt)

	_, err = env.engine.CheckIn(context.TODO(), res.Registration.TicketCode)
	assert.ErrorIs(t, err, core.ErrAlreadyCheckedIn)
}

func TestCheckInPendingRegistration(t *testing.T) {
	env := newTestEnv()
	ev := env.addEvent(10, 100)
	res, err := env.engine.Register(context.TODO(), ev.ID, 1, "card")
	require.NoError(t, err)

	_, err = env.engine.CheckIn(context.TODO(), res.Registration.TicketCode)
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
}

func TestSinkFailureNeverFailsTransition(t *testing.T) {
	env := newTestEnv()
	ev := env.addEvent(10, 0)
	env.sink.fail = true

	res, err := env.engine.Register(context.TODO(), ev.ID, 1, "card")
	require.NoError(t, err)
	assert.Equal(t, types.REGISTRATION_CONFIRMED, res.Registration.Status)
}

func TestDistinctTicketCodes(t *testing.T) {
	env := newTestEnv()
	ev := env.addEvent(10, 0)

	seen := map[string]bool{}
	for i := 1; i <= 5; i++ {
		res, err := env.engine.Register(context.TODO(), ev.ID, uint(i), "card")
		require.NoError(t, err)
		assert.False(t, seen[res.Registration.TicketCode], fmt.Sprintf("duplicate ticket code on attempt %d", i))
		seen[res.Registration.TicketCode] = true
	}
}

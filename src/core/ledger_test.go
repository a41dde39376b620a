package core_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ers/src/core"
	"ers/src/models"
	"ers/src/types"
)

func TestLedgerReserveUntilExhausted(t *testing.T) {
	store := newMemStore()
	ev := store.addEvent(models.Event{Status: types.EVENT_PUBLISHED, Capacity: 2})
	ledger := core.NewCapacityLedger(store)

	for i := 0; i < 2; i++ {
		ok, err := ledger.TryReserve(context.TODO(), ev.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := ledger.TryReserve(context.TODO(), ev.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	available, err := ledger.Available(context.TODO(), ev.ID)
	require.NoError(t, err)
	assert.Zero(t, available)
}

func TestLedgerConcurrentReserve(t *testing.T) {
	store := newMemStore()
	ev := store.addEvent(models.Event{Status: types.EVENT_PUBLISHED, Capacity: 5})
	ledger := core.NewCapacityLedger(store)

	const attempts = 20
	var wg sync.WaitGroup
	results := make([]bool, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := ledger.TryReserve(context.TODO(), ev.ID)
			assert.NoError(t, err)
			results[i] = ok
		}(i)
	}
	wg.Wait()

	granted := 0
	for _, ok := range results {
		if ok {
			granted++
		}
	}
	assert.Equal(t, 5, granted)
	assert.Equal(t, uint(5), store.event(ev.ID).SeatsTaken)
}

package core

import (
	"context"
	"log"
	"time"
)

const sweepBatchSize = 100

// SweepExpired reclaims pending registrations whose payment deadline has
// passed. Each expiry is a compare-and-swap, so sweeping twice (or racing a
// payment confirmation) has the same effect as once.
func (e *Engine) SweepExpired(ctx context.Context) (int, error) {
	expired, err := e.regs.ListExpiredPending(ctx, e.clock.Now(), sweepBatchSize)
	if err != nil {
		return 0, err
	}
	swept := 0
	for i := range expired {
		reg := expired[i]
		if err := e.expire(ctx, &reg); err != nil {
			log.Printf("Failed to expire registration %d: %s\n", reg.ID, err.Error())
			continue
		}
		swept++
	}
	return swept, nil
}

// RunSweeper is the periodic counterpart to the lazy read-time check.
// Without it, capacity on low-traffic events would starve behind abandoned
// payment holds until the next read.
func (e *Engine) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("Expiry sweeper started: checking abandoned registrations every %s\n", interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("Expiry sweeper stopped.")
			return
		case <-ticker.C:
			n, err := e.SweepExpired(ctx)
			if err != nil {
				log.Printf("Error sweeping expired registrations: %s\n", err.Error())
				continue
			}
			if n > 0 {
				log.Printf("Swept %d expired registrations\n", n)
			}
		}
	}
}

package transfer

import (
	"context"
	"time"
)

// Waiter blocks between transfers.
type Waiter interface {
	Wait(ctx context.Context, d time.Duration) error
}

// SleepWaiter blocks for the full duration unless ctx ends first.
type SleepWaiter struct{}

func (SleepWaiter) Wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

const governorKey = "api"

// Governor holds outgoing requests back once the configured rate is reached.
type Governor struct {
	limiter *limiter.Limiter
	poll    time.Duration
}

// NewGovernor allows limit requests per period. A non-positive limit yields nil.
func NewGovernor(limit int64, period time.Duration) *Governor {
	if limit <= 0 || period <= 0 {
		return nil
	}
	rate := limiter.Rate{Period: period, Limit: limit}
	poll := period / 10
	if poll < 10*time.Millisecond {
		poll = 10 * time.Millisecond
	}
	return &Governor{limiter: limiter.New(memory.NewStore(), rate), poll: poll}
}

// Wait blocks until a request may be sent or ctx is done.
func (g *Governor) Wait(ctx context.Context) error {
	if g == nil {
		return nil
	}
	for {
		lctx, err := g.limiter.Get(ctx, governorKey)
		if err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
		if !lctx.Reached {
			return nil
		}
		wait := time.Until(time.Unix(lctx.Reset, 0))
		if wait <= 0 {
			wait = g.poll
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

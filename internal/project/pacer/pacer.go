// Package pacer provides a rate-limited sequential runner for fan-out
// fetches against the remote gateway.
package pacer

import (
	"context"
	"time"
)

// DefaultGap is the spacing applied when none is configured.
const DefaultGap = 150 * time.Millisecond

// Step is one unit of paced work. Step errors do not stop the run.
type Step func(ctx context.Context) error

// Pacer runs steps strictly in order with a fixed gap between them. The
// pacing trades latency for not overwhelming the remote gateway; steps are
// never run concurrently.
type Pacer struct {
	gap   time.Duration
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a pacer with the given inter-step gap. A negative gap falls
// back to DefaultGap; zero disables spacing.
func New(gap time.Duration) *Pacer {
	if gap < 0 {
		gap = DefaultGap
	}
	return &Pacer{
		gap:   gap,
		sleep: sleepContext,
	}
}

// SetSleep replaces the sleep implementation, for tests.
func (p *Pacer) SetSleep(sleep func(ctx context.Context, d time.Duration) error) {
	p.sleep = sleep
}

// Run executes the steps sequentially, waiting the configured gap between
// consecutive steps. Step errors are collected and returned; only context
// cancellation aborts the run early.
func (p *Pacer) Run(ctx context.Context, steps ...Step) []error {
	var errs []error
	for i, step := range steps {
		if i > 0 && p.gap > 0 {
			if err := p.sleep(ctx, p.gap); err != nil {
				errs = append(errs, err)
				return errs
			}
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			return errs
		}
		if err := step(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

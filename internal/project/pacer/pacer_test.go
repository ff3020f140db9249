package pacer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacer_RunsStepsInOrder(t *testing.T) {
	p := New(time.Second)

	var slept []time.Duration
	p.SetSleep(func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	})

	var order []int
	errs := p.Run(context.Background(),
		func(ctx context.Context) error { order = append(order, 1); return nil },
		func(ctx context.Context) error { order = append(order, 2); return nil },
		func(ctx context.Context) error { order = append(order, 3); return nil },
	)

	assert.Empty(t, errs)
	assert.Equal(t, []int{1, 2, 3}, order)
	// No sleep before the first step, one between each consecutive pair.
	assert.Equal(t, []time.Duration{time.Second, time.Second}, slept)
}

func TestPacer_StepErrorsDoNotAbort(t *testing.T) {
	p := New(0)

	boom := errors.New("boom")
	var ran int
	errs := p.Run(context.Background(),
		func(ctx context.Context) error { ran++; return boom },
		func(ctx context.Context) error { ran++; return nil },
		func(ctx context.Context) error { ran++; return boom },
	)

	assert.Equal(t, 3, ran)
	require.Len(t, errs, 2)
	assert.ErrorIs(t, errs[0], boom)
}

func TestPacer_ContextCancelAborts(t *testing.T) {
	p := New(time.Millisecond)
	p.SetSleep(func(ctx context.Context, d time.Duration) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())

	var ran int
	errs := p.Run(ctx,
		func(ctx context.Context) error {
			ran++
			cancel()
			return nil
		},
		func(ctx context.Context) error { ran++; return nil },
	)

	assert.Equal(t, 1, ran)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], context.Canceled)
}

func TestPacer_CancelDuringSleepAborts(t *testing.T) {
	p := New(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran int
	errs := p.Run(ctx,
		func(ctx context.Context) error { ran++; return nil },
		func(ctx context.Context) error { ran++; return nil },
	)

	// The first step runs before any sleep; the gap before the second
	// observes the cancelled context.
	assert.LessOrEqual(t, ran, 1)
	require.NotEmpty(t, errs)
	assert.ErrorIs(t, errs[len(errs)-1], context.Canceled)
}

func TestPacer_NegativeGapFallsBackToDefault(t *testing.T) {
	p := New(-1)
	assert.Equal(t, DefaultGap, p.gap)
}

func TestPacer_NoSteps(t *testing.T) {
	p := New(time.Second)
	assert.Empty(t, p.Run(context.Background()))
}

package game

import (
	"context"
	"time"
)

// Countdown is the pre-session countdown collaborator. Run blocks until the
// countdown completes or ctx is cancelled, invoking tick once per step so a
// renderer can mirror the animation.
type Countdown interface {
	Run(ctx context.Context, tick func(label string)) error
}

// StepCountdown ticks through fixed labels at a fixed cadence.
type StepCountdown struct {
	Labels []string
	Step   time.Duration
}

// NewStepCountdown returns the classic 3-2-1-GO countdown.
func NewStepCountdown(step time.Duration) *StepCountdown {
	if step <= 0 {
		step = 700 * time.Millisecond
	}
	return &StepCountdown{Labels: []string{"3", "2", "1", "GO"}, Step: step}
}

func (c *StepCountdown) Run(ctx context.Context, tick func(label string)) error {
	for _, label := range c.Labels {
		tick(label)
		select {
		case <-time.After(c.Step):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// NopCountdown completes immediately. Used in tests and headless runs.
type NopCountdown struct{}

func (NopCountdown) Run(ctx context.Context, _ func(string)) error {
	return ctx.Err()
}

package core

import (
	"context"
	"time"
)

// Clock returns the seed for the next tick. Production uses wall-clock
// Unix milliseconds.
type Clock func() int64

// WallClock seeds ticks with the current time in Unix milliseconds.
func WallClock() int64 { return time.Now().UnixMilli() }

// StreamRunner synthesizes one event per interval into a controller.
type StreamRunner struct {
	controller *StreamController
	interval   time.Duration
	clock      Clock
}

// NewStreamRunner creates a runner. A nil clock means WallClock.
func NewStreamRunner(controller *StreamController, interval time.Duration, clock Clock) *StreamRunner {
	if clock == nil {
		clock = WallClock
	}
	return &StreamRunner{controller: controller, interval: interval, clock: clock}
}

// Run ticks until ctx is cancelled. Ticks while the stream is paused are
// no-ops. The ticker is always stopped on return.
func (r *StreamRunner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !r.controller.State().Running {
				continue
			}
			r.controller.Dispatch(Tick(r.clock()))
		}
	}
}

package engine

import (
	"context"
	"time"
)

// Clock returns the current monotonic time in milliseconds. It must share
// its timebase with the timestamps of incoming KeyTransitions.
type Clock func() uint64

// MonotonicClock counts milliseconds from its creation.
func MonotonicClock() Clock {
	start := time.Now()
	return func() uint64 {
		return uint64(time.Since(start) / time.Millisecond)
	}
}

// Run owns the engine until ctx is done or events is closed. Every arrived
// batch of transitions is applied in one tick; otherwise a tick runs every
// TickInterval. On return the engine is Reset so no key stays down.
func (e *Engine) Run(ctx context.Context, events <-chan KeyTransition, clock Clock) error {
	if clock == nil {
		clock = MonotonicClock()
	}
	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()
	defer func() {
		e.Reset(clock())
	}()

	e.logger.Info("engine running", "tickInterval", e.cfg.TickInterval, "tappingTerm", e.cfg.TappingTerm)

	var batch []KeyTransition
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			e.Tick(clock(), nil)
		case ev, ok := <-events:
			if !ok {
				e.logger.Info("event source closed")
				return nil
			}
			batch = append(batch[:0], ev)
			closed := false
		drain:
			for {
				select {
				case ev, ok := <-events:
					if !ok {
						closed = true
						break drain
					}
					batch = append(batch, ev)
				default:
					break drain
				}
			}
			e.Tick(clock(), batch)
			if closed {
				e.logger.Info("event source closed")
				return nil
			}
		}
	}
}

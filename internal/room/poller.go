package room

import (
	"context"
	"sync"
	"time"
)

// Poller re-runs a fetch at a fixed interval until the fetch reports done,
// the poller is stopped, or the context ends. Cross-client lobby
// convergence is poll-based, so the handle is explicit: callers own the
// cancellation, tests pick the interval.
type Poller struct {
	interval time.Duration
	fn       func(context.Context) bool // return true when done

	once   sync.Once
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller(interval time.Duration, fn func(context.Context) bool) *Poller {
	return &Poller{
		interval: interval,
		fn:       fn,
		done:     make(chan struct{}),
	}
}

// Start begins polling in a new goroutine. The first fetch runs
// immediately, not one interval in.
func (p *Poller) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	go func() {
		defer close(p.done)
		if p.fn(ctx) {
			return
		}
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if p.fn(ctx) {
					return
				}
			}
		}
	}()
}

// Stop cancels polling. Safe to call more than once, or after the poller
// finished on its own.
func (p *Poller) Stop() {
	p.once.Do(func() {
		if p.cancel != nil {
			p.cancel()
		}
	})
}

// Done closes when the polling goroutine has exited.
func (p *Poller) Done() <-chan struct{} { return p.done }

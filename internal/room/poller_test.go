package room

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestPollerStopsWhenDone(t *testing.T) {
	var calls atomic.Int32
	p := NewPoller(5*time.Millisecond, func(context.Context) bool {
		return calls.Add(1) >= 3
	})
	p.Start(context.Background())

	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatalf("poller never finished")
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("want 3 fetches, got %d", got)
	}
}

func TestPollerStopIsIdempotent(t *testing.T) {
	p := NewPoller(time.Hour, func(context.Context) bool { return false })
	p.Start(context.Background())

	p.Stop()
	p.Stop()

	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatalf("poller did not stop")
	}
}

func TestPollerHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPoller(time.Hour, func(context.Context) bool { return false })
	p.Start(ctx)

	cancel()
	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatalf("poller ignored context cancellation")
	}
}

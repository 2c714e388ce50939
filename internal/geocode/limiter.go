package geocode

import (
	"context"
	"sync"
	"time"
)

// Limiter enforces a minimum interval between outbound geocoding calls
// across every caller in the process. It is a shared serialization point,
// not a per-call sleep: concurrent resolvers queue on the same gate.
//
// The clock and sleep functions are injectable so tests can drive a fake
// clock.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewLimiter(interval time.Duration) *Limiter {
	if interval <= 0 {
		interval = time.Second
	}
	return &Limiter{
		interval: interval,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// NewLimiterWithClock is used by tests to substitute a fake clock.
func NewLimiterWithClock(interval time.Duration, now func() time.Time, sleep func(context.Context, time.Duration) error) *Limiter {
	l := NewLimiter(interval)
	if now != nil {
		l.now = now
	}
	if sleep != nil {
		l.sleep = sleep
	}
	return l
}

// Wait blocks until the caller may issue the next call. Each successful Wait
// claims one slot; the slot is spent even if the caller's request then fails.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	now := l.now()
	wait := l.next.Sub(now)
	if wait < 0 {
		wait = 0
	}
	start := now
	if l.next.After(now) {
		start = l.next
	}
	l.next = start.Add(l.interval)
	l.mu.Unlock()

	if wait > 0 {
		return l.sleep(ctx, wait)
	}
	return ctx.Err()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

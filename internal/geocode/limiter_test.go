package geocode

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeClock advances only when a limiter sleep is requested.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return nil
}

func TestWait_EnforcesMinimumInterval(t *testing.T) {
	clk := newFakeClock()
	l := NewLimiterWithClock(time.Second, clk.Now, clk.Sleep)
	ctx := context.Background()

	start := clk.Now()
	const n = 5
	for range n {
		if err := l.Wait(ctx); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	elapsed := clk.Now().Sub(start)
	if min := (n - 1) * time.Second; elapsed < min {
		t.Fatalf("%d waits advanced clock by %v, want >= %v", n, elapsed, min)
	}
}

func TestWait_FirstCallIsImmediate(t *testing.T) {
	clk := newFakeClock()
	l := NewLimiterWithClock(time.Second, clk.Now, clk.Sleep)

	start := clk.Now()
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if got := clk.Now().Sub(start); got != 0 {
		t.Fatalf("first Wait slept %v, want 0", got)
	}
}

func TestWait_SharedAcrossConcurrentCallers(t *testing.T) {
	clk := newFakeClock()
	l := NewLimiterWithClock(time.Second, clk.Now, clk.Sleep)
	ctx := context.Background()

	start := clk.Now()
	var wg sync.WaitGroup
	const n = 4
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Wait(ctx)
		}()
	}
	wg.Wait()

	// The gate is process wide: four concurrent callers still claim four
	// consecutive slots.
	if elapsed, min := clk.Now().Sub(start), (n-1)*time.Second; elapsed < min {
		t.Fatalf("concurrent waits advanced clock by %v, want >= %v", elapsed, min)
	}
}

func TestWait_CanceledContext(t *testing.T) {
	l := NewLimiter(time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// First slot is free, so grab it, then the second must block and observe
	// cancellation.
	_ = l.Wait(context.Background())
	if err := l.Wait(ctx); err == nil {
		t.Fatalf("expected context error from blocked Wait")
	}
}

// Package retry schedules reconnection attempts.
//
// The IRC client retries forever at a fixed interval: no exponential
// growth, no attempt cap, no jitter.  A sustained outage therefore
// produces one dial every Delay until the process is stopped or the
// caller cancels the pending timer.
package retry

import (
	"sync"
	"time"
)

// Constant is a fixed-delay retry policy.
type Constant struct {
	Delay time.Duration
}

// Next returns the wait before the given 1-based attempt.  It ignores
// the attempt number.
func (c Constant) Next(attempt int) time.Duration {
	if c.Delay < 0 {
		return 0
	}
	return c.Delay
}

// Schedule arranges for fn to run once, Delay from now, on its own
// goroutine.  It never blocks the caller.  The returned Timer can be
// stopped to abandon the attempt.
func (c Constant) Schedule(fn func()) *Timer {
	t := &Timer{}
	t.t = time.AfterFunc(c.Next(1), func() {
		t.mu.Lock()
		if t.stopped {
			t.mu.Unlock()
			return
		}
		t.fired = true
		t.mu.Unlock()
		fn()
	})
	return t
}

// Timer is a pending retry.  Stop is safe to call from any goroutine,
// including concurrently with the timer firing.
type Timer struct {
	t       *time.Timer
	mu      sync.Mutex
	stopped bool
	fired   bool
}

// Stop cancels the retry.  It reports whether the call prevented fn
// from running.  A nil Timer is a no-op.
func (t *Timer) Stop() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	t.t.Stop()
	return true
}

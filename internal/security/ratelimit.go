package security

import (
	"errors"
	"sync"
	"time"
)

// ErrRateLimited is returned by RateLimiter.Do when the call would exceed
// the configured quota.
var ErrRateLimited = errors.New("rate limit exceeded")

// Decision is the outcome of RateLimiter.Allow.
type Decision struct {
	Allowed    bool
	Remaining  int           // calls left in the current window after this one
	RetryAfter time.Duration // zero when Allowed
}

// RateLimiter permits at most max calls within any sliding window. It keeps
// the timestamp of every accepted call in the window; state is private to
// each instance.
type RateLimiter struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	calls  []time.Time
	now    func() time.Time
}

// NewRateLimiter creates a limiter allowing max calls per window.
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		max:    max,
		window: window,
		now:    time.Now,
	}
}

// Allow evicts timestamps older than the window and records the call if the
// quota permits it.
func (l *RateLimiter) Allow() Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.calls[:0]
	for _, ts := range l.calls {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	l.calls = kept

	if len(l.calls) >= l.max {
		return Decision{
			Allowed:    false,
			RetryAfter: l.calls[0].Add(l.window).Sub(now),
		}
	}

	l.calls = append(l.calls, now)
	return Decision{Allowed: true, Remaining: l.max - len(l.calls)}
}

// Do runs fn if the quota allows it, otherwise returns ErrRateLimited
// without calling fn.
func (l *RateLimiter) Do(fn func() error) error {
	if !l.Allow().Allowed {
		return ErrRateLimited
	}
	return fn()
}

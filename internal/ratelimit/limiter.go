// Package ratelimit implements the per-user sliding-window message counter
// feeding the auto-ban gate.
package ratelimit

import (
	"sync"
	"time"
)

// Fallback values when the limiter is constructed with non-positive settings.
const (
	DefaultLimit  = 5
	DefaultWindow = 5 * time.Second
)

// Limiter tracks recent message timestamps per user. State is process memory
// only and best-effort: in a multi-instance deployment each instance counts
// independently, which is an accepted limitation of the design.
type Limiter struct {
	mu      sync.Mutex
	windows map[int64][]time.Time
	limit   int
	window  time.Duration
}

// New constructs a Limiter allowing limit messages inside window. Non-positive
// values fall back to safe defaults.
func New(limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}

	return &Limiter{
		windows: make(map[int64][]time.Time),
		limit:   limit,
		window:  window,
	}
}

// Record appends now to the user's window, prunes entries older than the
// window, and reports the remaining count plus whether it exceeds the limit.
func (l *Limiter) Record(userID int64, now time.Time) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.window)
	kept := l.windows[userID][:0]
	for _, ts := range l.windows[userID] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	kept = append(kept, now)
	l.windows[userID] = kept

	return len(kept), len(kept) > l.limit
}

// Reset drops the user's window, typically after the user has been banned.
func (l *Limiter) Reset(userID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.windows, userID)
}

// Limit returns the configured message limit.
func (l *Limiter) Limit() int {
	return l.limit
}

// Window returns the configured window duration.
func (l *Limiter) Window() time.Duration {
	return l.window
}

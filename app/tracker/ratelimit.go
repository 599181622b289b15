package tracker

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// rateLimitTracker keeps the last X-RateLimit-* state seen and blocks new
// requests while the window is exhausted.
type rateLimitTracker struct {
	mu        sync.Mutex
	remaining int
	reset     time.Time
	known     bool
	now       func() time.Time
}

func newRateLimitTracker(now func() time.Time) *rateLimitTracker {
	return &rateLimitTracker{now: now}
}

func (tracker *rateLimitTracker) update(header http.Header) {
	remaining, err := strconv.Atoi(header.Get("X-RateLimit-Remaining"))
	if err != nil {
		return
	}
	resetUnix, err := strconv.ParseInt(header.Get("X-RateLimit-Reset"), 10, 64)
	if err != nil {
		return
	}

	tracker.mu.Lock()
	defer tracker.mu.Unlock()

	tracker.remaining = remaining
	tracker.reset = time.Unix(resetUnix, 0)
	tracker.known = true
}

func (tracker *rateLimitTracker) wait(ctx context.Context, after func(time.Duration) <-chan time.Time) error {
	tracker.mu.Lock()
	if !tracker.known || tracker.remaining > 0 {
		tracker.mu.Unlock()
		return nil
	}
	sleep := tracker.reset.Sub(tracker.now())
	tracker.mu.Unlock()

	if sleep <= 0 {
		return nil
	}

	select {
	case <-after(sleep):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// retryAfter prefers Retry-After (secondary limits) and falls back to
// X-RateLimit-Reset. Zero means no backoff information.
func (tracker *rateLimitTracker) retryAfter(header http.Header) time.Duration {
	if seconds, err := strconv.Atoi(header.Get("Retry-After")); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	if resetUnix, err := strconv.ParseInt(header.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		if duration := time.Unix(resetUnix, 0).Sub(tracker.now()); duration > 0 {
			return duration
		}
	}

	return 0
}

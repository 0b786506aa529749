// Package fixedwindow implements a fixed-window request counter over a
// storage backend.
//
// The window does not slide: the counter resets entirely once the window
// duration has elapsed since its start. A caller that exhausts a window
// right before the boundary and bursts again right after it can therefore
// admit up to twice the limit within a short span. This is the intended
// semantics, not a bug; do not "fix" it into a sliding-log scheme without
// realizing it changes observable limits.
package fixedwindow

import (
	"context"
	"fmt"
	"time"

	"github.com/classicmodels/throttle/backends"
)

// casRetries bounds the optimistic-concurrency retry loop. Every failed
// attempt implies another writer committed, so the loop cannot livelock.
const casRetries = 30

// Result is the outcome of one consumption attempt.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Counter meters fixed windows for arbitrary keys on a shared backend.
type Counter struct {
	storage backends.Backend
}

// New creates a counter on the given storage backend.
func New(storage backends.Backend) *Counter {
	return &Counter{storage: storage}
}

// Consume records one request against key's current window and reports
// whether it fit under limit. Denials do not mutate state. The state
// read-modify-write runs as a CheckAndSet loop, so concurrent calls for the
// same key serialize: no interleaving can push the count above limit.
func (c *Counter) Consume(ctx context.Context, key string, limit int, windowDur time.Duration, now time.Time) (Result, error) {
	for attempt := range casRetries {
		if ctx.Err() != nil {
			return Result{}, fmt.Errorf("consume %q: %w", key, ctx.Err())
		}

		win, oldValue, err := c.load(ctx, key, windowDur, now)
		if err != nil {
			return Result{}, err
		}

		if win.Count >= limit {
			return Result{Allowed: false, Remaining: 0, ResetAt: win.resetAt()}, nil
		}

		win.Count++
		ok, err := c.storage.CheckAndSet(ctx, key, oldValue, encodeWindow(win), windowDur)
		if err != nil {
			return Result{}, fmt.Errorf("save window for %q: %w", key, err)
		}
		if ok {
			return Result{
				Allowed:   true,
				Remaining: max(limit-win.Count, 0),
				ResetAt:   win.resetAt(),
			}, nil
		}

		// Lost the race; back off briefly and re-read.
		time.Sleep(time.Duration(3*(attempt+1)) * time.Microsecond)
	}
	return Result{}, fmt.Errorf("update window for %q: gave up after %d contended attempts", key, casRetries)
}

// Peek reports the current window state without consuming quota.
func (c *Counter) Peek(ctx context.Context, key string, limit int, windowDur time.Duration, now time.Time) (Result, error) {
	win, _, err := c.load(ctx, key, windowDur, now)
	if err != nil {
		return Result{}, err
	}
	remaining := max(limit-win.Count, 0)
	return Result{
		Allowed:   remaining > 0,
		Remaining: remaining,
		ResetAt:   win.resetAt(),
	}, nil
}

// Reset drops the window state for key.
func (c *Counter) Reset(ctx context.Context, key string) error {
	if err := c.storage.Delete(ctx, key); err != nil {
		return fmt.Errorf("reset window for %q: %w", key, err)
	}
	return nil
}

// load reads key's window, starting a fresh one if the key is absent or the
// stored window has lapsed. oldValue carries what CheckAndSet must match:
// "" when the key is absent, the raw stored value otherwise (including for
// lapsed windows, so a concurrent reset is still detected).
func (c *Counter) load(ctx context.Context, key string, windowDur time.Duration, now time.Time) (window, string, error) {
	data, err := c.storage.Get(ctx, key)
	if err != nil {
		return window{}, "", fmt.Errorf("get window for %q: %w", key, err)
	}

	if data == "" {
		return window{Count: 0, Start: now, Duration: windowDur}, "", nil
	}

	win, ok := decodeWindow(data)
	if !ok {
		return window{}, "", fmt.Errorf("decode window for %q: invalid encoding", key)
	}

	if win.expiredAt(now) {
		return window{Count: 0, Start: now, Duration: windowDur}, data, nil
	}
	return win, data, nil
}

// Package throttle implements a per-principal, per-scope quota ledger with
// fixed-window admission semantics.
//
// An upstream request pipeline resolves a principal (authenticated user id,
// or the caller's address for anonymous traffic) and a policy scope, then
// asks the ledger whether the request fits under the scope's quota. Quota
// exhaustion is an ordinary decision, not an error; callers render it as
// HTTP 429. Ledgers are plain values constructed at startup and passed by
// handle, so tests can run as many independent instances as they like.
package throttle

import (
	"context"
	"fmt"
	"time"

	"github.com/classicmodels/throttle/backends"
	"github.com/classicmodels/throttle/backends/memory"
	"github.com/classicmodels/throttle/clock"
	"github.com/classicmodels/throttle/fixedwindow"
	"github.com/classicmodels/throttle/internal/keybuf"
	"github.com/classicmodels/throttle/policy"
)

// Ledger is the sole authority on how many requests each (principal, scope)
// pair has made in the scope's current window.
type Ledger struct {
	config  Config
	counter *fixedwindow.Counter
}

// New creates a ledger. Without options it meters against the default
// policy table on an in-process backend with the system clock.
func New(opts ...Option) (*Ledger, error) {
	config := Config{
		Prefix: "throttle",
		Table:  policy.Default(),
		Clock:  clock.System,
	}

	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}
	if config.Storage == nil {
		config.Storage = memory.New()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	l := &Ledger{
		config:  config,
		counter: fixedwindow.New(config.Storage),
	}

	if sizer, ok := config.Storage.(backends.Sizer); ok {
		config.Metrics.TrackCounterEntries(sizer.Len)
	}

	return l, nil
}

// Table exposes the ledger's policy table, letting callers inspect a
// scope's rule (limit for headers, keyed-by for principal selection).
func (l *Ledger) Table() *policy.Table {
	return l.config.Table
}

// CheckAndConsume decides whether one request by principal in scope is
// admitted at time now, consuming quota when it is. A zero now means the
// caller's clock is unavailable; the ledger fails closed and denies rather
// than silently admitting unlimited traffic.
func (l *Ledger) CheckAndConsume(ctx context.Context, principal string, scope policy.Scope, now time.Time) (Decision, error) {
	rule, err := l.config.Table.RuleFor(scope)
	if err != nil {
		return Decision{}, err
	}

	if now.IsZero() {
		l.config.Metrics.Decision(string(scope), false)
		return Decision{Allowed: false, Scope: scope, Limit: rule.Limit}, nil
	}

	if err := validateKey(principal, "principal"); err != nil {
		return Decision{}, err
	}

	res, err := l.counter.Consume(ctx, l.key(principal, scope), rule.Limit, rule.Window, now)
	if err != nil {
		return Decision{}, err
	}

	l.config.Metrics.Decision(string(scope), res.Allowed)
	return Decision{
		Allowed:   res.Allowed,
		Scope:     scope,
		Limit:     rule.Limit,
		Remaining: res.Remaining,
		ResetAt:   res.ResetAt,
	}, nil
}

// Allow is CheckAndConsume at the ledger clock's current time.
func (l *Ledger) Allow(ctx context.Context, principal string, scope policy.Scope) (Decision, error) {
	return l.CheckAndConsume(ctx, principal, scope, l.config.Clock.Now())
}

// Peek reports the state a CheckAndConsume call would observe, without
// consuming quota.
func (l *Ledger) Peek(ctx context.Context, principal string, scope policy.Scope, now time.Time) (Decision, error) {
	rule, err := l.config.Table.RuleFor(scope)
	if err != nil {
		return Decision{}, err
	}
	if now.IsZero() {
		return Decision{Allowed: false, Scope: scope, Limit: rule.Limit}, nil
	}
	if err := validateKey(principal, "principal"); err != nil {
		return Decision{}, err
	}

	res, err := l.counter.Peek(ctx, l.key(principal, scope), rule.Limit, rule.Window, now)
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Allowed:   res.Allowed,
		Scope:     scope,
		Limit:     rule.Limit,
		Remaining: res.Remaining,
		ResetAt:   res.ResetAt,
	}, nil
}

// Reset drops the counter for one (principal, scope) pair. Mainly for tests
// and operator tooling.
func (l *Ledger) Reset(ctx context.Context, principal string, scope policy.Scope) error {
	if _, err := l.config.Table.RuleFor(scope); err != nil {
		return err
	}
	if err := validateKey(principal, "principal"); err != nil {
		return err
	}
	return l.counter.Reset(ctx, l.key(principal, scope))
}

// Close releases the storage backend.
func (l *Ledger) Close() error {
	if l.config.Storage != nil {
		return l.config.Storage.Close()
	}
	return nil
}

func (l *Ledger) key(principal string, scope policy.Scope) string {
	return keybuf.Join(l.config.Prefix, string(scope), principal)
}

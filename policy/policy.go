// Package policy defines the throttle scopes and the rules attached to them.
//
// A Table is immutable after construction and total over the scope set:
// NewTable fails if any scope lacks a rule or a rule is malformed, so an
// incomplete table is a startup error, never a per-request one.
package policy

import (
	"errors"
	"fmt"
	"time"
)

// Scope identifies a class of operation metered under its own quota.
type Scope string

const (
	ScopeLogin        Scope = "login"
	ScopeRegister     Scope = "register"
	ScopeTokenRefresh Scope = "token_refresh"
	ScopeLogout       Scope = "logout"
	ScopeCurrentUser  Scope = "current_user"
	ScopeRead         Scope = "read"
	ScopeWrite        Scope = "write"
	ScopeBurst        Scope = "burst"

	// Fallback scopes for requests no explicit route rule claims.
	ScopeAnonymousDefault     Scope = "anonymous_default"
	ScopeAuthenticatedDefault Scope = "authenticated_default"
)

// Scopes returns every scope a complete table must cover.
func Scopes() []Scope {
	return []Scope{
		ScopeLogin,
		ScopeRegister,
		ScopeTokenRefresh,
		ScopeLogout,
		ScopeCurrentUser,
		ScopeRead,
		ScopeWrite,
		ScopeBurst,
		ScopeAnonymousDefault,
		ScopeAuthenticatedDefault,
	}
}

// KeyBy selects which caller identifier a rule's counters are tracked against.
type KeyBy int

const (
	// KeyByPrincipal keys counters by the authenticated user identifier.
	KeyByPrincipal KeyBy = iota

	// KeyByRemoteAddress keys counters by the caller's network address.
	KeyByRemoteAddress
)

func (k KeyBy) String() string {
	switch k {
	case KeyByPrincipal:
		return "principal"
	case KeyByRemoteAddress:
		return "remote_address"
	default:
		return fmt.Sprintf("keyby(%d)", int(k))
	}
}

var (
	// ErrUnknownScope is returned when looking up a scope the table does not know.
	ErrUnknownScope = errors.New("policy: unknown scope")

	// ErrIncompleteTable is returned when a table under construction is
	// missing a rule for a reachable scope.
	ErrIncompleteTable = errors.New("policy: incomplete table")
)

// Rule is the immutable quota configuration for one scope.
type Rule struct {
	Scope   Scope
	Limit   int
	Window  time.Duration
	KeyedBy KeyBy
}

// Validate checks that the rule is well formed.
func (r Rule) Validate() error {
	if r.Scope == "" {
		return fmt.Errorf("policy: rule scope cannot be empty")
	}
	if r.Limit <= 0 {
		return fmt.Errorf("policy: rule for scope %q: limit must be positive, got %d", r.Scope, r.Limit)
	}
	if r.Window <= 0 {
		return fmt.Errorf("policy: rule for scope %q: window must be positive, got %v", r.Scope, r.Window)
	}
	if r.KeyedBy != KeyByPrincipal && r.KeyedBy != KeyByRemoteAddress {
		return fmt.Errorf("policy: rule for scope %q: invalid keyed-by %d", r.Scope, int(r.KeyedBy))
	}
	return nil
}

// Table maps every scope to its rule. Read-only after construction.
type Table struct {
	rules map[Scope]Rule
}

// NewTable builds a table from the given rules. It fails if a rule is
// malformed, a rule duplicates a scope, a rule names a scope outside the
// enumerated set, or any enumerated scope is left without a rule.
func NewTable(rules ...Rule) (*Table, error) {
	known := make(map[Scope]bool, len(Scopes()))
	for _, s := range Scopes() {
		known[s] = true
	}

	m := make(map[Scope]Rule, len(rules))
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if !known[r.Scope] {
			return nil, fmt.Errorf("%w: %q", ErrUnknownScope, r.Scope)
		}
		if _, dup := m[r.Scope]; dup {
			return nil, fmt.Errorf("policy: duplicate rule for scope %q", r.Scope)
		}
		m[r.Scope] = r
	}

	for _, s := range Scopes() {
		if _, ok := m[s]; !ok {
			return nil, fmt.Errorf("%w: no rule for scope %q", ErrIncompleteTable, s)
		}
	}

	return &Table{rules: m}, nil
}

// RuleFor resolves a scope to its rule.
func (t *Table) RuleFor(scope Scope) (Rule, error) {
	r, ok := t.rules[scope]
	if !ok {
		return Rule{}, fmt.Errorf("%w: %q", ErrUnknownScope, scope)
	}
	return r, nil
}

// Rules returns the table's rules in scope enumeration order.
func (t *Table) Rules() []Rule {
	out := make([]Rule, 0, len(t.rules))
	for _, s := range Scopes() {
		if r, ok := t.rules[s]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Default returns the stock policy table:
//
//	login                   5/hour    per remote address
//	register                5/hour    per remote address
//	token_refresh          10/min     per principal
//	logout                 20/min     per principal
//	current_user           60/min     per principal
//	read                  100/min     per principal
//	write                  20/min     per principal
//	burst                 100/min     per principal
//	anonymous_default      20/hour    per remote address
//	authenticated_default 100/min     per principal
func Default() *Table {
	t, err := NewTable(
		Rule{Scope: ScopeLogin, Limit: 5, Window: time.Hour, KeyedBy: KeyByRemoteAddress},
		Rule{Scope: ScopeRegister, Limit: 5, Window: time.Hour, KeyedBy: KeyByRemoteAddress},
		Rule{Scope: ScopeTokenRefresh, Limit: 10, Window: time.Minute, KeyedBy: KeyByPrincipal},
		Rule{Scope: ScopeLogout, Limit: 20, Window: time.Minute, KeyedBy: KeyByPrincipal},
		Rule{Scope: ScopeCurrentUser, Limit: 60, Window: time.Minute, KeyedBy: KeyByPrincipal},
		Rule{Scope: ScopeRead, Limit: 100, Window: time.Minute, KeyedBy: KeyByPrincipal},
		Rule{Scope: ScopeWrite, Limit: 20, Window: time.Minute, KeyedBy: KeyByPrincipal},
		Rule{Scope: ScopeBurst, Limit: 100, Window: time.Minute, KeyedBy: KeyByPrincipal},
		Rule{Scope: ScopeAnonymousDefault, Limit: 20, Window: time.Hour, KeyedBy: KeyByRemoteAddress},
		Rule{Scope: ScopeAuthenticatedDefault, Limit: 100, Window: time.Minute, KeyedBy: KeyByPrincipal},
	)
	if err != nil {
		// The stock table is defined above; failure here is a bug.
		panic(err)
	}
	return t
}

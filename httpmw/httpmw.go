// Package httpmw adapts the quota ledger to net/http. It resolves a scope
// from a static route table, picks the caller identifier the scope's rule
// keys by, and translates the ledger's verdict into rate-limit headers or
// an HTTP 429.
package httpmw

import (
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/classicmodels/throttle"
	"github.com/classicmodels/throttle/clock"
	"github.com/classicmodels/throttle/policy"
)

// PrincipalFunc extracts the authenticated user identifier from a request.
// Returning "" marks the request anonymous. Typically backed by whatever
// JWT or session layer fronts the API.
type PrincipalFunc func(*http.Request) string

// Option configures the middleware.
type Option func(*middleware)

// WithPrincipalFunc supplies the authenticated-identity extractor.
func WithPrincipalFunc(fn PrincipalFunc) Option {
	return func(m *middleware) { m.principal = fn }
}

// WithOnDenied registers a hook invoked for every denied request.
func WithOnDenied(fn func(*http.Request, throttle.Decision)) Option {
	return func(m *middleware) { m.onDenied = fn }
}

// WithClock replaces the time source, mainly for tests.
func WithClock(ts clock.TimeSource) Option {
	return func(m *middleware) { m.clock = ts }
}

type middleware struct {
	ledger    *throttle.Ledger
	routes    []Route
	principal PrincipalFunc
	onDenied  func(*http.Request, throttle.Decision)
	clock     clock.TimeSource
}

// New returns a middleware that meters every request through the ledger
// using the given route table.
func New(ledger *throttle.Ledger, routes []Route, opts ...Option) func(http.Handler) http.Handler {
	m := &middleware{
		ledger: ledger,
		routes: routes,
		clock:  clock.System,
	}
	for _, opt := range opts {
		opt(m)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.serve(next, w, r)
		})
	}
}

func (m *middleware) serve(next http.Handler, w http.ResponseWriter, r *http.Request) {
	user := ""
	if m.principal != nil {
		user = m.principal(r)
	}

	scope := resolveScope(m.routes, r, user != "")
	rule, err := m.ledger.Table().RuleFor(scope)
	if err != nil {
		// Unreachable with a validated table; treat as a server bug.
		http.Error(w, "unknown throttle scope", http.StatusInternalServerError)
		return
	}

	// Auth endpoints key by address even for logged-in callers; resource
	// endpoints key by user identity, falling back to the address for
	// anonymous traffic.
	id := user
	if rule.KeyedBy == policy.KeyByRemoteAddress || id == "" {
		id = clientIP(r)
	}

	now := m.clock.Now()
	decision, err := m.ledger.CheckAndConsume(r.Context(), id, scope, now)
	if err != nil {
		// Counter storage failure. Refusing requests here is the
		// availability-safe choice: a quota bypass helps attackers more
		// than a transient 503 hurts legitimate callers.
		http.Error(w, "throttle storage unavailable", http.StatusServiceUnavailable)
		return
	}

	setRateLimitHeaders(w, decision)

	if !decision.Allowed {
		if m.onDenied != nil {
			m.onDenied(r, decision)
		}
		writeThrottled(w, decision, now)
		return
	}

	next.ServeHTTP(w, r)
}

func setRateLimitHeaders(w http.ResponseWriter, d throttle.Decision) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	if !d.ResetAt.IsZero() {
		h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
	}
}

// clientIP returns the host part of the peer address, or the raw address
// when it carries no port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeThrottled renders the 429 response in the upstream API's wording.
func writeThrottled(w http.ResponseWriter, d throttle.Decision, now time.Time) {
	wait := int(math.Ceil(d.RetryAfter(now).Seconds()))

	w.Header().Set("Retry-After", strconv.Itoa(wait))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	body := map[string]string{
		"detail": fmt.Sprintf("Request was throttled. Expected available in %d seconds.", wait),
	}
	_ = json.NewEncoder(w).Encode(body)
}

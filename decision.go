package throttle

import (
	"time"

	"github.com/classicmodels/throttle/policy"
)

// Decision is the admission verdict for one request, plus the quota
// metadata callers render into rate-limit headers.
type Decision struct {
	Allowed   bool
	Scope     policy.Scope
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns how long the caller should wait from now before the
// quota replenishes. Zero when the window already lapsed or the decision
// carries no reset time.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	if d.ResetAt.IsZero() {
		return 0
	}
	wait := d.ResetAt.Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}

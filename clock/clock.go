// Package clock abstracts the time source used for admission decisions,
// so tests can drive windows deterministically instead of sleeping.
package clock

import (
	"sync"
	"time"
)

// TimeSource provides the current time, or is replaced by a fake in tests.
type TimeSource interface {
	Now() time.Time
}

// System is the default TimeSource backed by the system clock.
var System TimeSource = systemTimeSource{}

type systemTimeSource struct{}

func (systemTimeSource) Now() time.Time {
	return time.Now()
}

// Fake is a TimeSource that reports an arbitrarily settable time. For tests.
type Fake struct {
	mu  sync.RWMutex
	now time.Time
}

// NewFake creates a Fake pinned to t.
func NewFake(t time.Time) *Fake {
	return &Fake{now: t}
}

func (f *Fake) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.now
}

// Set replaces the reported time.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

// Advance moves the reported time forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

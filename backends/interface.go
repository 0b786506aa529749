package backends

import (
	"context"
	"time"
)

// Backend is the storage contract quota counters are kept behind.
// Values are opaque strings; an empty string from Get means the key is
// absent (or expired, which callers must treat the same way).
type Backend interface {
	// Get retrieves a value from storage. Missing keys yield "" with no error.
	Get(ctx context.Context, key string) (string, error)

	// Set stores a value with expiration.
	Set(ctx context.Context, key, value string, expiration time.Duration) error

	// CheckAndSet atomically sets key to newValue only if the current value
	// matches oldValue. oldValue == "" means "only set if the key is absent".
	// Returns true if the set happened.
	CheckAndSet(ctx context.Context, key, oldValue, newValue string, expiration time.Duration) (bool, error)

	// Delete removes a key from storage.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the backend.
	Close() error
}

// Sizer is implemented by backends that can report how many live entries
// they hold. Used to surface counter-cardinality metrics and to verify
// idle eviction in tests.
type Sizer interface {
	Len() int
}

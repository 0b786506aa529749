// Package memory provides the in-process storage backend.
//
// Entries carry a TTL and are reclaimed two ways: lazily, when an expired
// key is read, and by a janitor goroutine that sweeps on a fixed interval.
// The janitor also enforces MaxEntries so a flood of distinct keys (for
// example anonymous addresses) cannot grow the process without bound.
package memory

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultCleanupInterval is the janitor period used by New.
const DefaultCleanupInterval = 10 * time.Minute

// Config controls retention behavior.
type Config struct {
	// MaxEntries caps the number of live entries. Enforced by the janitor,
	// evicting soonest-expiring entries first. 0 means no cap.
	MaxEntries int

	// CleanupInterval is how often the janitor sweeps. 0 disables it.
	CleanupInterval time.Duration
}

type entry struct {
	value     string
	expiresAt time.Time // zero means no expiration
}

// Backend is an in-memory key-value store with per-key locking.
type Backend struct {
	locks      sync.Map // map[string]*sync.Mutex
	values     sync.Map // map[string]entry
	size       atomic.Int64
	maxEntries int

	stop     chan struct{}
	stopOnce sync.Once
}

// New returns a backend with the default janitor interval and no entry cap.
func New() *Backend {
	return NewWithConfig(Config{CleanupInterval: DefaultCleanupInterval})
}

// NewWithConfig returns a backend with explicit retention settings.
func NewWithConfig(cfg Config) *Backend {
	b := &Backend{
		maxEntries: cfg.MaxEntries,
		stop:       make(chan struct{}),
	}
	if cfg.CleanupInterval > 0 {
		go b.janitor(cfg.CleanupInterval)
	}
	return b
}

// lockKey acquires the mutex for key. The janitor may prune lock entries,
// so after locking we verify the map still holds the mutex we took and
// retry if it was replaced underneath us.
func (b *Backend) lockKey(key string) *sync.Mutex {
	for {
		actual, _ := b.locks.LoadOrStore(key, &sync.Mutex{})
		mu := actual.(*sync.Mutex)
		mu.Lock()
		if cur, ok := b.locks.Load(key); ok && cur == actual {
			return mu
		}
		mu.Unlock()
	}
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

func (b *Backend) Get(ctx context.Context, key string) (string, error) {
	mu := b.lockKey(key)
	defer mu.Unlock()

	valAny, exists := b.values.Load(key)
	if !exists {
		return "", nil
	}

	val := valAny.(entry)
	if val.expired(time.Now()) {
		b.deleteLocked(key)
		return "", nil
	}
	return val.value, nil
}

func (b *Backend) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	mu := b.lockKey(key)
	defer mu.Unlock()

	b.storeLocked(key, value, expiration)
	return nil
}

// CheckAndSet atomically sets key to newValue only if the current value
// matches oldValue. oldValue == "" means "only set if the key is absent".
// Expired keys are treated as absent.
func (b *Backend) CheckAndSet(ctx context.Context, key, oldValue, newValue string, expiration time.Duration) (bool, error) {
	mu := b.lockKey(key)
	defer mu.Unlock()

	valAny, exists := b.values.Load(key)
	var val entry
	if exists {
		val = valAny.(entry)
		if val.expired(time.Now()) {
			b.deleteLocked(key)
			exists = false
		}
	}

	if oldValue == "" {
		if exists {
			return false, nil
		}
		b.storeLocked(key, newValue, expiration)
		return true, nil
	}

	if !exists || val.value != oldValue {
		return false, nil
	}

	b.storeLocked(key, newValue, expiration)
	return true, nil
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	mu := b.lockKey(key)
	defer mu.Unlock()

	b.deleteLocked(key)
	return nil
}

// Len reports the number of live entries, including any that expired but
// have not been swept yet.
func (b *Backend) Len() int {
	return int(b.size.Load())
}

// Close stops the janitor and drops all entries.
func (b *Backend) Close() error {
	b.stopOnce.Do(func() { close(b.stop) })
	b.values = sync.Map{}
	b.locks = sync.Map{}
	b.size.Store(0)
	return nil
}

// storeLocked stores under an already-held key lock, keeping the size
// counter consistent. expiration <= 0 means no expiry.
func (b *Backend) storeLocked(key, value string, expiration time.Duration) {
	var expiresAt time.Time
	if expiration > 0 {
		expiresAt = time.Now().Add(expiration)
	}
	if _, existed := b.values.Load(key); !existed {
		b.size.Add(1)
	}
	b.values.Store(key, entry{value: value, expiresAt: expiresAt})
}

func (b *Backend) deleteLocked(key string) {
	if _, existed := b.values.Load(key); existed {
		b.size.Add(-1)
		b.values.Delete(key)
	}
}

func (b *Backend) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			b.sweep(time.Now())
		case <-b.stop:
			return
		}
	}
}

type sweepItem struct {
	key       string
	expiresAt time.Time
}

// sweep removes expired entries, then enforces MaxEntries by evicting the
// soonest-expiring survivors. Lock entries for removed keys are pruned too
// so the lock map stays bounded along with the values.
func (b *Backend) sweep(now time.Time) {
	var items []sweepItem
	b.values.Range(func(k, v any) bool {
		items = append(items, sweepItem{key: k.(string), expiresAt: v.(entry).expiresAt})
		return true
	})

	for _, it := range items {
		if !it.expiresAt.IsZero() && now.After(it.expiresAt) {
			b.evictExpired(it.key, now)
		}
	}

	if b.maxEntries <= 0 || b.Len() <= b.maxEntries {
		return
	}

	var live []sweepItem
	b.values.Range(func(k, v any) bool {
		live = append(live, sweepItem{key: k.(string), expiresAt: v.(entry).expiresAt})
		return true
	})
	sort.Slice(live, func(i, j int) bool {
		// Entries without expiry sort last.
		if live[i].expiresAt.IsZero() {
			return false
		}
		if live[j].expiresAt.IsZero() {
			return true
		}
		return live[i].expiresAt.Before(live[j].expiresAt)
	})
	for i := 0; i < len(live) && b.Len() > b.maxEntries; i++ {
		b.evictAny(live[i].key)
	}
}

// evictExpired removes key if it is still expired when the lock is held.
func (b *Backend) evictExpired(key string, now time.Time) {
	mu := b.lockKey(key)
	defer mu.Unlock()

	valAny, exists := b.values.Load(key)
	if !exists {
		b.locks.Delete(key)
		return
	}
	if valAny.(entry).expired(now) {
		b.deleteLocked(key)
		b.locks.Delete(key)
	}
}

// evictAny removes key regardless of expiry. Used for cap enforcement.
func (b *Backend) evictAny(key string) {
	mu := b.lockKey(key)
	defer mu.Unlock()

	b.deleteLocked(key)
	b.locks.Delete(key)
}

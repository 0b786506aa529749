package throttle

import (
	"fmt"

	"github.com/classicmodels/throttle/backends"
	"github.com/classicmodels/throttle/backends/memory"
	"github.com/classicmodels/throttle/clock"
	"github.com/classicmodels/throttle/metrics"
	"github.com/classicmodels/throttle/policy"
)

// Option is a functional option for configuring the ledger.
type Option func(*Config) error

// WithPrefix sets the storage key namespace.
func WithPrefix(prefix string) Option {
	return func(c *Config) error {
		if err := validateKey(prefix, "prefix"); err != nil {
			return err
		}
		c.Prefix = prefix
		return nil
	}
}

// WithStorage uses an already-constructed storage backend.
func WithStorage(storage backends.Backend) Option {
	return func(c *Config) error {
		if storage == nil {
			return fmt.Errorf("storage backend cannot be nil")
		}
		c.Storage = storage
		return nil
	}
}

// WithBackend creates the storage backend by registry name. The backend's
// package must be imported (for side effects) so it has registered itself.
func WithBackend(name string, config any) Option {
	return func(c *Config) error {
		storage, err := backends.Create(name, config)
		if err != nil {
			return fmt.Errorf("create %q backend: %w", name, err)
		}
		c.Storage = storage
		return nil
	}
}

// WithMemoryStorage uses a bounded in-process backend.
func WithMemoryStorage(cfg memory.Config) Option {
	return func(c *Config) error {
		c.Storage = memory.NewWithConfig(cfg)
		return nil
	}
}

// WithTable replaces the default policy table.
func WithTable(table *policy.Table) Option {
	return func(c *Config) error {
		if table == nil {
			return fmt.Errorf("policy table cannot be nil")
		}
		c.Table = table
		return nil
	}
}

// WithRules builds a policy table from the given rules and uses it.
// The rules must cover every scope.
func WithRules(rules ...policy.Rule) Option {
	return func(c *Config) error {
		table, err := policy.NewTable(rules...)
		if err != nil {
			return err
		}
		c.Table = table
		return nil
	}
}

// WithClock replaces the system clock, mainly for tests.
func WithClock(ts clock.TimeSource) Option {
	return func(c *Config) error {
		if ts == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		c.Clock = ts
		return nil
	}
}

// WithMetrics wires a metrics recorder into the ledger.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(c *Config) error {
		c.Metrics = rec
		return nil
	}
}

package throttle

import (
	"fmt"

	"github.com/classicmodels/throttle/backends"
	"github.com/classicmodels/throttle/clock"
	"github.com/classicmodels/throttle/metrics"
	"github.com/classicmodels/throttle/policy"
)

// Config is the ledger's assembled configuration. Built through functional
// options; validated once, at construction.
type Config struct {
	// Prefix namespaces every storage key, so several ledgers can share
	// one backend.
	Prefix string

	// Storage holds the quota counters.
	Storage backends.Backend

	// Table maps scopes to rules.
	Table *policy.Table

	// Clock is the time source used when the caller does not supply an
	// explicit timestamp.
	Clock clock.TimeSource

	// Metrics records decisions when set. Optional.
	Metrics *metrics.Recorder
}

// Validate checks the configuration is complete and well formed.
func (c Config) Validate() error {
	if err := validateKey(c.Prefix, "prefix"); err != nil {
		return err
	}
	if c.Storage == nil {
		return fmt.Errorf("storage backend cannot be nil")
	}
	if c.Table == nil {
		return fmt.Errorf("policy table cannot be nil")
	}
	if c.Clock == nil {
		return fmt.Errorf("clock cannot be nil")
	}
	return nil
}

package redis

import (
	"fmt"

	"github.com/classicmodels/throttle/backends"
)

// connErrorStrings identifies connectivity-level failures so they surface
// as backends.HealthError rather than plain operational errors. Redis
// command errors like NOSCRIPT or WRONGTYPE are deliberately excluded.
var connErrorStrings = []string{
	"connection refused",
	"connection timeout",
	"connection reset",
	"network is unreachable",
	"no such host",
	"i/o timeout",
	"broken pipe",
	"connection pool exhausted",
}

func newConnectionFailedError(addr string, err error) error {
	return backends.NewHealthError("redis:Ping", fmt.Errorf("connect to %s: %w", addr, err))
}

func newGetFailedError(key string, err error) error {
	return backends.MaybeConnError("redis:Get", fmt.Errorf("get key %q: %w", key, err), connErrorStrings)
}

func newSetFailedError(key string, err error) error {
	return backends.MaybeConnError("redis:Set", fmt.Errorf("set key %q: %w", key, err), connErrorStrings)
}

func newEvalFailedError(key string, err error) error {
	return backends.MaybeConnError("redis:Eval", fmt.Errorf("check-and-set key %q: %w", key, err), connErrorStrings)
}

func newDeleteFailedError(key string, err error) error {
	return backends.MaybeConnError("redis:Del", fmt.Errorf("delete key %q: %w", key, err), connErrorStrings)
}

func newCloseFailedError(err error) error {
	return fmt.Errorf("close redis backend: %w", err)
}

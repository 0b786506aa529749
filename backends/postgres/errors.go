package postgres

import (
	"fmt"

	"github.com/classicmodels/throttle/backends"
)

// connErrorStrings identifies connectivity-level pgx failures so they
// surface as backends.HealthError rather than plain operational errors.
var connErrorStrings = []string{
	"connection refused",
	"connection reset",
	"network is unreachable",
	"no such host",
	"i/o timeout",
	"broken pipe",
	"server closed the connection",
	"pool closed",
}

func newConnectionFailedError(err error) error {
	return backends.NewHealthError("postgres:Ping", err)
}

func newExecFailedError(op, key string, err error) error {
	return backends.MaybeConnError("postgres:"+op, fmt.Errorf("%s key %q: %w", op, key, err), connErrorStrings)
}

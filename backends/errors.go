package backends

import "errors"

var (
	// ErrBackendNotFound is returned when creating a backend with an unknown name.
	ErrBackendNotFound = errors.New("backend not found")

	// ErrInvalidConfig is returned when the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid backend configuration")
)

package backends

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBackend struct{}

func (stubBackend) Get(ctx context.Context, key string) (string, error) { return "", nil }
func (stubBackend) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	return nil
}
func (stubBackend) CheckAndSet(ctx context.Context, key, oldValue, newValue string, expiration time.Duration) (bool, error) {
	return true, nil
}
func (stubBackend) Delete(ctx context.Context, key string) error { return nil }
func (stubBackend) Close() error                                 { return nil }

func TestRegistry_CreateRegistered(t *testing.T) {
	Register("stub", func(config any) (Backend, error) {
		return stubBackend{}, nil
	})

	b, err := Create("stub", nil)
	require.NoError(t, err)
	assert.NotNil(t, b)
	assert.Contains(t, Registered(), "stub")
}

func TestRegistry_CreateUnknown(t *testing.T) {
	_, err := Create("no-such-backend", nil)
	assert.ErrorIs(t, err, ErrBackendNotFound)
}

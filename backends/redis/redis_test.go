package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisTest(t *testing.T) *Backend {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	backend, err := New(Config{Addr: addr})
	if err != nil {
		t.Skipf("Redis not available at %s: %v", addr, err)
	}

	t.Cleanup(func() {
		_ = backend.Client().FlushDB(context.Background())
		_ = backend.Close()
	})
	return backend
}

func TestRedis_GetMissing(t *testing.T) {
	b := setupRedisTest(t)

	val, err := b.Get(t.Context(), "absent")
	require.NoError(t, err)
	assert.Equal(t, "", val)
}

func TestRedis_SetGet(t *testing.T) {
	b := setupRedisTest(t)
	ctx := t.Context()

	require.NoError(t, b.Set(ctx, "k", "v1|1|100|200", time.Minute))

	val, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v1|1|100|200", val)
}

func TestRedis_Expiration(t *testing.T) {
	b := setupRedisTest(t)
	ctx := t.Context()

	require.NoError(t, b.Set(ctx, "ephemeral", "v", 100*time.Millisecond))
	time.Sleep(200 * time.Millisecond)

	val, err := b.Get(ctx, "ephemeral")
	require.NoError(t, err)
	assert.Equal(t, "", val)
}

func TestRedis_CheckAndSet(t *testing.T) {
	b := setupRedisTest(t)
	ctx := t.Context()

	ok, err := b.CheckAndSet(ctx, "cas", "", "first", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.CheckAndSet(ctx, "cas", "", "second", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "set-if-absent must fail on existing key")

	ok, err = b.CheckAndSet(ctx, "cas", "first", "second", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.CheckAndSet(ctx, "cas", "first", "third", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "stale old value must not win")

	val, err := b.Get(ctx, "cas")
	require.NoError(t, err)
	assert.Equal(t, "second", val)
}

func TestRedis_Delete(t *testing.T) {
	b := setupRedisTest(t)
	ctx := t.Context()

	require.NoError(t, b.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, b.Delete(ctx, "k"))

	val, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "", val)
}

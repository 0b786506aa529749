package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSQLiteTest(t *testing.T) *Backend {
	t.Helper()
	b, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestSQLite_GetMissing(t *testing.T) {
	b := setupSQLiteTest(t)

	val, err := b.Get(t.Context(), "absent")
	require.NoError(t, err)
	assert.Equal(t, "", val)
}

func TestSQLite_SetGet(t *testing.T) {
	b := setupSQLiteTest(t)
	ctx := t.Context()

	require.NoError(t, b.Set(ctx, "k", "v1|7|100|200", time.Minute))

	val, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v1|7|100|200", val)
}

func TestSQLite_SetOverwrites(t *testing.T) {
	b := setupSQLiteTest(t)
	ctx := t.Context()

	require.NoError(t, b.Set(ctx, "k", "one", time.Minute))
	require.NoError(t, b.Set(ctx, "k", "two", time.Minute))

	val, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "two", val)
	assert.Equal(t, 1, b.Len())
}

func TestSQLite_Expiration(t *testing.T) {
	b := setupSQLiteTest(t)
	ctx := t.Context()

	require.NoError(t, b.Set(ctx, "ephemeral", "v", 50*time.Millisecond))
	time.Sleep(100 * time.Millisecond)

	val, err := b.Get(ctx, "ephemeral")
	require.NoError(t, err)
	assert.Equal(t, "", val)
	assert.Equal(t, 0, b.Len())
}

func TestSQLite_CheckAndSet(t *testing.T) {
	b := setupSQLiteTest(t)
	ctx := t.Context()

	ok, err := b.CheckAndSet(ctx, "cas", "", "first", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.CheckAndSet(ctx, "cas", "", "second", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "set-if-absent must fail on existing row")

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

func TestSQLite_CheckAndSetExpiredTreatedAbsent(t *testing.T) {
	b := setupSQLiteTest(t)
	ctx := t.Context()

	require.NoError(t, b.Set(ctx, "stale", "old", 50*time.Millisecond))
	time.Sleep(100 * time.Millisecond)

	ok, err := b.CheckAndSet(ctx, "stale", "old", "x", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "expired value must not match")

	ok, err = b.CheckAndSet(ctx, "stale", "", "fresh", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSQLite_Delete(t *testing.T) {
	b := setupSQLiteTest(t)
	ctx := t.Context()

	require.NoError(t, b.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, b.Delete(ctx, "k"))

	val, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "", val)
}

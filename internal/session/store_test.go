package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises the behavior every backend must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("record and check", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.RecordLogin(ctx, "u1", "t1", now.Add(time.Hour)))

		ok, err := s.IsValid(ctx, "u1", "t1")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = s.IsValid(ctx, "u1", "t2")
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = s.IsValid(ctx, "u2", "t1")
		require.NoError(t, err)
		assert.False(t, ok, "tokens are scoped to their principal")
	})

	t.Run("record is idempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.RecordLogin(ctx, "u1", "t1", now.Add(time.Hour)))
		require.NoError(t, s.RecordLogin(ctx, "u1", "t1", now.Add(time.Hour)))

		require.NoError(t, s.RevokeOne(ctx, "u1", "t1"))
		ok, err := s.IsValid(ctx, "u1", "t1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("revoke one keeps other sessions", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.RecordLogin(ctx, "u1", "laptop", now.Add(time.Hour)))
		require.NoError(t, s.RecordLogin(ctx, "u1", "phone", now.Add(time.Hour)))

		require.NoError(t, s.RevokeOne(ctx, "u1", "laptop"))

		ok, err := s.IsValid(ctx, "u1", "laptop")
		require.NoError(t, err)
		assert.False(t, ok)
		ok, err = s.IsValid(ctx, "u1", "phone")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("revoke absent is a no-op", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.RevokeOne(ctx, "nobody", "nothing"))
		require.NoError(t, s.RevokeAll(ctx, "nobody"))
	})

	t.Run("revoke all", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.RecordLogin(ctx, "u1", "a", now.Add(time.Hour)))
		require.NoError(t, s.RecordLogin(ctx, "u1", "b", now.Add(time.Hour)))
		require.NoError(t, s.RecordLogin(ctx, "u2", "c", now.Add(time.Hour)))

		require.NoError(t, s.RevokeAll(ctx, "u1"))

		for _, tok := range []string{"a", "b"} {
			ok, err := s.IsValid(ctx, "u1", tok)
			require.NoError(t, err)
			assert.False(t, ok)
		}
		ok, err := s.IsValid(ctx, "u2", "c")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("prune drops only expired", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.RecordLogin(ctx, "u1", "old", now.Add(-time.Minute)))
		require.NoError(t, s.RecordLogin(ctx, "u1", "edge", now))
		require.NoError(t, s.RecordLogin(ctx, "u1", "fresh", now.Add(time.Hour)))

		n, err := s.Prune(ctx, "u1", now)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		ok, err := s.IsValid(ctx, "u1", "fresh")
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = s.IsValid(ctx, "u1", "edge")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("prune expired sweeps all principals", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.RecordLogin(ctx, "u1", "a", now.Add(-time.Minute)))
		require.NoError(t, s.RecordLogin(ctx, "u2", "b", now.Add(-time.Minute)))
		require.NoError(t, s.RecordLogin(ctx, "u2", "c", now.Add(time.Minute)))

		n, err := s.PruneExpired(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		ok, err := s.IsValid(ctx, "u2", "c")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		return NewMemoryStore()
	})
}

func TestMemoryStore_Count(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	require.NoError(t, s.RecordLogin(ctx, "u1", "a", exp))
	require.NoError(t, s.RecordLogin(ctx, "u1", "b", exp))
	assert.Equal(t, 2, s.Count("u1"))

	require.NoError(t, s.RevokeAll(ctx, "u1"))
	assert.Equal(t, 0, s.Count("u1"))
}

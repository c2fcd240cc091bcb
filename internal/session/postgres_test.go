package session

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return NewPostgresStore(mock), mock
}

func sql(fragment string) string {
	return regexp.QuoteMeta(fragment)
}

func TestPostgresStore_RecordLoginIsIdempotent(t *testing.T) {
	store, mock := newMockStore(t)
	exp := time.Date(2024, 3, 1, 13, 0, 0, 0, time.UTC)

	mock.ExpectExec(sql("INSERT INTO user_tokens (token, user_id, expires_at)")).
		WithArgs("tok-1", "u1", exp).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(sql("ON CONFLICT (token) DO NOTHING")).
		WithArgs("tok-1", "u1", exp).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	require.NoError(t, store.RecordLogin(context.Background(), "u1", "tok-1", exp))
	require.NoError(t, store.RecordLogin(context.Background(), "u1", "tok-1", exp))
}

func TestPostgresStore_IsValidScopesByPrincipal(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(sql("SELECT 1 FROM user_tokens WHERE user_id=$1 AND token=$2")).
		WithArgs("u1", "tok-1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(sql("SELECT 1 FROM user_tokens WHERE user_id=$1 AND token=$2")).
		WithArgs("u2", "tok-1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	ok, err := store.IsValid(context.Background(), "u1", "tok-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.IsValid(context.Background(), "u2", "tok-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPostgresStore_IsValidPropagatesErrors(t *testing.T) {
	store, mock := newMockStore(t)
	boom := errors.New("connection reset")

	mock.ExpectQuery(sql("FROM user_tokens")).WithArgs("u1", "tok-1").WillReturnError(boom)

	ok, err := store.IsValid(context.Background(), "u1", "tok-1")
	assert.ErrorIs(t, err, boom)
	assert.False(t, ok)
}

func TestPostgresStore_RevokeOneRemovesOnlyThatToken(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(sql("DELETE FROM user_tokens WHERE user_id=$1 AND token=$2")).
		WithArgs("u1", "tok-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(sql("DELETE FROM user_tokens WHERE user_id=$1 AND token=$2")).
		WithArgs("u1", "tok-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, store.RevokeOne(context.Background(), "u1", "tok-1"))
	require.NoError(t, store.RevokeOne(context.Background(), "u1", "tok-1"), "revoking an absent token succeeds")
}

func TestPostgresStore_RevokeAll(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(sql("DELETE FROM user_tokens WHERE user_id=$1")).
		WithArgs("u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	require.NoError(t, store.RevokeAll(context.Background(), "u1"))
}

func TestPostgresStore_PruneCountsRemovedRows(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(sql("DELETE FROM user_tokens WHERE user_id=$1 AND expires_at <= $2")).
		WithArgs("u1", now).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(sql("DELETE FROM user_tokens WHERE expires_at <= $1")).
		WithArgs(now).
		WillReturnResult(pgxmock.NewResult("DELETE", 5))

	n, err := store.Prune(context.Background(), "u1", now)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = store.PruneExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestPostgresStore_PruneError(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()
	boom := errors.New("timeout")

	mock.ExpectExec(sql("DELETE FROM user_tokens WHERE expires_at")).WithArgs(now).WillReturnError(boom)

	n, err := store.PruneExpired(context.Background(), now)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, n)
}

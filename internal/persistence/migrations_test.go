package persistence

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"testing/fstest"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/todo-auth/migrations"
)

func TestMigrationNames_SortedSQLOnly(t *testing.T) {
	files := fstest.MapFS{
		"002_b.sql": {Data: []byte("select 2")},
		"001_a.sql": {Data: []byte("select 1")},
		"README.md": {Data: []byte("docs")},
		"sub/x.sql": {Data: []byte("nested")},
	}

	names, err := migrationNames(files)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_a.sql", "002_b.sql"}, names)
}

func TestEmbeddedMigrations(t *testing.T) {
	names, err := migrationNames(migrations.FS)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init.sql", "002_todos.sql"}, names)
}

func TestRunMigrations_NilPoolIsSkipped(t *testing.T) {
	err := RunMigrations(context.Background(), nil, migrations.FS, zap.NewNop())
	assert.NoError(t, err)
}

func TestRunMigrations_AppliesInOrder(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	files := fstest.MapFS{
		"002_todos.sql": {Data: []byte("CREATE TABLE todos ()")},
		"001_init.sql":  {Data: []byte("CREATE TABLE users ()")},
	}
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE users ()")).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE todos ()")).WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, RunMigrations(context.Background(), mock, files, zap.NewNop()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_StopsAtFirstFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	files := fstest.MapFS{
		"001_a.sql": {Data: []byte("SELECT 1")},
		"002_b.sql": {Data: []byte("SELECT 2")},
	}
	boom := errors.New("syntax error")
	mock.ExpectExec("SELECT 1").WillReturnError(boom)

	err = RunMigrations(context.Background(), mock, files, zap.NewNop())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "001_a.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}

package session

import (
	"context"
	"time"

	"github.com/spec-kit/todo-auth/internal/persistence"
)

// PostgresStore persists the allow-list in user_tokens. Rows cascade away
// with their user.
type PostgresStore struct {
	db persistence.DB
}

// NewPostgresStore returns a Postgres-backed store.
func NewPostgresStore(db persistence.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) RecordLogin(ctx context.Context, principalID, token string, expiresAt time.Time) error {
	const query = `
        INSERT INTO user_tokens (token, user_id, expires_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (token) DO NOTHING`

	_, err := p.db.Exec(ctx, query, token, principalID, expiresAt)
	return err
}

func (p *PostgresStore) IsValid(ctx context.Context, principalID, token string) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM user_tokens WHERE user_id=$1 AND token=$2
        )`

	var ok bool
	if err := p.db.QueryRow(ctx, query, principalID, token).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (p *PostgresStore) RevokeOne(ctx context.Context, principalID, token string) error {
	_, err := p.db.Exec(ctx, `DELETE FROM user_tokens WHERE user_id=$1 AND token=$2`, principalID, token)
	return err
}

func (p *PostgresStore) RevokeAll(ctx context.Context, principalID string) error {
	_, err := p.db.Exec(ctx, `DELETE FROM user_tokens WHERE user_id=$1`, principalID)
	return err
}

func (p *PostgresStore) Prune(ctx context.Context, principalID string, now time.Time) (int, error) {
	cmd, err := p.db.Exec(ctx, `DELETE FROM user_tokens WHERE user_id=$1 AND expires_at <= $2`, principalID, now)
	if err != nil {
		return 0, err
	}
	return int(cmd.RowsAffected()), nil
}

func (p *PostgresStore) PruneExpired(ctx context.Context, now time.Time) (int, error) {
	cmd, err := p.db.Exec(ctx, `DELETE FROM user_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return int(cmd.RowsAffected()), nil
}

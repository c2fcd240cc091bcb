package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/todo-auth/internal/config"
)

const pingTimeout = 2 * time.Second

// DB is the query surface the repositories and the token store run on.
// *pgxpool.Pool satisfies it in production and pgxmock pools in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Postgres owns the pgx pool. A zero Postgres (no DSN) is valid and disabled.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects when a DSN is configured. The connection is verified
// up front, retrying up to cfg.ConnectAttempts times.
func NewPostgres(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*Postgres, error) {
	if cfg.DSN == "" {
		logger.Warn("POSTGRES_DSN not provided; skipping database connection")
		return &Postgres{}, nil
	}

	poolCfg, err := buildPoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	attempts := cfg.ConnectAttempts
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 1; ; attempt++ {
		err = ping(ctx, pool)
		if err == nil {
			break
		}
		if attempt >= attempts {
			pool.Close()
			return nil, err
		}
		logger.Warn("postgres not ready; retrying", zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}

	logger.Info("connected to postgres",
		zap.String("database", poolCfg.ConnConfig.Database),
		zap.Int32("max_conns", poolCfg.MaxConns))
	return &Postgres{pool: pool}, nil
}

// buildPoolConfig applies the pool limits and the application name that
// tags this service's connections in pg_stat_activity.
func buildPoolConfig(cfg config.PostgresConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxIdleSec > 0 {
		poolCfg.MaxConnIdleTime = time.Duration(cfg.ConnMaxIdleSec) * time.Second
	}
	if cfg.ConnMaxLifeSec > 0 {
		poolCfg.MaxConnLifetime = time.Duration(cfg.ConnMaxLifeSec) * time.Second
	}
	if cfg.ApplicationName != "" {
		if _, set := poolCfg.ConnConfig.RuntimeParams["application_name"]; !set {
			poolCfg.ConnConfig.RuntimeParams["application_name"] = cfg.ApplicationName
		}
	}
	return poolCfg, nil
}

func ping(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return pool.Ping(ctx)
}

// Enabled reports whether a pool was established.
func (p *Postgres) Enabled() bool {
	return p != nil && p.pool != nil
}

// Ping is the readiness check.
func (p *Postgres) Ping(ctx context.Context) error {
	if !p.Enabled() {
		return errors.New("postgres not configured")
	}
	return ping(ctx, p.pool)
}

// Close releases pool resources.
func (p *Postgres) Close() {
	if p.Enabled() {
		p.pool.Close()
	}
}

// DB returns the pool, or nil when disabled.
func (p *Postgres) DB() DB {
	if !p.Enabled() {
		return nil
	}
	return p.pool
}

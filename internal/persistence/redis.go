package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/todo-auth/internal/config"
)

const readinessKey = "todo-auth:ready"

// Redis holds the client behind the Redis session backend. REDIS_ADDR may
// list several comma-separated nodes to reach a cluster.
type Redis struct {
	client redis.UniversalClient
}

// NewRedis builds the client. An unreachable server is logged, not fatal;
// the readiness endpoint reports it through Ping.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *Redis {
	r := &Redis{client: redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    splitAddrs(cfg.Addr),
		Password: cfg.Password,
		DB:       cfg.DB,
	})}

	if err := r.Ping(ctx); err != nil {
		logger.Warn("redis is not ready for sessions", zap.Error(err))
	} else {
		logger.Info("connected to redis", zap.String("addr", cfg.Addr))
	}
	return r
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

func splitAddrs(addr string) []string {
	var addrs []string
	for _, a := range strings.Split(addr, ",") {
		if a = strings.TrimSpace(a); a != "" {
			addrs = append(addrs, a)
		}
	}
	return addrs
}

// Client returns the underlying client.
func (r *Redis) Client() redis.UniversalClient {
	if r == nil {
		return nil
	}
	return r.client
}

// Ping is the readiness check of the session backend: the node must answer
// and accept writes, which a read-only replica does not.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.client == nil {
		return errors.New("redis client not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return err
	}
	return r.client.Set(ctx, readinessKey, time.Now().Unix(), 10*time.Second).Err()
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.client != nil {
		_ = r.client.Close()
	}
}

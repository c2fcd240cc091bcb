package persistence

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/todo-auth/internal/config"
)

func TestRedis_PingChecksWritable(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewRedis(context.Background(), config.RedisConfig{Addr: mr.Addr()}, zap.NewNop())
	defer r.Close()

	require.NoError(t, r.Ping(context.Background()))
	assert.True(t, mr.Exists(readinessKey))
	assert.Positive(t, mr.TTL(readinessKey))
}

func TestRedis_PingFailsWhenDown(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer r.Close()

	mr.Close()
	assert.Error(t, r.Ping(context.Background()))
}

func TestRedis_NilIsNotConfigured(t *testing.T) {
	var r *Redis
	assert.Error(t, r.Ping(context.Background()))
	assert.Nil(t, r.Client())
	r.Close()
}

func TestSplitAddrs(t *testing.T) {
	assert.Equal(t, []string{"a:6379", "b:6379"}, splitAddrs(" a:6379, ,b:6379 "))
	assert.Nil(t, splitAddrs(""))
}

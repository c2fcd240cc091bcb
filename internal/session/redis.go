package session

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "session:tokens:"

// RedisStore keeps one sorted set per principal; members are tokens and
// scores are expiry unix seconds, so pruning is a range delete.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore wraps an existing go-redis client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, prefix: redisKeyPrefix}
}

func (r *RedisStore) key(principalID string) string {
	return r.prefix + principalID
}

func (r *RedisStore) RecordLogin(ctx context.Context, principalID, token string, expiresAt time.Time) error {
	return r.client.ZAdd(ctx, r.key(principalID), redis.Z{
		Score:  float64(expiresAt.Unix()),
		Member: token,
	}).Err()
}

func (r *RedisStore) IsValid(ctx context.Context, principalID, token string) (bool, error) {
	err := r.client.ZScore(ctx, r.key(principalID), token).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *RedisStore) RevokeOne(ctx context.Context, principalID, token string) error {
	return r.client.ZRem(ctx, r.key(principalID), token).Err()
}

func (r *RedisStore) RevokeAll(ctx context.Context, principalID string) error {
	return r.client.Del(ctx, r.key(principalID)).Err()
}

func (r *RedisStore) Prune(ctx context.Context, principalID string, now time.Time) (int, error) {
	return r.pruneKey(ctx, r.key(principalID), now)
}

func (r *RedisStore) PruneExpired(ctx context.Context, now time.Time) (int, error) {
	total := 0
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n, err := r.pruneKey(ctx, iter.Val(), now)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, iter.Err()
}

// pruneKey removes members whose expiry is <= now.
func (r *RedisStore) pruneKey(ctx context.Context, key string, now time.Time) (int, error) {
	removed, err := r.client.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(now.Unix(), 10)).Result()
	if err != nil {
		return 0, err
	}
	return int(removed), nil
}

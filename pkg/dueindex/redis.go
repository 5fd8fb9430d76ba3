package dueindex

import (
	"context"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// claimScript removes and returns every member due at or before the given
// timestamp in a single atomic eval, so concurrent pollers across processes
// cannot double-claim an item.
var claimScript = redis.NewScript(`
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
if #ids > 0 then
  redis.call('ZREM', KEYS[1], unpack(ids))
end
return ids
`)

// RedisIndex is a due index backed by a redis sorted set scored by due
// timestamp (unix milliseconds).
type RedisIndex struct {
	client redis.UniversalClient
	key    string
}

// NewRedisIndex connects to redis and returns an index over the given key.
func NewRedisIndex(ctx context.Context, opts *redis.Options, key string) (*RedisIndex, error) {
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisIndex{client: client, key: key}, nil
}

// NewRedisIndexFromURL parses a redis:// URL and returns an index over the
// given key.
func NewRedisIndexFromURL(ctx context.Context, url, key string) (*RedisIndex, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	return NewRedisIndex(ctx, opts, key)
}

func (r *RedisIndex) Insert(ctx context.Context, itemID string, dueAt time.Time) error {
	return r.client.ZAdd(ctx, r.key, redis.Z{
		Score:  float64(dueAt.UnixMilli()),
		Member: itemID,
	}).Err()
}

func (r *RedisIndex) ClaimDue(ctx context.Context, now time.Time) ([]string, error) {
	result, err := claimScript.Run(ctx, r.client, []string{r.key},
		strconv.FormatInt(now.UnixMilli(), 10)).Result()
	if err != nil {
		return nil, fmt.Errorf("claim script failed: %w", err)
	}

	raw, ok := result.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected claim result type %T", result)
	}

	ids := make([]string, 0, len(raw))

	for _, item := range raw {
		if id, ok := item.(string); ok {
			ids = append(ids, id)
		}
	}

	return ids, nil
}

func (r *RedisIndex) Remove(ctx context.Context, itemID string) error {
	return r.client.ZRem(ctx, r.key, itemID).Err()
}

func (r *RedisIndex) Close() error {
	return r.client.Close()
}

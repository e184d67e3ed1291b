package pending

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	expo "dezeto/expo-push-dispatch"
)

// HashClient is the subset of redis commands the store uses.
// *redis.Client satisfies it.
type HashClient interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RedisStore keeps all pending entries in one hash. Every Save pushes the
// hash expiry forward by ttl.
type RedisStore struct {
	rdb HashClient
	key string
	ttl time.Duration
}

func NewRedisStore(rdb HashClient, key string, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, key: key, ttl: ttl}
}

// NewRedisClient connects and pings, failing fast on a bad address.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

func (s *RedisStore) Save(ctx context.Context, entries map[string]expo.Token) error {
	if len(entries) == 0 {
		return nil
	}
	values := make(map[string]interface{}, len(entries))
	for id, tkn := range entries {
		values[id] = string(tkn)
	}
	if err := s.rdb.HSet(ctx, s.key, values).Err(); err != nil {
		return fmt.Errorf("save pending receipts: %w", err)
	}
	if s.ttl > 0 {
		if err := s.rdb.Expire(ctx, s.key, s.ttl).Err(); err != nil {
			return fmt.Errorf("expire pending receipts: %w", err)
		}
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context) (map[string]expo.Token, error) {
	raw, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("load pending receipts: %w", err)
	}
	out := make(map[string]expo.Token, len(raw))
	for id, tkn := range raw {
		out[id] = expo.Token(tkn)
	}
	return out, nil
}

func (s *RedisStore) Remove(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.rdb.HDel(ctx, s.key, ids...).Err(); err != nil {
		return fmt.Errorf("remove pending receipts: %w", err)
	}
	return nil
}

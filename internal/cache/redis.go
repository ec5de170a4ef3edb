package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 100

// RedisStore is a Store backed by Redis
type RedisStore struct {
	client redis.UniversalClient
}

// RedisOptions configures NewRedisStore
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStore connects to a single Redis server. The connection is pooled
// and shared by all callers; Close releases it.
func NewRedisStore(opts RedisOptions) *RedisStore {
	return &RedisStore{client: redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})}
}

// NewRedisStoreFromClient wraps an existing client
func NewRedisStoreFromClient(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// Ping checks connectivity
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// Keys lists keys with prefix using SCAN so large keyspaces do not block the server
func (r *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, escapeGlob(prefix)+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *RedisStore) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

// Close closes the underlying client
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// escapeGlob escapes Redis MATCH metacharacters
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

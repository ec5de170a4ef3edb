package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dshills/docground/internal/logger"
)

// purgeInterval is how many writes pass between sweeps of expired rows
const purgeInterval = 128

// cacheTable is the subset of storage.Storage that persists cache rows
type cacheTable interface {
	CacheGet(ctx context.Context, key string) ([]byte, bool, error)
	CacheSet(ctx context.Context, key string, value []byte, ttl time.Duration) error
	CacheKeys(ctx context.Context, prefix string) ([]string, error)
	CacheDelete(ctx context.Context, keys ...string) error
	PurgeExpiredCache(ctx context.Context) (int64, error)
}

// SQLiteStore keeps cache entries in the index database's search_cache
// table, so cached results survive restarts without a Redis server.
// Expired rows are hidden from reads and deleted in a sweep on the first
// write and every purgeInterval writes after that.
type SQLiteStore struct {
	table      cacheTable
	writes     atomic.Int64
	purgeEvery int64
}

// NewSQLiteStore wraps the cache methods of a storage backend
func NewSQLiteStore(table cacheTable) *SQLiteStore {
	return &SQLiteStore{table: table, purgeEvery: purgeInterval}
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.table.CacheGet(ctx, key)
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.table.CacheSet(ctx, key, value, ttl); err != nil {
		return err
	}
	if n := s.writes.Add(1); n == 1 || n%s.purgeEvery == 0 {
		s.purge(ctx)
	}
	return nil
}

// purge deletes expired rows. A failed sweep is retried on the next interval.
func (s *SQLiteStore) purge(ctx context.Context) {
	n, err := s.table.PurgeExpiredCache(ctx)
	if err != nil {
		logger.Warn("cache purge failed: %v", err)
		return
	}
	if n > 0 {
		logger.Debug("cache purged expired=%d", n)
	}
}

func (s *SQLiteStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	return s.table.CacheKeys(ctx, prefix)
}

func (s *SQLiteStore) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.table.CacheDelete(ctx, keys...)
}

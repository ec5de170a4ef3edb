package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dshills/docground/internal/logger"
	"github.com/dshills/docground/pkg/types"
)

const (
	// DefaultTTL is how long search results stay cached
	DefaultTTL = 60 * time.Second
	// DefaultOpTimeout bounds each store operation
	DefaultOpTimeout = 250 * time.Millisecond

	keyPrefix   = "search:"
	globalScope = "global"
)

// Store is a key-value backend with per-entry expiry. Implementations must
// be safe for concurrent use; expired entries must not be returned by Get.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Del(ctx context.Context, keys ...string) error
}

// Error describes a failed store operation. ResultCache logs these and never returns them.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("cache %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ResultCache caches retrieval results per normalized query and scope.
// Every failure degrades to a miss or a no-op, and a ResultCache without a
// store does nothing at all.
type ResultCache struct {
	store     Store
	ttl       time.Duration
	opTimeout time.Duration
}

// Option configures a ResultCache
type Option func(*ResultCache)

// WithTTL sets the default entry lifetime
func WithTTL(ttl time.Duration) Option {
	return func(c *ResultCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithOpTimeout sets the deadline applied to each store call
func WithOpTimeout(d time.Duration) Option {
	return func(c *ResultCache) {
		if d > 0 {
			c.opTimeout = d
		}
	}
}

// New creates a ResultCache over store. A nil store disables caching.
func New(store Store, opts ...Option) *ResultCache {
	c := &ResultCache{
		store:     store,
		ttl:       DefaultTTL,
		opTimeout: DefaultOpTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether a store is configured
func (c *ResultCache) Enabled() bool {
	return c != nil && c.store != nil
}

// TTL returns the default entry lifetime
func (c *ResultCache) TTL() time.Duration {
	return c.ttl
}

// NormalizeQuery lowercases, trims and collapses whitespace runs to one space
func NormalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// ScopePrefix returns the key prefix shared by all entries of scope. Scope
// names are escaped so no scope's prefix is a prefix of another's and a
// tenant literally named "global" stays apart from the global partition.
func ScopePrefix(scope string) string {
	if scope == "" {
		return keyPrefix + globalScope + ":"
	}
	return keyPrefix + escapeScope(scope) + ":"
}

var scopeEscaper = strings.NewReplacer("%", "%25", ":", "%3A")

func escapeScope(scope string) string {
	if scope == globalScope {
		return "%67lobal"
	}
	return scopeEscaper.Replace(scope)
}

// Key derives the cache key for a query within scope
func Key(query, scope string) string {
	return ScopePrefix(scope) + NormalizeQuery(query)
}

// Get returns cached results. Any store error, timeout or undecodable value is a miss.
func (c *ResultCache) Get(ctx context.Context, query, scope string) ([]types.RetrievalResult, bool) {
	if !c.Enabled() {
		return nil, false
	}

	key := Key(query, scope)
	timer := logger.Start("cache_get")

	opCtx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	data, ok, err := c.store.Get(opCtx, key)
	if err != nil {
		timer.Fail(&Error{Op: "get", Key: key, Err: err}, "")
		return nil, false
	}
	if !ok {
		timer.End(fmt.Sprintf("hit=false key=%q", key))
		return nil, false
	}

	var results []types.RetrievalResult
	if err := json.Unmarshal(data, &results); err != nil {
		timer.Fail(&Error{Op: "decode", Key: key, Err: err}, "")
		return nil, false
	}

	timer.End(fmt.Sprintf("hit=true key=%q", key))
	return results, true
}

// Put stores results under the query key. ttl <= 0 uses the default TTL.
// Errors are logged and dropped.
func (c *ResultCache) Put(ctx context.Context, query, scope string, results []types.RetrievalResult, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	if ttl <= 0 {
		ttl = c.ttl
	}

	key := Key(query, scope)
	timer := logger.Start("cache_set")

	data, err := json.Marshal(results)
	if err != nil {
		timer.Fail(&Error{Op: "encode", Key: key, Err: err}, "")
		return
	}

	opCtx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	if err := c.store.Set(opCtx, key, data, ttl); err != nil {
		timer.Fail(&Error{Op: "set", Key: key, Err: err}, "")
		return
	}
	timer.End(fmt.Sprintf("key=%q ttl_s=%d", key, int(ttl.Seconds())))
}

// InvalidateScope removes every entry of scope and returns how many keys were
// deleted. Failures are logged; entries left behind still expire by TTL.
func (c *ResultCache) InvalidateScope(ctx context.Context, scope string) int {
	if !c.Enabled() {
		return 0
	}

	prefix := ScopePrefix(scope)
	opCtx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	keys, err := c.store.Keys(opCtx, prefix)
	if err != nil {
		logger.Error("%v", &Error{Op: "keys", Key: prefix + "*", Err: err})
		return 0
	}
	if len(keys) == 0 {
		return 0
	}

	if err := c.store.Del(opCtx, keys...); err != nil {
		logger.Error("%v", &Error{Op: "del", Key: prefix + "*", Err: err})
		return 0
	}

	logger.Info("scope cache invalidated scope=%q keys_deleted=%d", scope, len(keys))
	return len(keys)
}

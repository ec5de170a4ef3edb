package cache

import (
	"bytes"
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/dshills/docground/internal/logger"
	"github.com/dshills/docground/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sample = []types.RetrievalResult{
	{ID: "doc-1", Title: "Brannrutiner", Content: "Ved brann ...", SourceLink: "https://example.com/1", Score: 0.9},
	{ID: "doc-2", Title: "Rømningsveier", Content: "Nærmeste utgang ...", Score: 0.8},
}

func TestKey(t *testing.T) {
	tests := []struct {
		query string
		scope string
		want  string
	}{
		{"Fire  Safety", "", "search:global:fire safety"},
		{"  fire safety\n", "", "search:global:fire safety"},
		{"FIRE\tSAFETY", "org-1", "search:org-1:fire safety"},
		{"brann", "org-2", "search:org-2:brann"},
		{"brann", "a:b", "search:a%3Ab:brann"},
		{"brann", "50%", "search:50%25:brann"},
		{"brann", "global", "search:%67lobal:brann"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Key(tt.query, tt.scope))
		})
	}
}

func TestResultCache_CaseAndWhitespaceShareEntry(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore(10))

	c.Put(ctx, "Fire  Safety", "", sample, 0)

	got, ok := c.Get(ctx, "fire safety", "")
	require.True(t, ok)
	assert.Equal(t, sample, got)
}

func TestResultCache_ScopesAreSeparate(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore(10))

	c.Put(ctx, "brann", "org-1", sample, 0)

	_, ok := c.Get(ctx, "brann", "org-2")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "brann", "")
	assert.False(t, ok)
}

func TestResultCache_InvalidateScope(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore(10))

	c.Put(ctx, "brann", "org-1", sample, 0)
	c.Put(ctx, "ferie", "org-1", sample, 0)
	c.Put(ctx, "brann", "org-10", sample, 0)
	c.Put(ctx, "brann", "", sample, 0)

	assert.Equal(t, 2, c.InvalidateScope(ctx, "org-1"))

	_, ok := c.Get(ctx, "brann", "org-1")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "ferie", "org-1")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "brann", "org-10")
	assert.True(t, ok, "org-10 shares a textual prefix but not the scope")
	_, ok = c.Get(ctx, "brann", "")
	assert.True(t, ok)

	assert.Equal(t, 0, c.InvalidateScope(ctx, "org-1"))
}

func TestResultCache_NilStoreIsNoop(t *testing.T) {
	ctx := context.Background()
	c := New(nil)

	assert.False(t, c.Enabled())
	c.Put(ctx, "brann", "", sample, time.Minute)
	_, ok := c.Get(ctx, "brann", "")
	assert.False(t, ok)
	assert.Equal(t, 0, c.InvalidateScope(ctx, ""))

	var nilCache *ResultCache
	assert.False(t, nilCache.Enabled())
	_, ok = nilCache.Get(ctx, "brann", "")
	assert.False(t, ok)
	nilCache.Put(ctx, "brann", "", sample, 0)
	assert.Equal(t, 0, nilCache.InvalidateScope(ctx, "x"))
}

func TestResultCache_Options(t *testing.T) {
	c := New(NewMemoryStore(1), WithTTL(5*time.Minute), WithOpTimeout(time.Second))
	assert.Equal(t, 5*time.Minute, c.TTL())
	assert.Equal(t, time.Second, c.opTimeout)

	d := New(NewMemoryStore(1), WithTTL(-1), WithOpTimeout(0))
	assert.Equal(t, DefaultTTL, d.TTL())
	assert.Equal(t, DefaultOpTimeout, d.opTimeout)
}

// failingStore fails every operation and records calls
type failingStore struct {
	mu    sync.Mutex
	calls []string
}

var errBackend = errors.New("backend unavailable")

func (f *failingStore) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
}

func (f *failingStore) Get(context.Context, string) ([]byte, bool, error) {
	f.record("get")
	return nil, false, errBackend
}

func (f *failingStore) Set(context.Context, string, []byte, time.Duration) error {
	f.record("set")
	return errBackend
}

func (f *failingStore) Keys(context.Context, string) ([]string, error) {
	f.record("keys")
	return nil, errBackend
}

func (f *failingStore) Del(context.Context, ...string) error {
	f.record("del")
	return errBackend
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })
	return &buf
}

func TestResultCache_BackendErrorsAreSwallowed(t *testing.T) {
	buf := captureLog(t)
	ctx := context.Background()
	store := &failingStore{}
	c := New(store)

	_, ok := c.Get(ctx, "brann", "")
	assert.False(t, ok)

	assert.NotPanics(t, func() { c.Put(ctx, "brann", "", sample, 0) })
	assert.Equal(t, 0, c.InvalidateScope(ctx, "org-1"))

	assert.Equal(t, []string{"get", "set", "keys"}, store.calls)
	assert.Contains(t, buf.String(), "backend unavailable")
}

// slowStore blocks until the operation deadline
type slowStore struct{}

func (slowStore) Get(ctx context.Context, _ string) ([]byte, bool, error) {
	<-ctx.Done()
	return nil, false, ctx.Err()
}

func (slowStore) Set(ctx context.Context, _ string, _ []byte, _ time.Duration) error {
	<-ctx.Done()
	return ctx.Err()
}

func (slowStore) Keys(ctx context.Context, _ string) ([]string, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (slowStore) Del(ctx context.Context, _ ...string) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestResultCache_TimeoutDegradesToMiss(t *testing.T) {
	captureLog(t)
	c := New(slowStore{}, WithOpTimeout(20*time.Millisecond))

	start := time.Now()
	_, ok := c.Get(context.Background(), "brann", "")
	c.Put(context.Background(), "brann", "", sample, 0)

	assert.False(t, ok)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestResultCache_UndecodableValueIsMiss(t *testing.T) {
	captureLog(t)
	ctx := context.Background()
	store := NewMemoryStore(10)
	require.NoError(t, store.Set(ctx, Key("brann", ""), []byte("not json"), time.Minute))

	_, ok := New(store).Get(ctx, "brann", "")
	assert.False(t, ok)
}

func TestError(t *testing.T) {
	err := error(&Error{Op: "get", Key: "search:global:x", Err: errBackend})
	assert.ErrorIs(t, err, errBackend)
	assert.Equal(t, `cache get "search:global:x": backend unavailable`, err.Error())
}

func TestInvalidateScope_NestedScopeNames(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore(100))

	c.Put(ctx, "brann", "a", sample, 0)
	c.Put(ctx, "brann", "a:b", sample, 0)
	c.Put(ctx, "brann", "global", sample, 0)
	c.Put(ctx, "brann", "", sample, 0)

	assert.Equal(t, 1, c.InvalidateScope(ctx, "a"))
	_, ok := c.Get(ctx, "brann", "a:b")
	assert.True(t, ok)

	assert.Equal(t, 1, c.InvalidateScope(ctx, ""))
	_, ok = c.Get(ctx, "brann", "global")
	assert.True(t, ok)
}

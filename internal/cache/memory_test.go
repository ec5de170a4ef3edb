package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemoryStore(10)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "search:global:a", []byte("1"), time.Minute))

	v, ok, err := m.Get(ctx, "search:global:a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), v)

	now = now.Add(time.Minute)
	_, ok, err = m.Get(ctx, "search:global:a")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestMemoryStore_KeysSkipsExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemoryStore(10)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "search:org:a", []byte("1"), time.Second))
	require.NoError(t, m.Set(ctx, "search:org:b", []byte("2"), time.Hour))
	require.NoError(t, m.Set(ctx, "search:other:c", []byte("3"), time.Hour))

	now = now.Add(2 * time.Second)
	keys, err := m.Keys(ctx, "search:org:")
	require.NoError(t, err)
	assert.Equal(t, []string{"search:org:b"}, keys)

	require.NoError(t, m.Del(ctx, keys...))
	_, ok, _ := m.Get(ctx, "search:org:b")
	assert.False(t, ok)
}

func TestMemoryStore_ValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(10)
	value := []byte("abc")

	require.NoError(t, m.Set(ctx, "k", value, time.Minute))
	value[0] = 'x'

	got, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), got)
}

func TestMemoryStore_Eviction(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(2)

	require.NoError(t, m.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, m.Set(ctx, "b", []byte("2"), time.Minute))
	require.NoError(t, m.Set(ctx, "c", []byte("3"), time.Minute))

	_, ok, _ := m.Get(ctx, "a")
	assert.False(t, ok)
	assert.Equal(t, 2, m.Len())
}

package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemorySize is the entry capacity of a MemoryStore
const DefaultMemorySize = 1000

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is an in-process Store with LRU eviction and per-entry expiry
type MemoryStore struct {
	mu    sync.Mutex
	cache *lru.Cache[string, memoryEntry]
	now   func() time.Time
}

// NewMemoryStore creates a MemoryStore holding at most size entries
func NewMemoryStore(size int) *MemoryStore {
	if size <= 0 {
		size = DefaultMemorySize
	}
	c, err := lru.New[string, memoryEntry](size)
	if err != nil {
		c, _ = lru.New[string, memoryEntry](DefaultMemorySize)
	}
	return &MemoryStore{cache: c, now: time.Now}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(entry.expiresAt) {
		m.cache.Remove(key)
		return nil, false, nil
	}

	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, true, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Add(key, memoryEntry{value: stored, expiresAt: m.now().Add(ttl)})
	return nil
}

func (m *MemoryStore) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var keys []string
	for _, key := range m.cache.Keys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if entry, ok := m.cache.Peek(key); ok && now.Before(entry.expiresAt) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (m *MemoryStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		m.cache.Remove(key)
	}
	return nil
}

// Len returns the number of entries, including expired ones not yet evicted
func (m *MemoryStore) Len() int {
	return m.cache.Len()
}

package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MaxInputChars is the longest input, in characters, sent to a provider.
// Longer inputs are truncated silently; the tail does not contribute to the vector.
const MaxInputChars = 8000

// Common errors
var (
	ErrEmptyInput          = errors.New("embedding input cannot be empty")
	ErrProviderFailed      = errors.New("embedding provider failed")
	ErrUnsupportedProvider = errors.New("unsupported embedding provider")
	ErrNoProviderEnabled   = errors.New("no embedding provider configured")
	ErrDimensionMismatch   = errors.New("embedding dimensions differ")
)

// ProviderError wraps a failure reported by, or while talking to, an embedding provider
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("embedding provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrProviderFailed) match any provider error
func (e *ProviderError) Is(target error) bool {
	return target == ErrProviderFailed
}

// Embedding represents a vector embedding with metadata
type Embedding struct {
	Vector    []float32
	Dimension int
	Provider  string
	Model     string
	Hash      string // hash of the submitted (truncated) text
}

// Embedder generates embeddings. Implementations are safe for concurrent use.
type Embedder interface {
	// Embed embeds a single text. Blank text returns ErrEmptyInput.
	Embed(ctx context.Context, text string) (*Embedding, error)

	// EmbedBatch embeds texts in one provider round trip. The result has one
	// embedding per input, in input order. An empty slice returns an empty
	// result without calling the provider; empty members are embedded as-is.
	EmbedBatch(ctx context.Context, texts []string) ([]*Embedding, error)

	// Dimension returns the embedding dimension for this provider
	Dimension() int

	// Provider returns the provider name
	Provider() string

	// Model returns the model name
	Model() string

	// Close releases any resources held by the embedder
	Close() error
}

// Cache provides in-memory LRU caching of embeddings by content hash
type Cache struct {
	cache *lru.Cache[string, *Embedding]
}

// NewCache creates a new embedding cache with LRU eviction
func NewCache(maxLen int) *Cache {
	if maxLen <= 0 {
		maxLen = 10000
	}
	cache, err := lru.New[string, *Embedding](maxLen)
	if err != nil {
		cache, _ = lru.New[string, *Embedding](10000)
	}
	return &Cache{
		cache: cache,
	}
}

// Get retrieves a deep copy of an embedding from cache
func (c *Cache) Get(hash string) (*Embedding, bool) {
	emb, ok := c.cache.Get(hash)
	if !ok {
		return nil, false
	}
	return emb.clone(), true
}

// Set stores a copy of an embedding in cache
func (c *Cache) Set(hash string, emb *Embedding) {
	c.cache.Add(hash, emb.clone())
}

// Size returns the current cache size
func (c *Cache) Size() int {
	return c.cache.Len()
}

// Clear empties the cache
func (c *Cache) Clear() {
	c.cache.Purge()
}

func (e *Embedding) clone() *Embedding {
	vectorCopy := make([]float32, len(e.Vector))
	copy(vectorCopy, e.Vector)
	return &Embedding{
		Vector:    vectorCopy,
		Dimension: e.Dimension,
		Provider:  e.Provider,
		Model:     e.Model,
		Hash:      e.Hash,
	}
}

// ComputeHash computes SHA-256 hash of text for caching
func ComputeHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// Truncate cuts text to MaxInputChars characters
func Truncate(text string) string {
	if len(text) <= MaxInputChars {
		return text
	}
	runes := []rune(text)
	if len(runes) <= MaxInputChars {
		return text
	}
	return string(runes[:MaxInputChars])
}

// ValidateInput rejects blank single-form input
func ValidateInput(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyInput
	}
	return nil
}

// embedOne runs the single form on top of a batch implementation
func embedOne(ctx context.Context, e Embedder, text string) (*Embedding, error) {
	if err := ValidateInput(text); err != nil {
		return nil, err
	}

	embeddings, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) != 1 {
		return nil, &ProviderError{Provider: e.Provider(), Err: fmt.Errorf("expected 1 embedding, got %d", len(embeddings))}
	}
	return embeddings[0], nil
}

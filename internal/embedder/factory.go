package embedder

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds embedder configuration
type Config struct {
	Provider          string // jina, openai, local, or empty to auto-detect
	APIKey            string
	Model             string
	BaseURL           string
	CacheSize         int
	RequestsPerSecond float64
	Timeout           time.Duration

	// FallbackProvider, if set, is used when the primary provider fails
	FallbackProvider string
	FallbackAPIKey   string
}

// New creates an embedder with explicit configuration
func New(cfg Config) (Embedder, error) {
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	provider := strings.ToLower(cfg.Provider)
	if provider == "" || provider == "auto" {
		provider = DetectProvider()
	}

	primary, err := newProvider(provider, ProviderOptions{
		APIKey:            cfg.APIKey,
		Model:             cfg.Model,
		BaseURL:           cfg.BaseURL,
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Cache:             cache,
	})
	if err != nil {
		return nil, err
	}

	if cfg.FallbackProvider == "" {
		return primary, nil
	}

	secondary, err := newProvider(strings.ToLower(cfg.FallbackProvider), ProviderOptions{
		APIKey:            cfg.FallbackAPIKey,
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})
	if err != nil {
		_ = primary.Close()
		return nil, fmt.Errorf("fallback provider: %w", err)
	}

	fb, err := NewFallback(primary, secondary)
	if err != nil {
		_ = primary.Close()
		_ = secondary.Close()
		return nil, err
	}
	return fb, nil
}

func newProvider(name string, opts ProviderOptions) (Embedder, error) {
	switch name {
	case ProviderJina:
		return NewJinaProvider(opts)
	case ProviderOpenAI:
		return NewOpenAIProvider(opts)
	case ProviderLocal:
		return NewLocalProvider(opts.Cache), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, name)
	}
}

// DetectProvider returns the provider that would be used based on current environment
// Priority:
// 1. DOCGROUND_EMBEDDING_PROVIDER (jina, openai, local)
// 2. OPENAI_API_KEY, then JINA_API_KEY
// 3. local
func DetectProvider() string {
	if provider := os.Getenv(EnvProvider); provider != "" {
		return strings.ToLower(provider)
	}

	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return ProviderOpenAI
	}
	if os.Getenv(EnvJinaAPIKey) != "" {
		return ProviderJina
	}

	return ProviderLocal
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dshills/docground/internal/cache"
	"github.com/dshills/docground/internal/config"
	"github.com/dshills/docground/internal/embedder"
	"github.com/dshills/docground/internal/indexer"
	"github.com/dshills/docground/internal/logger"
	"github.com/dshills/docground/internal/retriever"
	"github.com/dshills/docground/internal/storage"
	"github.com/dshills/docground/internal/vectorsearch"
)

// app holds the components shared by every command. Each client is built once
// and injected into the indexer, the retriever and the MCP server.
type app struct {
	storage   *storage.SQLiteStorage
	embedder  embedder.Embedder
	cache     *cache.ResultCache
	indexer   *indexer.Indexer
	retriever *retriever.Retriever

	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config) (a *app, err error) {
	a = &app{}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	a.storage, err = storage.NewSQLiteStorage(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.closers = append(a.closers, a.storage.Close)

	a.embedder, err = embedder.New(embedder.Config{
		Provider:          cfg.Embedding.Provider,
		APIKey:            cfg.Embedding.APIKey,
		Model:             cfg.Embedding.Model,
		BaseURL:           cfg.Embedding.BaseURL,
		CacheSize:         cfg.Embedding.CacheSize,
		RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
		Timeout:           cfg.Embedding.Timeout,
		FallbackProvider:  cfg.Embedding.FallbackProvider,
		FallbackAPIKey:    cfg.Embedding.FallbackAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	a.closers = append(a.closers, a.embedder.Close)

	store, err := a.cacheStore(cfg.Cache)
	if err != nil {
		return nil, err
	}
	a.cache = cache.New(store, cache.WithTTL(cfg.Cache.TTL), cache.WithOpTimeout(cfg.Cache.OpTimeout))

	provider, err := a.searchProvider(ctx, cfg.Search)
	if err != nil {
		return nil, err
	}

	opts := []retriever.Option{
		retriever.WithCache(a.cache),
		retriever.WithCacheTTL(cfg.Cache.TTL),
		retriever.WithSource(retriever.NewStorageSource(a.storage)),
	}
	if provider != nil {
		opts = append(opts, retriever.WithProvider(provider))
	}
	a.retriever = retriever.New(opts...)

	a.indexer = indexer.New(a.storage, a.embedder, a.cache, &indexer.Config{
		Workers:      cfg.Indexer.Workers,
		ChunkSize:    cfg.Chunk.Size,
		ChunkOverlap: cfg.Chunk.Overlap,
		EmbedRetries: cfg.Indexer.EmbedRetries,
	})

	logger.Debug("app ready db=%s embedder=%s/%s cache=%s search=%s",
		cfg.DBPath, a.embedder.Provider(), a.embedder.Model(), cfg.Cache.Backend, cfg.Search.Provider)
	return a, nil
}

// cacheStore returns nil for the "none" backend, which disables caching
func (a *app) cacheStore(cfg config.CacheConfig) (cache.Store, error) {
	switch cfg.Backend {
	case config.CacheNone:
		return nil, nil
	case config.CacheMemory:
		return cache.NewMemoryStore(cfg.Size), nil
	case config.CacheSQLite:
		return cache.NewSQLiteStore(a.storage), nil
	case config.CacheRedis:
		rs := cache.NewRedisStore(cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		a.closers = append(a.closers, rs.Close)
		return rs, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

func (a *app) searchProvider(ctx context.Context, cfg config.SearchConfig) (vectorsearch.Provider, error) {
	switch cfg.Provider {
	case config.SearchNone:
		return nil, nil
	case config.SearchLocal:
		return vectorsearch.NewLocal(a.embedder, a.storage, vectorsearch.WithMinRelevance(cfg.MinRelevance)), nil
	case config.SearchDiscovery:
		d, err := vectorsearch.NewDiscovery(ctx, vectorsearch.DiscoveryConfig{
			ProjectID:       cfg.ProjectID,
			Location:        cfg.Location,
			EngineID:        cfg.EngineID,
			DataStoreID:     cfg.DataStoreID,
			CredentialsJSON: cfg.CredentialsJSON,
			Endpoint:        cfg.Endpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize discovery search: %w", err)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unknown search provider %q", cfg.Provider)
	}
}

// Close releases clients in reverse construction order
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

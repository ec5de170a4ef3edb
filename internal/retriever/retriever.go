package retriever

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dshills/docground/internal/cache"
	"github.com/dshills/docground/internal/keywords"
	"github.com/dshills/docground/internal/logger"
	"github.com/dshills/docground/internal/storage"
	"github.com/dshills/docground/internal/vectorsearch"
	"github.com/dshills/docground/pkg/types"
)

const (
	// DefaultLimit is the number of results returned when a request sets none
	DefaultLimit = 5
	// MaxLimit caps the number of results per request
	MaxLimit = 50
)

// ErrEmptyQuery is returned for blank queries
var ErrEmptyQuery = errors.New("query is required")

// Request is one retrieval query
type Request struct {
	Query string
	Scope string
	Limit int
}

// DocumentSource lists the documents visible in a scope for keyword fallback
type DocumentSource interface {
	ListDocuments(ctx context.Context, scope string) ([]types.Document, error)
}

// Retriever answers queries from the cache, the vector provider or the
// keyword ranker, in that order. All dependencies are optional: without a
// cache every lookup misses, without a provider every query goes to keyword
// fallback, without a source the fallback is empty.
type Retriever struct {
	cache    *cache.ResultCache
	provider vectorsearch.Provider
	source   DocumentSource
	ttl      time.Duration
}

// Option configures a Retriever
type Option func(*Retriever)

// WithCache sets the result cache
func WithCache(c *cache.ResultCache) Option {
	return func(r *Retriever) {
		r.cache = c
	}
}

// WithProvider sets the vector search provider
func WithProvider(p vectorsearch.Provider) Option {
	return func(r *Retriever) {
		r.provider = p
	}
}

// WithSource sets the document source used for keyword fallback
func WithSource(s DocumentSource) Option {
	return func(r *Retriever) {
		r.source = s
	}
}

// WithCacheTTL overrides the cache's default TTL for search results
func WithCacheTTL(ttl time.Duration) Option {
	return func(r *Retriever) {
		r.ttl = ttl
	}
}

// New creates a Retriever
func New(opts ...Option) *Retriever {
	r := &Retriever{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Search runs the retrieval state machine for req. The only error returned
// is ErrEmptyQuery; provider and cache failures degrade to fallback paths.
func (r *Retriever) Search(ctx context.Context, req Request) (*types.Bundle, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	limit := clampLimit(req.Limit)

	timer := logger.Start("retrieve")
	bundle := &types.Bundle{Query: query, Scope: req.Scope}

	if results, ok := r.cache.Get(ctx, query, req.Scope); ok {
		bundle.Results = truncate(results, limit)
		bundle.Source = types.SourceCache
		r.logDone(timer, bundle)
		return bundle, nil
	}

	if results, ok := r.searchProvider(ctx, query, req.Scope, limit); ok {
		r.cache.Put(ctx, query, req.Scope, results, r.ttl)
		bundle.Results = results
		bundle.Source = types.SourceVector
		r.logDone(timer, bundle)
		return bundle, nil
	}

	bundle.Results = r.keywordFallback(ctx, query, req.Scope, limit)
	bundle.Source = types.SourceKeyword
	if len(bundle.Results) == 0 {
		bundle.Source = types.SourceNone
	}
	r.logDone(timer, bundle)
	return bundle, nil
}

// searchProvider returns the provider's results, or false when the provider
// is missing, fails or finds nothing
func (r *Retriever) searchProvider(ctx context.Context, query, scope string, limit int) ([]types.RetrievalResult, bool) {
	if r.provider == nil {
		return nil, false
	}

	timer := logger.Start("vector_search")
	results, err := r.provider.Search(ctx, vectorsearch.Query{Text: query, Scope: scope, PageSize: limit})
	if err != nil {
		timer.Fail(err, fmt.Sprintf("provider=%s", r.provider.Name()))
		return nil, false
	}

	results = truncate(dedupe(results), limit)
	timer.End(fmt.Sprintf("provider=%s results=%d", r.provider.Name(), len(results)))
	return results, len(results) > 0
}

// keywordFallback ranks the scope's documents lexically. Source errors yield no results.
func (r *Retriever) keywordFallback(ctx context.Context, query, scope string, limit int) []types.RetrievalResult {
	if r.source == nil {
		return []types.RetrievalResult{}
	}

	timer := logger.Start("keyword_fallback")
	docs, err := r.source.ListDocuments(ctx, scope)
	if err != nil {
		timer.Fail(err, fmt.Sprintf("scope=%q", scope))
		return []types.RetrievalResult{}
	}

	ranked := keywords.Rank(query, docs, limit)
	results := make([]types.RetrievalResult, 0, len(ranked))
	for i := range ranked {
		results = append(results, ranked[i].Document.Result(ranked[i].Score))
	}
	results = dedupe(results)

	timer.End(fmt.Sprintf("documents=%d results=%d", len(docs), len(results)))
	return results
}

func (r *Retriever) logDone(timer *logger.Timer, b *types.Bundle) {
	timer.End(fmt.Sprintf("source=%s results=%d scope=%q", b.Source, len(b.Results), b.Scope))
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// dedupe keeps the first occurrence of every ID and orders by descending
// score. Equal scores keep their input order.
func dedupe(results []types.RetrievalResult) []types.RetrievalResult {
	seen := make(map[string]bool, len(results))
	out := make([]types.RetrievalResult, 0, len(results))
	for _, res := range results {
		if seen[res.ID] {
			continue
		}
		seen[res.ID] = true
		out = append(out, res)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

func truncate(results []types.RetrievalResult, limit int) []types.RetrievalResult {
	if len(results) > limit {
		return results[:limit]
	}
	return results
}

// StorageSource adapts a storage backend to DocumentSource
type StorageSource struct {
	lister documentLister
}

type documentLister interface {
	ListDocuments(ctx context.Context, scope string) ([]*storage.Document, error)
}

// NewStorageSource wraps lister
func NewStorageSource(lister documentLister) *StorageSource {
	return &StorageSource{lister: lister}
}

func (s *StorageSource) ListDocuments(ctx context.Context, scope string) ([]types.Document, error) {
	docs, err := s.lister.ListDocuments(ctx, scope)
	if err != nil {
		return nil, err
	}
	out := make([]types.Document, len(docs))
	for i, d := range docs {
		out[i] = d.ToTypesDocument()
	}
	return out, nil
}

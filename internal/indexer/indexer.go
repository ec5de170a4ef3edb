package indexer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/docground/internal/cache"
	"github.com/dshills/docground/internal/chunker"
	"github.com/dshills/docground/internal/embedder"
	"github.com/dshills/docground/internal/keywords"
	"github.com/dshills/docground/internal/logger"
	"github.com/dshills/docground/internal/storage"
	"github.com/dshills/docground/pkg/types"
)

// ErrIndexInProgress is returned when a batch run is already active
var ErrIndexInProgress = errors.New("indexing already in progress")

// Indexer coordinates the indexing pipeline: chunk -> embed -> store -> invalidate
type Indexer struct {
	chunker  *chunker.Chunker
	embedder embedder.Embedder
	storage  storage.Storage
	cache    *cache.ResultCache

	// Worker pool configuration
	workers int

	retry *embedder.RetryConfig
	lock  IndexLock
}

// Config contains configuration for the indexer
type Config struct {
	Workers      int // Number of concurrent documents (default: runtime.NumCPU())
	ChunkSize    int // Target chunk size in characters (default: chunker.DefaultChunkSize)
	ChunkOverlap int // Overlap between chunks (default: chunker.DefaultOverlap)
	EmbedRetries int // Attempts per embedding call; 0 or 1 disables retry
}

// Result describes the outcome of indexing one document
type Result struct {
	DocumentID string
	Scope      string
	Chunks     int
	Skipped    bool // content and embedding model unchanged
}

// Statistics contains statistics about a batch run
type Statistics struct {
	DocumentsIndexed int
	DocumentsSkipped int
	DocumentsFailed  int
	ChunksCreated    int
	Duration         time.Duration
	ErrorMessages    []string
}

// New creates a new Indexer. The result cache is optional.
func New(store storage.Storage, emb embedder.Embedder, resultCache *cache.ResultCache, config *Config) *Indexer {
	if config == nil {
		config = &Config{}
	}

	workers := config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	idx := &Indexer{
		chunker:  chunker.New(config.ChunkSize, config.ChunkOverlap),
		embedder: emb,
		storage:  store,
		cache:    resultCache,
		workers:  workers,
	}

	if config.EmbedRetries > 1 {
		rc := embedder.DefaultRetryConfig()
		rc.MaxRetries = config.EmbedRetries
		idx.retry = &rc
	}

	return idx
}

// IndexDocument chunks, embeds and stores one document. Nothing is written
// unless every embedding succeeds; a failed re-index leaves the previous
// version searchable. A missing ID is generated.
func (idx *Indexer) IndexDocument(ctx context.Context, doc types.Document) (*Result, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid document %s: %w", doc.ID, err)
	}
	doc.ComputeContentHash()

	timer := logger.Start("index_document")
	result := &Result{DocumentID: doc.ID, Scope: doc.Scope}

	existing, err := idx.storage.GetDocument(ctx, doc.ID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		timer.Fail(err, fmt.Sprintf("id=%s", doc.ID))
		return nil, fmt.Errorf("failed to load document %s: %w", doc.ID, err)
	}
	if existing != nil && idx.unchanged(existing, doc) {
		result.Skipped = true
		timer.End(fmt.Sprintf("id=%s skipped=true", doc.ID))
		return result, nil
	}

	if len(doc.Keywords) == 0 {
		doc.Keywords = keywords.DocumentKeywords(doc.Title, doc.Content)
	}

	textChunks := idx.chunker.Chunk(doc.Content)
	inputs := chunker.PrepareForEmbedding(doc.Title, textChunks)
	inputs = append(inputs, chunker.PrepareDocument(doc.Title, doc.Content))

	// One batch carries every chunk plus the whole document, which comes last
	embeddings, err := idx.embed(ctx, inputs)
	if err != nil {
		timer.Fail(err, fmt.Sprintf("id=%s chunks=%d", doc.ID, len(textChunks)))
		return nil, fmt.Errorf("failed to embed document %s: %w", doc.ID, err)
	}

	record := storage.FromTypesDocument(doc)
	record.IndexedAt = time.Now()
	docEmbedding := embeddings[len(embeddings)-1]
	record.Embedding = storage.NewEmbedding(docEmbedding.Vector, docEmbedding.Provider, docEmbedding.Model)

	chunks := make([]*storage.Chunk, len(textChunks))
	for i, tc := range textChunks {
		emb := embeddings[i]
		chunks[i] = &storage.Chunk{
			Index:       tc.Index,
			Content:     tc.Content,
			ContentHash: tc.ContentHash(),
			StartOffset: tc.StartOffset,
			EndOffset:   tc.EndOffset,
			TokenCount:  chunker.EstimateTokenCount(tc.Content),
			Embedding:   storage.NewEmbedding(emb.Vector, emb.Provider, emb.Model),
		}
	}

	if err := idx.store(ctx, record, chunks); err != nil {
		timer.Fail(err, fmt.Sprintf("id=%s", doc.ID))
		return nil, err
	}

	scopes := []string{doc.Scope}
	if existing != nil && existing.Scope != doc.Scope {
		scopes = append(scopes, existing.Scope)
	}
	idx.invalidate(ctx, scopes...)

	result.Chunks = len(chunks)
	timer.End(fmt.Sprintf("id=%s scope=%q chunks=%d", doc.ID, doc.Scope, len(chunks)))
	return result, nil
}

// unchanged reports whether the stored document already matches doc and was
// embedded by the current model
func (idx *Indexer) unchanged(existing *storage.Document, doc types.Document) bool {
	if existing.ContentHash != doc.ContentHash || existing.Scope != doc.Scope || existing.SourceLink != doc.SourceLink {
		return false
	}
	if existing.Embedding == nil {
		return false
	}
	return embeddedBy(idx.embedder, existing.Embedding)
}

// embeddedBy reports whether e was produced by emb or, for a fallback pair,
// by either of its members
func embeddedBy(emb embedder.Embedder, e *storage.Embedding) bool {
	if group, ok := emb.(interface{ Members() []embedder.Embedder }); ok {
		for _, member := range group.Members() {
			if embeddedBy(member, e) {
				return true
			}
		}
		return false
	}
	return e.Provider == emb.Provider() && e.Model == emb.Model()
}

func (idx *Indexer) embed(ctx context.Context, inputs []string) ([]*embedder.Embedding, error) {
	call := func() ([]*embedder.Embedding, error) {
		return idx.embedder.EmbedBatch(ctx, inputs)
	}
	if idx.retry == nil {
		return call()
	}
	return embedder.Retry(ctx, *idx.retry, call)
}

// store writes the document row and swaps its chunks in one transaction
func (idx *Indexer) store(ctx context.Context, doc *storage.Document, chunks []*storage.Chunk) error {
	tx, err := idx.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.UpsertDocument(ctx, doc); err != nil {
		return fmt.Errorf("failed to store document %s: %w", doc.ID, err)
	}
	if err := tx.ReplaceChunks(ctx, doc.ID, chunks); err != nil {
		return fmt.Errorf("failed to store chunks for %s: %w", doc.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// IndexDocuments indexes docs concurrently. Per-document failures are counted
// and reported in the statistics; only cancellation or a concurrent run
// returns an error.
func (idx *Indexer) IndexDocuments(ctx context.Context, docs []types.Document) (*Statistics, error) {
	if !idx.lock.TryAcquire() {
		return nil, ErrIndexInProgress
	}
	defer idx.lock.Release()

	startTime := time.Now()
	stats := &Statistics{ErrorMessages: make([]string, 0)}

	var (
		indexed int32
		skipped int32
		failed  int32
		chunks  int32
		mu      sync.Mutex // Protect stats.ErrorMessages
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.workers)

	for i := range docs {
		doc := docs[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			res, err := idx.IndexDocument(gctx, doc)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				atomic.AddInt32(&failed, 1)
				mu.Lock()
				stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", doc.ID, err))
				mu.Unlock()
				// Continue with other documents
				return nil
			}

			if res.Skipped {
				atomic.AddInt32(&skipped, 1)
				return nil
			}
			atomic.AddInt32(&indexed, 1)
			atomic.AddInt32(&chunks, int32(res.Chunks))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.DocumentsIndexed = int(indexed)
	stats.DocumentsSkipped = int(skipped)
	stats.DocumentsFailed = int(failed)
	stats.ChunksCreated = int(chunks)
	stats.Duration = time.Since(startTime)

	logger.Info("batch indexed documents=%d skipped=%d failed=%d chunks=%d duration_ms=%d",
		stats.DocumentsIndexed, stats.DocumentsSkipped, stats.DocumentsFailed, stats.ChunksCreated,
		stats.Duration.Milliseconds())
	return stats, nil
}

// DeleteDocument removes a document and its chunks, then invalidates its scope
func (idx *Indexer) DeleteDocument(ctx context.Context, id string) error {
	existing, err := idx.storage.GetDocument(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load document %s: %w", id, err)
	}

	if err := idx.storage.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}

	idx.invalidate(ctx, existing.Scope)
	logger.Info("document deleted id=%s scope=%q", id, existing.Scope)
	return nil
}

// invalidate drops cached results for each scope. Global searches span every
// scope, so the global partition is dropped with any scoped change.
func (idx *Indexer) invalidate(ctx context.Context, scopes ...string) {
	global := false
	for _, scope := range scopes {
		if scope == "" {
			global = true
		}
		idx.cache.InvalidateScope(ctx, scope)
	}
	if !global {
		idx.cache.InvalidateScope(ctx, "")
	}
}

// Workers returns the configured concurrency
func (idx *Indexer) Workers() int {
	return idx.workers
}

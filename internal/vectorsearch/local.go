package vectorsearch

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dshills/docground/internal/embedder"
	"github.com/dshills/docground/internal/storage"
	"github.com/dshills/docground/pkg/types"
)

const (
	// ProviderLocal identifies the sqlite-backed provider
	ProviderLocal = "local"

	// chunk hits are over-fetched so several chunks of one document still
	// leave room for other documents
	chunkOverfetch = 4
)

// vectorIndex is the subset of storage.Storage the local provider reads
type vectorIndex interface {
	SearchVector(ctx context.Context, scope string, vector []float32, limit int, filters *storage.SearchFilters) ([]storage.VectorResult, error)
	SearchDocumentVector(ctx context.Context, scope string, vector []float32, limit int, filters *storage.SearchFilters) ([]storage.VectorResult, error)
	GetDocument(ctx context.Context, id string) (*storage.Document, error)
	GetChunk(ctx context.Context, chunkID int64) (*storage.Chunk, error)
}

// Local embeds the query and ranks stored embeddings by cosine similarity.
// Each document appears once, represented by its best matching chunk or, when
// the whole-document vector matches better, by the document itself.
type Local struct {
	embedder     embedder.Embedder
	index        vectorIndex
	minRelevance float64
}

// LocalOption configures a Local provider
type LocalOption func(*Local)

// WithMinRelevance drops hits whose similarity is below threshold
func WithMinRelevance(threshold float64) LocalOption {
	return func(l *Local) {
		l.minRelevance = threshold
	}
}

// NewLocal creates a provider over index using emb for queries
func NewLocal(emb embedder.Embedder, index vectorIndex, opts ...LocalOption) *Local {
	l := &Local{embedder: emb, index: index}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Local) Name() string {
	return ProviderLocal
}

type localHit struct {
	documentID string
	chunkID    int64
	score      float64
}

// Search returns up to q.PageSize documents ordered by similarity
func (l *Local) Search(ctx context.Context, q Query) ([]types.RetrievalResult, error) {
	limit := pageSize(q)

	emb, err := l.embedder.Embed(ctx, q.Text)
	if err != nil {
		return nil, &Error{Provider: ProviderLocal, Err: fmt.Errorf("embed query: %w", err)}
	}

	var filters *storage.SearchFilters
	if l.minRelevance > 0 {
		filters = &storage.SearchFilters{MinRelevance: l.minRelevance}
	}

	chunkHits, err := l.index.SearchVector(ctx, q.Scope, emb.Vector, limit*chunkOverfetch, filters)
	if err != nil {
		return nil, &Error{Provider: ProviderLocal, Err: err}
	}
	docHits, err := l.index.SearchDocumentVector(ctx, q.Scope, emb.Vector, limit, filters)
	if err != nil {
		return nil, &Error{Provider: ProviderLocal, Err: err}
	}

	hits := bestPerDocument(chunkHits, docHits)
	if len(hits) > limit {
		hits = hits[:limit]
	}

	results := make([]types.RetrievalResult, 0, len(hits))
	for _, hit := range hits {
		result, err := l.resolve(ctx, hit)
		if errors.Is(err, storage.ErrNotFound) {
			// Deleted between search and lookup
			continue
		}
		if err != nil {
			return nil, &Error{Provider: ProviderLocal, Err: err}
		}
		results = append(results, result)
	}
	return results, nil
}

// bestPerDocument keeps the highest scoring hit of each document, sorted by
// score. Ties keep chunk hits ahead of document hits.
func bestPerDocument(chunkHits, docHits []storage.VectorResult) []localHit {
	best := make(map[string]localHit)
	var order []string
	for _, set := range [][]storage.VectorResult{chunkHits, docHits} {
		for _, h := range set {
			current, seen := best[h.DocumentID]
			if !seen {
				order = append(order, h.DocumentID)
			}
			if !seen || h.SimilarityScore > current.score {
				best[h.DocumentID] = localHit{documentID: h.DocumentID, chunkID: h.ChunkID, score: h.SimilarityScore}
			}
		}
	}

	hits := make([]localHit, 0, len(order))
	for _, id := range order {
		hits = append(hits, best[id])
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})
	return hits
}

func (l *Local) resolve(ctx context.Context, hit localHit) (types.RetrievalResult, error) {
	doc, err := l.index.GetDocument(ctx, hit.documentID)
	if err != nil {
		return types.RetrievalResult{}, err
	}

	content := doc.Content
	if hit.chunkID != 0 {
		chunk, err := l.index.GetChunk(ctx, hit.chunkID)
		if err != nil {
			return types.RetrievalResult{}, err
		}
		content = chunk.Content
	}

	return types.RetrievalResult{
		ID:         doc.ID,
		Title:      doc.Title,
		Content:    content,
		SourceLink: doc.SourceLink,
		Score:      clampScore(hit.score),
	}, nil
}

// clampScore keeps cosine similarity inside the result score range
func clampScore(s float64) float64 {
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	default:
		return s
	}
}

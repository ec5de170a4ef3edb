package indexer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docground/internal/cache"
	"github.com/dshills/docground/internal/embedder"
	"github.com/dshills/docground/internal/storage"
	"github.com/dshills/docground/pkg/types"
)

// countingEmbedder wraps the local embedder and can fail a number of batch calls
type countingEmbedder struct {
	*embedder.LocalProvider
	mu       sync.Mutex
	calls    int
	failures int
	err      error
}

func newCountingEmbedder() *countingEmbedder {
	return &countingEmbedder{LocalProvider: embedder.NewLocalProvider(nil)}
}

func (m *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]*embedder.Embedding, error) {
	m.mu.Lock()
	m.calls++
	fail := m.failures > 0
	if fail {
		m.failures--
	}
	err := m.err
	m.mu.Unlock()

	if fail {
		if err == nil {
			err = errors.New("upstream unavailable")
		}
		return nil, &embedder.ProviderError{Provider: "mock", Err: err}
	}
	return m.LocalProvider.EmbedBatch(ctx, texts)
}

func (m *countingEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func setupTestStorage(t testing.TB) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testDoc(id, scope string) types.Document {
	return types.Document{
		ID:      id,
		Scope:   scope,
		Title:   "Ferieregler " + id,
		Content: strings.Repeat("Ansatte har rett på fem uker ferie hvert år. ", 40),
	}
}

func TestNew(t *testing.T) {
	idx := New(setupTestStorage(t), newCountingEmbedder(), nil, nil)
	require.NotNil(t, idx)
	assert.Equal(t, runtime.NumCPU(), idx.Workers())
	assert.Nil(t, idx.retry)

	idx = New(setupTestStorage(t), newCountingEmbedder(), nil, &Config{Workers: 3, EmbedRetries: 4})
	assert.Equal(t, 3, idx.Workers())
	require.NotNil(t, idx.retry)
	assert.Equal(t, 4, idx.retry.MaxRetries)
}

func TestIndexDocument_StoresChunksAndEmbeddings(t *testing.T) {
	ctx := context.Background()
	store := setupTestStorage(t)
	idx := New(store, newCountingEmbedder(), nil, &Config{ChunkSize: 400, ChunkOverlap: 50})

	res, err := idx.IndexDocument(ctx, testDoc("doc-1", "org-1"))
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Greater(t, res.Chunks, 1)

	stored, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "org-1", stored.Scope)
	assert.NotEmpty(t, stored.Keywords)
	assert.False(t, stored.IndexedAt.IsZero())
	require.NotNil(t, stored.Embedding)
	assert.Equal(t, embedder.LocalDimension, stored.Embedding.Dimension)
	assert.Equal(t, embedder.ProviderLocal, stored.Embedding.Provider)

	chunks, err := store.ListChunksByDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, chunks, res.Chunks)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.NotNil(t, c.Embedding)
		assert.Positive(t, c.TokenCount)
	}
}

func TestIndexDocument_GeneratesID(t *testing.T) {
	idx := New(setupTestStorage(t), newCountingEmbedder(), nil, nil)

	doc := testDoc("", "")
	res, err := idx.IndexDocument(context.Background(), doc)
	require.NoError(t, err)
	assert.Len(t, res.DocumentID, 36)
}

func TestIndexDocument_Invalid(t *testing.T) {
	emb := newCountingEmbedder()
	idx := New(setupTestStorage(t), emb, nil, nil)

	doc := testDoc("doc-1", "")
	doc.Title = "  "
	_, err := idx.IndexDocument(context.Background(), doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrMissingTitle)
	assert.Zero(t, emb.callCount())
}

func TestIndexDocument_SkipsUnchanged(t *testing.T) {
	ctx := context.Background()
	emb := newCountingEmbedder()
	idx := New(setupTestStorage(t), emb, nil, nil)

	doc := testDoc("doc-1", "org-1")
	_, err := idx.IndexDocument(ctx, doc)
	require.NoError(t, err)
	require.Equal(t, 1, emb.callCount())

	res, err := idx.IndexDocument(ctx, doc)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, 1, emb.callCount())

	doc.Content = "Nye regler for hjemmekontor gjelder fra januar."
	res, err = idx.IndexDocument(ctx, doc)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, 1, res.Chunks)
	assert.Equal(t, 2, emb.callCount())
}

func TestIndexDocument_SkipsUnchangedWithFallback(t *testing.T) {
	ctx := context.Background()
	primary := newCountingEmbedder()
	fb, err := embedder.NewFallback(primary, embedder.NewLocalProvider(nil))
	require.NoError(t, err)
	idx := New(setupTestStorage(t), fb, nil, nil)

	doc := testDoc("doc-1", "org-1")
	_, err = idx.IndexDocument(ctx, doc)
	require.NoError(t, err)

	res, err := idx.IndexDocument(ctx, doc)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, 1, primary.callCount())

	// Vectors written by the secondary also count as current
	primary.failures = 1
	doc.Content = "Hjemmekontor kan avtales med leder."
	_, err = idx.IndexDocument(ctx, doc)
	require.NoError(t, err)

	res, err = idx.IndexDocument(ctx, doc)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, 2, primary.callCount())
}

func TestIndexDocument_ScopeChangeReindexes(t *testing.T) {
	ctx := context.Background()
	store := setupTestStorage(t)
	idx := New(store, newCountingEmbedder(), nil, nil)

	doc := testDoc("doc-1", "org-1")
	_, err := idx.IndexDocument(ctx, doc)
	require.NoError(t, err)

	doc.Scope = "org-2"
	res, err := idx.IndexDocument(ctx, doc)
	require.NoError(t, err)
	assert.False(t, res.Skipped)

	stored, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "org-2", stored.Scope)
}

func TestIndexDocument_EmbeddingFailureKeepsPreviousVersion(t *testing.T) {
	ctx := context.Background()
	store := setupTestStorage(t)
	emb := newCountingEmbedder()
	idx := New(store, emb, nil, nil)

	doc := testDoc("doc-1", "org-1")
	first, err := idx.IndexDocument(ctx, doc)
	require.NoError(t, err)

	emb.failures = 1
	doc.Content = "Helt nytt innhold som aldri blir lagret."
	_, err = idx.IndexDocument(ctx, doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, embedder.ErrProviderFailed)

	stored, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Contains(t, stored.Content, "fem uker ferie")

	chunks, err := store.ListChunksByDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Len(t, chunks, first.Chunks)
}

func TestIndexDocument_RetriesProviderFailures(t *testing.T) {
	emb := newCountingEmbedder()
	emb.failures = 1
	idx := New(setupTestStorage(t), emb, nil, &Config{EmbedRetries: 2})

	res, err := idx.IndexDocument(context.Background(), testDoc("doc-1", ""))
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, 2, emb.callCount())
}

func TestIndexDocument_InvalidatesCache(t *testing.T) {
	ctx := context.Background()
	rc := cache.New(cache.NewMemoryStore(100))
	idx := New(setupTestStorage(t), newCountingEmbedder(), rc, nil)

	cached := []types.RetrievalResult{{ID: "old", Title: "Old", Content: "stale", Score: 1}}
	rc.Put(ctx, "ferie", "org-1", cached, 0)
	rc.Put(ctx, "ferie", "org-2", cached, 0)
	rc.Put(ctx, "ferie", "org-3", cached, 0)

	doc := testDoc("doc-1", "org-1")
	_, err := idx.IndexDocument(ctx, doc)
	require.NoError(t, err)

	_, hit := rc.Get(ctx, "ferie", "org-1")
	assert.False(t, hit)
	_, hit = rc.Get(ctx, "ferie", "org-2")
	assert.True(t, hit)

	// Moving a document invalidates both the old and the new scope
	doc.Scope = "org-2"
	_, err = idx.IndexDocument(ctx, doc)
	require.NoError(t, err)

	_, hit = rc.Get(ctx, "ferie", "org-2")
	assert.False(t, hit)
	_, hit = rc.Get(ctx, "ferie", "org-3")
	assert.True(t, hit)
}

func TestIndexDocument_InvalidatesGlobalScope(t *testing.T) {
	ctx := context.Background()
	rc := cache.New(cache.NewMemoryStore(100))
	idx := New(setupTestStorage(t), newCountingEmbedder(), rc, nil)

	cached := []types.RetrievalResult{{ID: "old", Title: "Old", Content: "stale", Score: 1}}
	rc.Put(ctx, "ferie", "", cached, 0)
	rc.Put(ctx, "ferie", "org-2", cached, 0)

	_, err := idx.IndexDocument(ctx, testDoc("doc-1", "org-1"))
	require.NoError(t, err)

	// Global searches span org-1, so the edit must drop them
	_, hit := rc.Get(ctx, "ferie", "")
	assert.False(t, hit)
	_, hit = rc.Get(ctx, "ferie", "org-2")
	assert.True(t, hit)

	rc.Put(ctx, "ferie", "", cached, 0)
	require.NoError(t, idx.DeleteDocument(ctx, "doc-1"))
	_, hit = rc.Get(ctx, "ferie", "")
	assert.False(t, hit)
	_, hit = rc.Get(ctx, "ferie", "org-2")
	assert.True(t, hit)
}

func TestIndexDocuments_ContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	store := setupTestStorage(t)
	idx := New(store, newCountingEmbedder(), nil, &Config{Workers: 2})

	docs := make([]types.Document, 0, 5)
	for i := range 4 {
		docs = append(docs, testDoc(fmt.Sprintf("doc-%d", i), "org-1"))
	}
	bad := testDoc("bad", "org-1")
	bad.Content = ""
	docs = append(docs, bad)

	stats, err := idx.IndexDocuments(ctx, docs)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.DocumentsIndexed)
	assert.Equal(t, 1, stats.DocumentsFailed)
	assert.Zero(t, stats.DocumentsSkipped)
	assert.Positive(t, stats.ChunksCreated)
	require.Len(t, stats.ErrorMessages, 1)
	assert.Contains(t, stats.ErrorMessages[0], "bad")

	listed, err := store.ListDocuments(ctx, "org-1")
	require.NoError(t, err)
	assert.Len(t, listed, 4)

	// A second run over the same documents skips everything that succeeded
	stats, err = idx.IndexDocuments(ctx, docs[:4])
	require.NoError(t, err)
	assert.Equal(t, 4, stats.DocumentsSkipped)
	assert.Zero(t, stats.DocumentsIndexed)
}

func TestIndexDocuments_ConcurrentCalls(t *testing.T) {
	idx := New(setupTestStorage(t), newCountingEmbedder(), nil, nil)

	require.True(t, idx.lock.TryAcquire())
	_, err := idx.IndexDocuments(context.Background(), []types.Document{testDoc("doc-1", "")})
	assert.ErrorIs(t, err, ErrIndexInProgress)
	idx.lock.Release()

	_, err = idx.IndexDocuments(context.Background(), []types.Document{testDoc("doc-1", "")})
	assert.NoError(t, err)
}

func TestIndexDocuments_ContextCancellation(t *testing.T) {
	idx := New(setupTestStorage(t), newCountingEmbedder(), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := idx.IndexDocuments(ctx, []types.Document{testDoc("doc-1", ""), testDoc("doc-2", "")})
	assert.ErrorIs(t, err, context.Canceled)

	// The lock is released after a cancelled run
	assert.True(t, idx.lock.TryAcquire())
	idx.lock.Release()
}

func TestDeleteDocument(t *testing.T) {
	ctx := context.Background()
	store := setupTestStorage(t)
	rc := cache.New(cache.NewMemoryStore(100))
	idx := New(store, newCountingEmbedder(), rc, nil)

	_, err := idx.IndexDocument(ctx, testDoc("doc-1", "org-1"))
	require.NoError(t, err)
	rc.Put(ctx, "ferie", "org-1", []types.RetrievalResult{{ID: "doc-1", Title: "T", Content: "c"}}, 0)

	require.NoError(t, idx.DeleteDocument(ctx, "doc-1"))

	_, err = store.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, hit := rc.Get(ctx, "ferie", "org-1")
	assert.False(t, hit)

	err = idx.DeleteDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

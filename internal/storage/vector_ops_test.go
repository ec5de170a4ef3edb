package storage

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedVectors stores one document per vector with a single embedded chunk.
// The document-level embedding equals the chunk embedding.
func seedVectors(t *testing.T, s *SQLiteStorage, scope string, vectors map[string][]float32) {
	t.Helper()
	ctx := context.Background()
	for id, vec := range vectors {
		doc := testDocument(id, scope, "Title "+id, "Content "+id)
		doc.Embedding = NewEmbedding(vec, "local", "test")
		require.NoError(t, s.UpsertDocument(ctx, doc))
		require.NoError(t, s.ReplaceChunks(ctx, id, []*Chunk{
			{Index: 0, Content: "Content " + id, Embedding: NewEmbedding(vec, "local", "test")},
		}))
	}
}

func TestSearchVector_RanksByCosine(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	seedVectors(t, storage, "org-a", map[string][]float32{
		"exact":      {1, 0, 0},
		"close":      {0.9, 0.1, 0},
		"orthogonal": {0, 1, 0},
	})

	results, err := storage.SearchVector(context.Background(), "org-a", []float32{1, 0, 0}, 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "exact", results[0].DocumentID)
	assert.Equal(t, "close", results[1].DocumentID)
	assert.Equal(t, "orthogonal", results[2].DocumentID)
	assert.InDelta(t, 1.0, results[0].SimilarityScore, 1e-4)
	assert.Greater(t, results[0].ChunkID, int64(0))
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].SimilarityScore, results[i].SimilarityScore)
	}
}

func TestSearchVector_ScopeIsolation(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	seedVectors(t, storage, "org-a", map[string][]float32{"a1": {1, 0}})
	seedVectors(t, storage, "org-b", map[string][]float32{"b1": {1, 0}})

	ctx := context.Background()
	results, err := storage.SearchVector(ctx, "org-b", []float32{1, 0}, 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b1", results[0].DocumentID)

	all, err := storage.SearchVector(ctx, "", []float32{1, 0}, 10, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSearchVector_Filters(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	seedVectors(t, storage, "", map[string][]float32{
		"same":     {1, 0},
		"opposite": {-1, 0},
		"other":    {0.8, 0.2},
	})

	ctx := context.Background()
	results, err := storage.SearchVector(ctx, "", []float32{1, 0}, 10, &SearchFilters{MinRelevance: 0.5})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.NotEqual(t, "opposite", r.DocumentID)
	}

	results, err = storage.SearchVector(ctx, "", []float32{1, 0}, 10, &SearchFilters{DocumentIDs: []string{"opposite"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "opposite", results[0].DocumentID)
}

func TestSearchVector_Limit(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	vectors := make(map[string][]float32)
	for i := 0; i < 8; i++ {
		vectors[fmt.Sprintf("doc-%d", i)] = []float32{1, float32(i) * 0.1}
	}
	seedVectors(t, storage, "", vectors)

	results, err := storage.SearchVector(context.Background(), "", []float32{1, 0}, 3, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "doc-0", results[0].DocumentID)
}

func TestSearchVector_SkipsDimensionMismatch(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	seedVectors(t, storage, "", map[string][]float32{
		"small": {1, 0},
		"large": {1, 0, 0},
	})

	results, err := storage.SearchVector(context.Background(), "", []float32{1, 0, 0}, 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "large", results[0].DocumentID)
}

func TestSearchDocumentVector(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	seedVectors(t, storage, "org-a", map[string][]float32{
		"best":  {0, 1},
		"worst": {1, 0},
	})
	// Document without an embedding is never a candidate
	require.NoError(t, storage.UpsertDocument(context.Background(), testDocument("plain", "org-a", "Plain", "No vector")))

	results, err := storage.SearchDocumentVector(context.Background(), "org-a", []float32{0, 1}, 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "best", results[0].DocumentID)
	assert.Zero(t, results[0].ChunkID)
	assert.Equal(t, "worst", results[1].DocumentID)
}

// TestVectorSearchEdgeCases tests edge cases and error conditions
func TestVectorSearchEdgeCases(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	seedVectors(t, storage, "org-a", map[string][]float32{"doc": {1, 0}})

	testCases := []struct {
		name        string
		scope       string
		queryVector []float32
		limit       int
	}{
		{name: "empty query vector", scope: "org-a", queryVector: []float32{}, limit: 10},
		{name: "non-existent scope", scope: "missing", queryVector: []float32{1, 0}, limit: 10},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			results, err := storage.SearchVector(context.Background(), tc.scope, tc.queryVector, tc.limit, nil)
			assert.NoError(t, err)
			assert.NotNil(t, results)
			assert.Empty(t, results)
		})
	}
}

func TestSerializeVectorRoundTrip(t *testing.T) {
	vector := []float32{0, 1.5, -2.25, float32(math.Pi)}
	blob := SerializeVector(vector)
	assert.Len(t, blob, 16)
	assert.Equal(t, vector, DeserializeVector(blob))
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-6)
		})
	}
}

func TestBuildVectorResults(t *testing.T) {
	candidates := []candidate{
		{chunkID: 1, documentID: "a", score: 0.9},
		{chunkID: 2, documentID: "b", score: 0.5},
	}

	assert.Len(t, buildVectorResults(candidates, 1), 1)
	assert.Len(t, buildVectorResults(candidates, 0), 2)
	assert.Len(t, buildVectorResults(candidates, 10), 2)
	assert.Equal(t, "b", buildVectorResults(candidates, 10)[1].DocumentID)
}

func BenchmarkSearchVector(b *testing.B) {
	storage, err := NewSQLiteStorage(":memory:")
	require.NoError(b, err)
	defer storage.Close()

	ctx := context.Background()
	for i := 0; i < 200; i++ {
		id := fmt.Sprintf("doc-%d", i)
		doc := &Document{ID: id, Title: id, Content: id}
		require.NoError(b, storage.UpsertDocument(ctx, doc))
		vec := make([]float32, 384)
		for j := range vec {
			vec[j] = float32((i*j)%17) * 0.1
		}
		require.NoError(b, storage.ReplaceChunks(ctx, id, []*Chunk{
			{Index: 0, Content: id, Embedding: NewEmbedding(vec, "local", "bench")},
		}))
	}

	query := make([]float32, 384)
	for i := range query {
		query[i] = float32(i%7) * 0.1
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := storage.SearchVector(ctx, "", query, 10, nil)
		if err != nil {
			b.Fatal(err)
		}
	}
}

package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// vectorSource describes where a vector search reads its candidates from
type vectorSource struct {
	// selectCols must yield chunk id, document id and the vector expression
	selectCols string
	from       string
	vectorCol  string
	scopeCol   string
	docIDCol   string
}

var (
	chunkVectors = vectorSource{
		selectCols: "c.id, c.document_id",
		from: `
		FROM chunks c
		INNER JOIN embeddings e ON c.id = e.chunk_id
		INNER JOIN documents d ON c.document_id = d.id
		WHERE 1 = 1`,
		vectorCol: "e.vector",
		scopeCol:  "d.scope",
		docIDCol:  "d.id",
	}

	documentVectors = vectorSource{
		selectCols: "0, d.id",
		from: `
		FROM documents d
		WHERE d.embedding IS NOT NULL`,
		vectorCol: "d.embedding",
		scopeCol:  "d.scope",
		docIDCol:  "d.id",
	}
)

// searchVector performs chunk-level vector similarity search using cosine similarity
func searchVector(ctx context.Context, q querier, scope string, queryVector []float32, limit int, filters *SearchFilters) ([]VectorResult, error) {
	return runVectorSearch(ctx, q, chunkVectors, scope, queryVector, limit, filters)
}

// searchDocumentVector compares the query against whole-document embeddings
func searchDocumentVector(ctx context.Context, q querier, scope string, queryVector []float32, limit int, filters *SearchFilters) ([]VectorResult, error) {
	return runVectorSearch(ctx, q, documentVectors, scope, queryVector, limit, filters)
}

func runVectorSearch(ctx context.Context, q querier, src vectorSource, scope string, queryVector []float32, limit int, filters *SearchFilters) ([]VectorResult, error) {
	if len(queryVector) == 0 {
		return []VectorResult{}, nil
	}
	// Use optimized SQL-based search when sqlite-vec is available
	if VectorExtensionAvailable {
		return searchVectorOptimized(ctx, q, src, scope, queryVector, limit, filters)
	}
	return searchVectorFallback(ctx, q, src, scope, queryVector, limit, filters)
}

// searchVectorOptimized uses sqlite-vec extension for SQL-based vector similarity search
func searchVectorOptimized(ctx context.Context, q querier, src vectorSource, scope string, queryVector []float32, limit int, filters *SearchFilters) ([]VectorResult, error) {
	if limit <= 0 {
		return []VectorResult{}, nil
	}

	queryVectorBlob := serializeVector(queryVector)

	// vec_distance_cosine returns distance (lower is better); convert to similarity.
	// Vectors of another dimension are excluded by byte length.
	query := "SELECT " + src.selectCols + ", 1.0 - vec_distance_cosine(" + src.vectorCol + ", ?) AS similarity" +
		src.from + " AND length(" + src.vectorCol + ") = ?"
	args := []interface{}{queryVectorBlob, len(queryVectorBlob)}

	query, args = applyVectorFilters(query, args, src, scope, filters)

	if filters != nil && filters.MinRelevance > 0 {
		query += " AND (1.0 - vec_distance_cosine(" + src.vectorCol + ", ?)) >= ?"
		args = append(args, queryVectorBlob, filters.MinRelevance)
	}

	query += " ORDER BY similarity DESC LIMIT ?"
	args = append(args, limit)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute vector search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]VectorResult, 0, limit)
	for rows.Next() {
		var result VectorResult
		if err := rows.Scan(&result.ChunkID, &result.DocumentID, &result.SimilarityScore); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// searchVectorFallback performs vector search using Go-based cosine similarity computation.
// This is used when sqlite-vec extension is not available (purego builds).
func searchVectorFallback(ctx context.Context, q querier, src vectorSource, scope string, queryVector []float32, limit int, filters *SearchFilters) ([]VectorResult, error) {
	query := "SELECT " + src.selectCols + ", " + src.vectorCol + src.from
	query, args := applyVectorFilters(query, nil, src, scope, filters)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	candidates, err := computeSimilarityScores(rows, queryVector, filters)
	if err != nil {
		return nil, err
	}

	sortCandidates(candidates)

	return buildVectorResults(candidates, limit), nil
}

// applyVectorFilters adds scope and document filters to the WHERE clause
func applyVectorFilters(query string, args []interface{}, src vectorSource, scope string, filters *SearchFilters) (string, []interface{}) {
	if scope != "" {
		query += " AND " + src.scopeCol + " = ?"
		args = append(args, scope)
	}

	if filters == nil || len(filters.DocumentIDs) == 0 {
		return query, args
	}

	query += " AND " + src.docIDCol + " IN ("
	for i, id := range filters.DocumentIDs {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, id)
	}
	query += ")"
	return query, args
}

// computeSimilarityScores processes rows and computes cosine similarity
func computeSimilarityScores(rows *sql.Rows, queryVector []float32, filters *SearchFilters) ([]candidate, error) {
	candidates := make([]candidate, 0, 256)

	for rows.Next() {
		var (
			chunkID    int64
			documentID string
			vectorBlob []byte
		)
		if err := rows.Scan(&chunkID, &documentID, &vectorBlob); err != nil {
			return nil, err
		}

		vector := deserializeVector(vectorBlob)
		if len(vector) != len(queryVector) {
			continue // Dimension mismatch, skip
		}

		similarity := cosineSimilarity(queryVector, vector)

		if filters != nil && filters.MinRelevance > 0 && similarity < filters.MinRelevance {
			continue
		}

		candidates = append(candidates, candidate{chunkID: chunkID, documentID: documentID, score: similarity})
	}

	return candidates, rows.Err()
}

// buildVectorResults creates VectorResult slice from candidates
func buildVectorResults(candidates []candidate, limit int) []VectorResult {
	// Non-positive limit returns all candidates
	if limit <= 0 || limit > len(candidates) {
		limit = len(candidates)
	}

	results := make([]VectorResult, limit)
	for i := 0; i < limit; i++ {
		results[i] = VectorResult{
			ChunkID:         candidates[i].chunkID,
			DocumentID:      candidates[i].documentID,
			SimilarityScore: candidates[i].score,
		}
	}
	return results
}

// serializeVector converts a float32 slice to a byte blob (little-endian)
func serializeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// deserializeVector converts a byte blob back to a float32 slice
func deserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vector[i] = math.Float32frombits(bits)
	}
	return vector
}

// cosineSimilarity computes the cosine similarity between two vectors
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// candidate represents a scored vector row
type candidate struct {
	chunkID    int64
	documentID string
	score      float64
}

// sortCandidates sorts candidates by score in descending order, keeping row order for ties
func sortCandidates(candidates []candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
}

// SerializeVector is an exported helper for testing
func SerializeVector(vector []float32) []byte {
	return serializeVector(vector)
}

// DeserializeVector is an exported helper for testing
func DeserializeVector(blob []byte) []float32 {
	return deserializeVector(blob)
}

// CosineSimilarity is an exported helper for testing
func CosineSimilarity(a, b []float32) float64 {
	return cosineSimilarity(a, b)
}

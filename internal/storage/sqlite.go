package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidDocument is returned when a document is missing required fields
	ErrInvalidDocument = errors.New("invalid document")
)

// maxDeleteBatch keeps IN lists under SQLite's variable limit
const maxDeleteBatch = 500

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db  *sql.DB
	now func() time.Time
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite allows a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db, now: time.Now}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// WithTx runs fn in a transaction, committing on success and rolling back on error
func (s *SQLiteStorage) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

func (t *sqliteTx) querier() querier {
	return t.tx
}

func (s *SQLiteStorage) querier() querier {
	return s.db
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms sql.NullInt64) time.Time {
	if !ms.Valid || ms.Int64 == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms.Int64)
}

func hashFromBlob(blob []byte) [32]byte {
	var h [32]byte
	copy(h[:], blob)
	return h
}

// Document operations

func (s *SQLiteStorage) upsertDocumentWithQuerier(ctx context.Context, q querier, doc *Document) error {
	if doc.ID == "" || doc.Title == "" {
		return fmt.Errorf("%w: id and title are required", ErrInvalidDocument)
	}

	keywords := doc.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	keywordsJSON, err := json.Marshal(keywords)
	if err != nil {
		return fmt.Errorf("failed to encode keywords: %w", err)
	}

	var (
		vector    []byte
		dimension sql.NullInt64
		provider  sql.NullString
		model     sql.NullString
	)
	if doc.Embedding != nil {
		vector = doc.Embedding.Vector
		dimension = sql.NullInt64{Int64: int64(doc.Embedding.Dimension), Valid: true}
		provider = sql.NullString{String: doc.Embedding.Provider, Valid: true}
		model = sql.NullString{String: doc.Embedding.Model, Valid: true}
	}

	now := s.now()
	if doc.IndexedAt.IsZero() {
		doc.IndexedAt = now
	}

	query := `
		INSERT INTO documents (id, scope, title, content, source_link, keywords, content_hash,
			embedding, dimension, provider, model, indexed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			scope = excluded.scope,
			title = excluded.title,
			content = excluded.content,
			source_link = excluded.source_link,
			keywords = excluded.keywords,
			content_hash = excluded.content_hash,
			embedding = excluded.embedding,
			dimension = excluded.dimension,
			provider = excluded.provider,
			model = excluded.model,
			indexed_at = excluded.indexed_at,
			updated_at = excluded.updated_at
	`
	_, err = q.ExecContext(ctx, query,
		doc.ID, doc.Scope, doc.Title, doc.Content, doc.SourceLink, string(keywordsJSON), doc.ContentHash[:],
		vector, dimension, provider, model, toMillis(doc.IndexedAt), toMillis(now), toMillis(now))
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	doc.UpdatedAt = time.UnixMilli(now.UnixMilli())
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = doc.UpdatedAt
	}
	return nil
}

// UpsertDocument inserts or replaces a document row
func (s *SQLiteStorage) UpsertDocument(ctx context.Context, doc *Document) error {
	return s.upsertDocumentWithQuerier(ctx, s.querier(), doc)
}

const documentColumns = `id, scope, title, content, source_link, keywords, content_hash,
	embedding, dimension, provider, model, indexed_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var (
		doc          Document
		sourceLink   sql.NullString
		keywordsJSON string
		hash         []byte
		vector       []byte
		dimension    sql.NullInt64
		provider     sql.NullString
		model        sql.NullString
		indexedAt    sql.NullInt64
		createdAt    sql.NullInt64
		updatedAt    sql.NullInt64
	)
	err := row.Scan(&doc.ID, &doc.Scope, &doc.Title, &doc.Content, &sourceLink, &keywordsJSON, &hash,
		&vector, &dimension, &provider, &model, &indexedAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	doc.SourceLink = sourceLink.String
	doc.ContentHash = hashFromBlob(hash)
	doc.IndexedAt = fromMillis(indexedAt)
	doc.CreatedAt = fromMillis(createdAt)
	doc.UpdatedAt = fromMillis(updatedAt)
	if err := json.Unmarshal([]byte(keywordsJSON), &doc.Keywords); err != nil {
		return nil, fmt.Errorf("failed to decode keywords for %s: %w", doc.ID, err)
	}
	if len(vector) > 0 {
		doc.Embedding = &Embedding{
			Vector:    vector,
			Dimension: int(dimension.Int64),
			Provider:  provider.String,
			Model:     model.String,
		}
	}
	return &doc, nil
}

func (s *SQLiteStorage) getDocumentWithQuerier(ctx context.Context, q querier, id string) (*Document, error) {
	row := q.QueryRowContext(ctx, "SELECT "+documentColumns+" FROM documents WHERE id = ?", id)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// GetDocument returns a document by ID or ErrNotFound
func (s *SQLiteStorage) GetDocument(ctx context.Context, id string) (*Document, error) {
	return s.getDocumentWithQuerier(ctx, s.querier(), id)
}

func (s *SQLiteStorage) listDocumentsWithQuerier(ctx context.Context, q querier, scope string) ([]*Document, error) {
	query := "SELECT " + documentColumns + " FROM documents"
	var args []interface{}
	if scope != "" {
		query += " WHERE scope = ?"
		args = append(args, scope)
	}
	query += " ORDER BY updated_at DESC, id"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// ListDocuments returns documents in scope, most recently updated first.
// An empty scope lists every document.
func (s *SQLiteStorage) ListDocuments(ctx context.Context, scope string) ([]*Document, error) {
	return s.listDocumentsWithQuerier(ctx, s.querier(), scope)
}

func (s *SQLiteStorage) deleteDocumentWithQuerier(ctx context.Context, q querier, id string) error {
	result, err := q.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteDocument removes a document and, by cascade, its chunks and embeddings
func (s *SQLiteStorage) DeleteDocument(ctx context.Context, id string) error {
	return s.deleteDocumentWithQuerier(ctx, s.querier(), id)
}

// Chunk operations

func (s *SQLiteStorage) replaceChunksWithQuerier(ctx context.Context, q querier, documentID string, chunks []*Chunk) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("failed to delete old chunks: %w", err)
	}

	now := toMillis(s.now())
	for _, chunk := range chunks {
		chunk.DocumentID = documentID
		result, err := q.ExecContext(ctx, `
			INSERT INTO chunks (document_id, chunk_index, content, content_hash, start_offset, end_offset, token_count, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, documentID, chunk.Index, chunk.Content, chunk.ContentHash[:], chunk.StartOffset, chunk.EndOffset, chunk.TokenCount, now)
		if err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", chunk.Index, err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		chunk.ID = id

		if chunk.Embedding == nil {
			continue
		}
		_, err = q.ExecContext(ctx, `
			INSERT INTO embeddings (chunk_id, vector, dimension, provider, model, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, id, chunk.Embedding.Vector, chunk.Embedding.Dimension, chunk.Embedding.Provider, chunk.Embedding.Model, now)
		if err != nil {
			return fmt.Errorf("failed to insert embedding for chunk %d: %w", chunk.Index, err)
		}
	}
	return nil
}

// ReplaceChunks atomically swaps a document's chunks (and their embeddings) for chunks
func (s *SQLiteStorage) ReplaceChunks(ctx context.Context, documentID string, chunks []*Chunk) error {
	return s.WithTx(ctx, func(tx Tx) error {
		return tx.ReplaceChunks(ctx, documentID, chunks)
	})
}

const chunkSelect = `
	SELECT c.id, c.document_id, c.chunk_index, c.content, c.content_hash, c.start_offset, c.end_offset,
		c.token_count, c.created_at, e.vector, e.dimension, e.provider, e.model
	FROM chunks c
	LEFT JOIN embeddings e ON e.chunk_id = c.id
`

func scanChunk(row rowScanner) (*Chunk, error) {
	var (
		chunk      Chunk
		hash       []byte
		tokenCount sql.NullInt64
		createdAt  sql.NullInt64
		vector     []byte
		dimension  sql.NullInt64
		provider   sql.NullString
		model      sql.NullString
	)
	err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Index, &chunk.Content, &hash, &chunk.StartOffset,
		&chunk.EndOffset, &tokenCount, &createdAt, &vector, &dimension, &provider, &model)
	if err != nil {
		return nil, err
	}
	chunk.ContentHash = hashFromBlob(hash)
	chunk.TokenCount = int(tokenCount.Int64)
	chunk.CreatedAt = fromMillis(createdAt)
	if len(vector) > 0 {
		chunk.Embedding = &Embedding{
			Vector:    vector,
			Dimension: int(dimension.Int64),
			Provider:  provider.String,
			Model:     model.String,
		}
	}
	return &chunk, nil
}

func (s *SQLiteStorage) listChunksByDocumentWithQuerier(ctx context.Context, q querier, documentID string) ([]*Chunk, error) {
	rows, err := q.QueryContext(ctx, chunkSelect+" WHERE c.document_id = ? ORDER BY c.chunk_index", documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var chunks []*Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

// ListChunksByDocument returns a document's chunks in index order
func (s *SQLiteStorage) ListChunksByDocument(ctx context.Context, documentID string) ([]*Chunk, error) {
	return s.listChunksByDocumentWithQuerier(ctx, s.querier(), documentID)
}

func (s *SQLiteStorage) getChunkWithQuerier(ctx context.Context, q querier, chunkID int64) (*Chunk, error) {
	chunk, err := scanChunk(q.QueryRowContext(ctx, chunkSelect+" WHERE c.id = ?", chunkID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chunk: %w", err)
	}
	return chunk, nil
}

// GetChunk returns a chunk by ID or ErrNotFound
func (s *SQLiteStorage) GetChunk(ctx context.Context, chunkID int64) (*Chunk, error) {
	return s.getChunkWithQuerier(ctx, s.querier(), chunkID)
}

// Search operations

// SearchVector ranks chunk embeddings in scope by cosine similarity to vector
func (s *SQLiteStorage) SearchVector(ctx context.Context, scope string, vector []float32, limit int, filters *SearchFilters) ([]VectorResult, error) {
	return searchVector(ctx, s.querier(), scope, vector, limit, filters)
}

// SearchDocumentVector ranks whole-document embeddings in scope by cosine similarity
func (s *SQLiteStorage) SearchDocumentVector(ctx context.Context, scope string, vector []float32, limit int, filters *SearchFilters) ([]VectorResult, error) {
	return searchDocumentVector(ctx, s.querier(), scope, vector, limit, filters)
}

// Result cache operations

func (s *SQLiteStorage) cacheGetWithQuerier(ctx context.Context, q querier, key string) ([]byte, bool, error) {
	var value []byte
	err := q.QueryRowContext(ctx,
		"SELECT value FROM search_cache WHERE key = ? AND expires_at > ?",
		key, toMillis(s.now())).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return value, true, nil
}

// CacheGet returns an unexpired cache value
func (s *SQLiteStorage) CacheGet(ctx context.Context, key string) ([]byte, bool, error) {
	return s.cacheGetWithQuerier(ctx, s.querier(), key)
}

func (s *SQLiteStorage) cacheSetWithQuerier(ctx context.Context, q querier, key string, value []byte, ttl time.Duration) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO search_cache (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
	`, key, value, toMillis(s.now().Add(ttl)))
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// CacheSet stores a cache value that expires after ttl
func (s *SQLiteStorage) CacheSet(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.cacheSetWithQuerier(ctx, s.querier(), key, value, ttl)
}

func (s *SQLiteStorage) cacheKeysWithQuerier(ctx context.Context, q querier, prefix string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT key FROM search_cache WHERE instr(key, ?) = 1 AND expires_at > ? ORDER BY key",
		prefix, toMillis(s.now()))
	if err != nil {
		return nil, fmt.Errorf("failed to list cache keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// CacheKeys lists unexpired keys starting with prefix
func (s *SQLiteStorage) CacheKeys(ctx context.Context, prefix string) ([]string, error) {
	return s.cacheKeysWithQuerier(ctx, s.querier(), prefix)
}

func (s *SQLiteStorage) cacheDeleteWithQuerier(ctx context.Context, q querier, keys []string) error {
	for start := 0; start < len(keys); start += maxDeleteBatch {
		end := min(start+maxDeleteBatch, len(keys))
		batch := keys[start:end]

		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(batch)), ",")
		args := make([]interface{}, len(batch))
		for i, k := range batch {
			args[i] = k
		}

		if _, err := q.ExecContext(ctx, "DELETE FROM search_cache WHERE key IN ("+placeholders+")", args...); err != nil {
			return fmt.Errorf("failed to delete cache entries: %w", err)
		}
	}
	return nil
}

// CacheDelete removes cache entries
func (s *SQLiteStorage) CacheDelete(ctx context.Context, keys ...string) error {
	return s.cacheDeleteWithQuerier(ctx, s.querier(), keys)
}

func (s *SQLiteStorage) purgeExpiredCacheWithQuerier(ctx context.Context, q querier) (int64, error) {
	result, err := q.ExecContext(ctx, "DELETE FROM search_cache WHERE expires_at <= ?", toMillis(s.now()))
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}
	return result.RowsAffected()
}

// PurgeExpiredCache deletes expired cache rows and returns how many were removed
func (s *SQLiteStorage) PurgeExpiredCache(ctx context.Context) (int64, error) {
	return s.purgeExpiredCacheWithQuerier(ctx, s.querier())
}

// Status operations

func (s *SQLiteStorage) getStatusWithQuerier(ctx context.Context, q querier, scope string) (*Status, error) {
	status := &Status{
		Scope: scope,
		Health: HealthStatus{
			VectorExtension: VectorExtensionAvailable,
		},
	}

	where, args := "", []interface{}{}
	if scope != "" {
		where, args = " WHERE d.scope = ?", append(args, scope)
	}

	var lastIndexed sql.NullInt64
	err := q.QueryRowContext(ctx, "SELECT COUNT(*), MAX(d.indexed_at) FROM documents d"+where, args...).
		Scan(&status.DocumentsCount, &lastIndexed)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	status.LastIndexedAt = fromMillis(lastIndexed)
	status.Health.DatabaseAccessible = true

	err = q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM chunks c INNER JOIN documents d ON d.id = c.document_id"+where, args...).
		Scan(&status.ChunksCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}

	err = q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM embeddings e
		INNER JOIN chunks c ON c.id = e.chunk_id
		INNER JOIN documents d ON d.id = c.document_id`+where, args...).
		Scan(&status.EmbeddingsCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count embeddings: %w", err)
	}
	status.Health.EmbeddingsAvailable = status.EmbeddingsCount > 0

	err = q.QueryRowContext(ctx, "SELECT COUNT(*) FROM search_cache WHERE expires_at > ?", toMillis(s.now())).
		Scan(&status.CacheEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to count cache entries: %w", err)
	}

	version, err := readSchemaVersion(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema version: %w", err)
	}
	status.SchemaVersion = version

	return status, nil
}

// GetStatus reports index statistics for scope; an empty scope covers everything
func (s *SQLiteStorage) GetStatus(ctx context.Context, scope string) (*Status, error) {
	return s.getStatusWithQuerier(ctx, s.querier(), scope)
}

// Transaction delegation

func (t *sqliteTx) UpsertDocument(ctx context.Context, doc *Document) error {
	return t.storage.upsertDocumentWithQuerier(ctx, t.querier(), doc)
}

func (t *sqliteTx) GetDocument(ctx context.Context, id string) (*Document, error) {
	return t.storage.getDocumentWithQuerier(ctx, t.querier(), id)
}

func (t *sqliteTx) ListDocuments(ctx context.Context, scope string) ([]*Document, error) {
	return t.storage.listDocumentsWithQuerier(ctx, t.querier(), scope)
}

func (t *sqliteTx) DeleteDocument(ctx context.Context, id string) error {
	return t.storage.deleteDocumentWithQuerier(ctx, t.querier(), id)
}

func (t *sqliteTx) ReplaceChunks(ctx context.Context, documentID string, chunks []*Chunk) error {
	return t.storage.replaceChunksWithQuerier(ctx, t.querier(), documentID, chunks)
}

func (t *sqliteTx) ListChunksByDocument(ctx context.Context, documentID string) ([]*Chunk, error) {
	return t.storage.listChunksByDocumentWithQuerier(ctx, t.querier(), documentID)
}

func (t *sqliteTx) GetChunk(ctx context.Context, chunkID int64) (*Chunk, error) {
	return t.storage.getChunkWithQuerier(ctx, t.querier(), chunkID)
}

func (t *sqliteTx) SearchVector(ctx context.Context, scope string, vector []float32, limit int, filters *SearchFilters) ([]VectorResult, error) {
	return searchVector(ctx, t.querier(), scope, vector, limit, filters)
}

func (t *sqliteTx) SearchDocumentVector(ctx context.Context, scope string, vector []float32, limit int, filters *SearchFilters) ([]VectorResult, error) {
	return searchDocumentVector(ctx, t.querier(), scope, vector, limit, filters)
}

func (t *sqliteTx) CacheGet(ctx context.Context, key string) ([]byte, bool, error) {
	return t.storage.cacheGetWithQuerier(ctx, t.querier(), key)
}

func (t *sqliteTx) CacheSet(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return t.storage.cacheSetWithQuerier(ctx, t.querier(), key, value, ttl)
}

func (t *sqliteTx) CacheKeys(ctx context.Context, prefix string) ([]string, error) {
	return t.storage.cacheKeysWithQuerier(ctx, t.querier(), prefix)
}

func (t *sqliteTx) CacheDelete(ctx context.Context, keys ...string) error {
	return t.storage.cacheDeleteWithQuerier(ctx, t.querier(), keys)
}

func (t *sqliteTx) PurgeExpiredCache(ctx context.Context) (int64, error) {
	return t.storage.purgeExpiredCacheWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) GetStatus(ctx context.Context, scope string) (*Status, error) {
	return t.storage.getStatusWithQuerier(ctx, t.querier(), scope)
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite does not support true nested transactions
	return nil, errors.New("nested transactions not supported")
}

package storage

import (
	"context"
	"time"

	"github.com/dshills/docground/pkg/types"
)

// Storage defines the interface for persisting and querying indexed documents
type Storage interface {
	// Document operations
	UpsertDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, id string) (*Document, error)
	ListDocuments(ctx context.Context, scope string) ([]*Document, error)
	DeleteDocument(ctx context.Context, id string) error

	// Chunk operations
	ReplaceChunks(ctx context.Context, documentID string, chunks []*Chunk) error
	ListChunksByDocument(ctx context.Context, documentID string) ([]*Chunk, error)
	GetChunk(ctx context.Context, chunkID int64) (*Chunk, error)

	// Search operations
	SearchVector(ctx context.Context, scope string, vector []float32, limit int, filters *SearchFilters) ([]VectorResult, error)
	SearchDocumentVector(ctx context.Context, scope string, vector []float32, limit int, filters *SearchFilters) ([]VectorResult, error)

	// Result cache operations
	CacheGet(ctx context.Context, key string) ([]byte, bool, error)
	CacheSet(ctx context.Context, key string, value []byte, ttl time.Duration) error
	CacheKeys(ctx context.Context, prefix string) ([]string, error)
	CacheDelete(ctx context.Context, keys ...string) error
	PurgeExpiredCache(ctx context.Context) (int64, error)

	// Status operations
	GetStatus(ctx context.Context, scope string) (*Status, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage
}

// Embedding is a serialized vector with its provenance
type Embedding struct {
	Vector    []byte // little-endian float32 array
	Dimension int
	Provider  string
	Model     string
}

// Document represents an indexed document. Embedding holds the whole-document
// vector; chunk vectors live with their chunks.
type Document struct {
	ID          string
	Scope       string
	Title       string
	Content     string
	SourceLink  string
	Keywords    []string
	ContentHash [32]byte
	Embedding   *Embedding // Nullable
	IndexedAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Chunk represents one stored chunk of a document
type Chunk struct {
	ID          int64
	DocumentID  string
	Index       int
	Content     string
	ContentHash [32]byte
	StartOffset int
	EndOffset   int
	TokenCount  int
	Embedding   *Embedding // Nullable
	CreatedAt   time.Time
}

// SearchFilters narrows vector search results
type SearchFilters struct {
	MinRelevance float64  // Minimum cosine similarity
	DocumentIDs  []string // Restrict to these documents
}

// VectorResult represents a result from vector similarity search. ChunkID is
// zero for whole-document matches.
type VectorResult struct {
	ChunkID         int64
	DocumentID      string
	SimilarityScore float64
}

// Status contains statistics about the index
type Status struct {
	Scope           string
	DocumentsCount  int
	ChunksCount     int
	EmbeddingsCount int
	CacheEntries    int
	LastIndexedAt   time.Time
	SchemaVersion   string
	Health          HealthStatus
}

// HealthStatus represents the health of the index
type HealthStatus struct {
	DatabaseAccessible  bool
	EmbeddingsAvailable bool
	VectorExtension     bool
}

// ToTypesDocument converts a storage Document to types.Document
func (d *Document) ToTypesDocument() types.Document {
	keywords := make([]string, len(d.Keywords))
	copy(keywords, d.Keywords)
	return types.Document{
		ID:          d.ID,
		Scope:       d.Scope,
		Title:       d.Title,
		Content:     d.Content,
		SourceLink:  d.SourceLink,
		Keywords:    keywords,
		ContentHash: d.ContentHash,
		IndexedAt:   d.IndexedAt,
	}
}

// FromTypesDocument converts types.Document to a storage Document
func FromTypesDocument(doc types.Document) *Document {
	keywords := make([]string, len(doc.Keywords))
	copy(keywords, doc.Keywords)
	return &Document{
		ID:          doc.ID,
		Scope:       doc.Scope,
		Title:       doc.Title,
		Content:     doc.Content,
		SourceLink:  doc.SourceLink,
		Keywords:    keywords,
		ContentHash: doc.ContentHash,
		IndexedAt:   doc.IndexedAt,
	}
}

// NewEmbedding serializes a vector for storage
func NewEmbedding(vector []float32, provider, model string) *Embedding {
	return &Embedding{
		Vector:    serializeVector(vector),
		Dimension: len(vector),
		Provider:  provider,
		Model:     model,
	}
}

// Floats deserializes the embedding vector
func (e *Embedding) Floats() []float32 {
	return deserializeVector(e.Vector)
}

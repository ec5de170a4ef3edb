package types

import (
	"crypto/sha256"
	"strings"
	"time"
)

// Document is the unit of indexing. Scope is an opaque partition key; an empty
// scope means the global partition.
type Document struct {
	ID          string
	Scope       string
	Title       string
	Content     string
	SourceLink  string
	Keywords    []string
	ContentHash [32]byte
	IndexedAt   time.Time
}

// Validate checks the document can be indexed
func (d *Document) Validate() error {
	if d.ID == "" {
		return ErrMissingDocumentID
	}

	if strings.TrimSpace(d.Title) == "" {
		return ErrMissingTitle
	}

	if strings.TrimSpace(d.Content) == "" {
		return ErrEmptyContent
	}

	return nil
}

// ComputeContentHash hashes title and content so a retitle triggers re-indexing
func (d *Document) ComputeContentHash() {
	d.ContentHash = sha256.Sum256([]byte(d.Title + "\x00" + d.Content))
}

// Result converts the document into a retrieval result carrying the given score
func (d *Document) Result(score float64) RetrievalResult {
	return RetrievalResult{
		ID:         d.ID,
		Title:      d.Title,
		Content:    d.Content,
		SourceLink: d.SourceLink,
		Score:      score,
	}
}

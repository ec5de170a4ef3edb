package types

import (
	"crypto/sha256"
	"errors"
)

// TextChunk is one contiguous window of a document's normalized text.
// Offsets are rune offsets into the normalized text, half-open [StartOffset, EndOffset).
type TextChunk struct {
	Index       int
	Content     string
	StartOffset int
	EndOffset   int
}

// Validate checks the structural invariants of a chunk
func (c *TextChunk) Validate() error {
	if c.Content == "" {
		return errors.New("chunk content cannot be empty")
	}

	if c.Index < 0 {
		return errors.New("chunk index must be non-negative")
	}

	if c.StartOffset < 0 || c.EndOffset < c.StartOffset {
		return errors.New("chunk offsets must satisfy 0 <= start <= end")
	}

	return nil
}

// Length returns the chunk length in runes
func (c *TextChunk) Length() int {
	return c.EndOffset - c.StartOffset
}

// ContentHash computes the SHA-256 hash of the chunk content
func (c *TextChunk) ContentHash() [32]byte {
	return sha256.Sum256([]byte(c.Content))
}

// StoredChunk is a chunk as persisted for a document, with its embedding text
type StoredChunk struct {
	ID         int64
	DocumentID string
	TextChunk
	EmbedText  string
	TokenCount int
}

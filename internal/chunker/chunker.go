package chunker

import (
	"crypto/sha256"
	"strings"

	"github.com/dshills/docground/pkg/types"
)

const (
	// DefaultChunkSize is the target chunk size in characters
	DefaultChunkSize = 800
	// DefaultOverlap is the number of characters shared by adjacent chunks
	DefaultOverlap = 100
	// MinChunkSize is the smallest trimmed fragment kept as a chunk
	MinChunkSize = 100
)

// Break point thresholds, as fractions of the search window
const (
	paragraphThreshold = 0.5
	sentenceThreshold  = 0.5
	wordThreshold      = 0.3
)

var sentenceMarkers = []string{". ", "! ", "? ", ".\n", "!\n", "?\n"}

// Chunker splits document text into overlapping, boundary-aware chunks
type Chunker struct {
	size    int
	overlap int
}

// New creates a Chunker. Invalid parameters fall back to the defaults.
func New(size, overlap int) *Chunker {
	size, overlap = clampParams(size, overlap)
	return &Chunker{size: size, overlap: overlap}
}

func clampParams(size, overlap int) (int, int) {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultOverlap
		if overlap >= size {
			overlap = 0
		}
	}
	return size, overlap
}

// Size returns the target chunk size
func (c *Chunker) Size() int {
	return c.size
}

// Overlap returns the configured overlap
func (c *Chunker) Overlap() int {
	return c.overlap
}

// Chunk splits text using the chunker's size and overlap
func (c *Chunker) Chunk(text string) []types.TextChunk {
	return Chunk(text, c.size, c.overlap)
}

// Normalize converts CRLF line endings to LF and trims surrounding whitespace
func Normalize(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
}

// Chunk splits text into chunks of roughly targetSize characters with overlap
// characters shared between neighbours. Empty or whitespace-only input yields
// no chunks. Text that fits the target, or is shorter than MinChunkSize, is
// returned as a single chunk. Offsets are rune offsets into the normalized text.
func Chunk(text string, targetSize, overlap int) []types.TextChunk {
	targetSize, overlap = clampParams(targetSize, overlap)

	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}

	runes := []rune(normalized)
	if len(runes) <= targetSize || len(runes) < MinChunkSize {
		return []types.TextChunk{{
			Index:       0,
			Content:     normalized,
			StartOffset: 0,
			EndOffset:   len(runes),
		}}
	}

	minSize := min(MinChunkSize, targetSize/2)

	var chunks []types.TextChunk
	pos := 0
	for pos < len(runes) {
		end := min(pos+targetSize, len(runes))
		if end < len(runes) {
			end = findBreakPoint(runes, pos, end)
		}

		content := strings.TrimSpace(string(runes[pos:end]))
		if len([]rune(content)) >= minSize {
			chunks = append(chunks, types.TextChunk{
				Index:       len(chunks),
				Content:     content,
				StartOffset: pos,
				EndOffset:   end,
			})
		}

		if end >= len(runes) {
			break
		}
		pos = max(pos+1, end-overlap)
	}

	return chunks
}

// findBreakPoint picks the end of the chunk that starts at start, preferring
// paragraph, then sentence, then word boundaries inside [start, maxEnd).
func findBreakPoint(runes []rune, start, maxEnd int) int {
	window := string(runes[start:maxEnd])
	windowLen := float64(maxEnd - start)

	if p := lastRuneIndex(window, "\n\n"); p >= 0 && float64(p) > windowLen*paragraphThreshold {
		return start + p + 2
	}

	best := -1
	for _, marker := range sentenceMarkers {
		if p := lastRuneIndex(window, marker); p > best && float64(p) > windowLen*sentenceThreshold {
			best = p
		}
	}
	if best != -1 {
		return start + best + 2
	}

	if p := lastRuneIndex(window, " "); p >= 0 && float64(p) > windowLen*wordThreshold {
		return start + p + 1
	}

	return maxEnd
}

// lastRuneIndex is strings.LastIndex measured in runes
func lastRuneIndex(s, substr string) int {
	i := strings.LastIndex(s, substr)
	if i < 0 {
		return -1
	}
	return len([]rune(s[:i]))
}

// PrepareForEmbedding prefixes each chunk with the document title so chunks
// embed with their document's context.
func PrepareForEmbedding(title string, chunks []types.TextChunk) []string {
	out := make([]string, len(chunks))
	for i, ch := range chunks {
		out[i] = title + "\n\n" + ch.Content
	}
	return out
}

// PrepareDocument builds the text used for the whole-document embedding
func PrepareDocument(title, content string) string {
	return strings.TrimSpace(title) + "\n\n" + Normalize(content)
}

// ComputeChunkHash computes the SHA-256 hash for a chunk's content
func ComputeChunkHash(content string) [32]byte {
	return sha256.Sum256([]byte(content))
}

// EstimateTokenCount estimates the number of tokens in a string
func EstimateTokenCount(text string) int {
	// ~4 characters per token
	return len(text) / 4
}

// Package chunker divides document text into overlapping chunks for embedding.
//
// Chunks end at natural boundaries where possible. Inside each window of
// targetSize characters the chunker looks for, in order:
//   - the last paragraph break ("\n\n") past the middle of the window
//   - the last sentence terminator (". ", "! ", "? " or the same before a newline) past the middle
//   - the last space past 30% of the window
//   - otherwise a hard cut at the window boundary
//
// The next window starts overlap characters before the previous break, and
// always at least one character further than the previous start.
//
// # Basic Usage
//
//	c := chunker.New(800, 100)
//	for _, ch := range c.Chunk(doc.Content) {
//	    fmt.Printf("chunk %d: [%d, %d)\n", ch.Index, ch.StartOffset, ch.EndOffset)
//	}
//
// Fragments shorter than MinChunkSize (or half the target size, if smaller)
// after trimming are dropped, except when the whole text fits in one chunk.
// Indices stay contiguous either way.
//
// Chunking never fails: degenerate input such as one long unbroken token is
// hard-cut at the window boundary.
package chunker

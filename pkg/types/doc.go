// Package types provides the domain types shared by the docground packages.
//
// Document is the unit of indexing. The chunker splits its normalized text
// into TextChunk windows, the indexer stores them as StoredChunk rows with
// embeddings, and retrieval returns RetrievalResult values grouped into a
// Bundle that records which path (cache, vector or keyword) answered:
//
//	bundle, err := r.Search(ctx, retriever.Request{Query: "ferie", Scope: "org-1"})
//	for _, c := range bundle.Citations() {
//	    fmt.Println("source:", c.Title, c.SourceLink)
//	}
//
// Scores are comparable only within one Bundle.
package types

// Package indexer coordinates the document indexing pipeline.
//
// Each document passes through four stages:
//
//  1. Change detection: the SHA-256 of title and content is compared with the
//     stored hash. Unchanged documents embedded by the current model are skipped.
//  2. Chunk: the normalized text is split into overlapping windows.
//  3. Embed: every chunk plus the whole document is embedded in one batch call,
//     optionally wrapped in embedder.Retry.
//  4. Store: the document row and its chunks are replaced in one transaction,
//     then cached results for the affected scopes are invalidated.
//
// An embedding failure aborts the document before anything is written, so the
// previous version stays searchable.
//
// # Basic Usage
//
//	idx := indexer.New(store, emb, resultCache, &indexer.Config{Workers: 4})
//
//	res, err := idx.IndexDocument(ctx, types.Document{
//	    ID:      "handbook-7",
//	    Scope:   "org-1",
//	    Title:   "Ferieregler",
//	    Content: text,
//	})
//
// # Batches
//
// IndexDocuments runs documents through a bounded errgroup. Failures are
// collected in Statistics.ErrorMessages and do not stop the batch. Only one
// batch may run at a time; a second caller gets ErrIndexInProgress.
package indexer

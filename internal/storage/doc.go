// Package storage provides SQLite-based persistence for indexed documents.
//
// The storage layer manages:
//   - Documents with their scope, keywords, content hash and whole-document vector
//   - Chunks with character offsets
//   - Chunk embeddings
//   - A TTL-bounded search result cache
//
// # Database Schema
//
// Tables:
//   - documents: Document rows keyed by caller-supplied ID
//   - chunks: Ordered chunks per document (cascade on document delete)
//   - embeddings: One vector per chunk (cascade on chunk delete)
//   - search_cache: Cached result lists with unix-millisecond expiry
//   - schema_version: Applied migrations (semver)
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage("docground.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	err = db.WithTx(ctx, func(tx storage.Tx) error {
//	    if err := tx.UpsertDocument(ctx, doc); err != nil {
//	        return err
//	    }
//	    return tx.ReplaceChunks(ctx, doc.ID, chunks)
//	})
//
// # Vector Search
//
// SearchVector ranks chunk embeddings and SearchDocumentVector ranks
// whole-document embeddings, both by cosine similarity and both limited to a
// scope when one is given. Vectors whose dimension differs from the query are
// ignored.
//
// # Build Tags
//
// CGO Build (sqlite_vec tag):
//
//   - Uses github.com/mattn/go-sqlite3 driver
//
//   - Computes similarity in SQL with vec_distance_cosine
//
//     CGO_ENABLED=1 go build -tags "sqlite_vec"
//
// Pure Go Build (default, or purego tag):
//
//   - Uses modernc.org/sqlite driver
//
//   - Computes similarity in Go
//
//     CGO_ENABLED=0 go build -tags "purego"
package storage

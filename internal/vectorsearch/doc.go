// Package vectorsearch provides the semantic search providers used by the
// retriever.
//
// Two providers implement Provider:
//
//   - Discovery: Google Discovery Engine (Vertex AI Search). Results carry
//     position-derived scores (0.9, 0.8, ... floored at 0). Document payloads
//     are decoded through Value, a tagged union over JSON.
//   - Local: embeds the query and ranks embeddings stored in the sqlite index.
//     Results carry cosine similarity.
//
// Both return results in rank order and wrap every failure in *Error. Local
// returns at most one result per document.
package vectorsearch

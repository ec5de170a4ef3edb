// Package keywords implements the lexical fallback ranker: keyword extraction
// with a Norwegian stopword list, a keyword/title relevance score in [0, 1],
// and ranking of a document set against a query.
//
// The ranker needs no external service, so it answers when vector search is
// down or returns nothing. Its scores are not comparable with vector scores.
package keywords

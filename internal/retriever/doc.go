// Package retriever orchestrates query-time retrieval.
//
// Search follows a fixed path per query:
//
//	cache lookup ── hit ──────────────────────────────► respond (source=cache)
//	     │ miss
//	vector search ── results ── cache write ──────────► respond (source=vector)
//	     │ error or empty
//	keyword fallback ─────────────────────────────────► respond (source=keyword|none)
//
// Provider errors are logged and never returned. Fallback results are not
// cached. Vector scores are rank-derived or similarities while keyword scores
// come from the ranker; the two scales are not comparable and are not
// rescaled.
//
// Ask adds the generation step: the results are rendered by BuildContext,
// passed to a Generator, and the answer is attributed to a result by
// ResolveCitation.
package retriever

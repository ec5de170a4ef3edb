// Package embedder generates vector embeddings for document chunks and queries.
//
// Providers: OpenAI (and OpenAI-compatible gateways through BaseURL), Jina AI,
// and a local hashing provider that needs no network.
//
// # Basic Usage
//
//	emb, err := embedder.New(embedder.Config{Provider: "openai", CacheSize: 10000})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer emb.Close()
//
//	vec, err := emb.Embed(ctx, "Hvordan melder jeg fravær?")
//
// # Batches
//
// EmbedBatch sends all inputs in one request and returns one embedding per
// input in input order, re-sorting by the index the provider assigns. An
// empty slice returns immediately; empty strings inside a batch are embedded
// like any other input. Only the single form rejects blank text (ErrEmptyInput).
//
// # Truncation
//
// Inputs longer than MaxInputChars characters are cut before submission. The
// cut is silent and lossy: text past the limit does not influence the vector.
//
// # Errors and Retries
//
// Provider failures (HTTP status, network, malformed payload) are returned as
// *ProviderError, which matches ErrProviderFailed with errors.Is. Embedders
// never retry; callers that want retries wrap calls in Retry:
//
//	vecs, err := embedder.Retry(ctx, embedder.DefaultRetryConfig(), func() ([]*embedder.Embedding, error) {
//	    return emb.EmbedBatch(ctx, texts)
//	})
//
// A Fallback pairs two providers of equal dimension and switches to the
// second when the first returns a provider error.
package embedder

package types

// RetrievalResult is one passage returned to the caller. Score semantics depend
// on the path that produced it: vector results use position-derived scores,
// keyword results use ranker scores in [0, 1]. They are never rescaled.
type RetrievalResult struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	SourceLink string  `json:"link,omitempty"`
	Score      float64 `json:"score"`
}

// Validate checks if the result is usable as a citation
func (r *RetrievalResult) Validate() error {
	if r.ID == "" {
		return ErrMissingResultID
	}

	if r.Score < 0 {
		return ErrInvalidScore
	}

	return nil
}

// Citation returns the citation data for this result
func (r *RetrievalResult) Citation() Citation {
	return Citation{ID: r.ID, Title: r.Title, SourceLink: r.SourceLink}
}

// Citation names the document an answer is grounded in
type Citation struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	SourceLink string `json:"link,omitempty"`
}

// Source identifies which retrieval path produced a result set
type Source string

const (
	SourceCache   Source = "cache"
	SourceVector  Source = "vector"
	SourceKeyword Source = "keyword"
	SourceNone    Source = "none"
)

// Bundle is the context bundle handed to an answer generator
type Bundle struct {
	Query   string            `json:"query"`
	Scope   string            `json:"scope,omitempty"`
	Results []RetrievalResult `json:"results"`
	Source  Source            `json:"source"`
}

// Citations returns one citation per result, in result order
func (b *Bundle) Citations() []Citation {
	out := make([]Citation, 0, len(b.Results))
	for i := range b.Results {
		out = append(out, b.Results[i].Citation())
	}
	return out
}

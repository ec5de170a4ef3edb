package retriever

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/docground/pkg/types"
)

// Answer is the output of a generation step
type Answer struct {
	Text    string
	CitedID string // optional ID of the result the answer relies on
}

// Generator produces an answer from a query and the grounded context
type Generator interface {
	Generate(ctx context.Context, query, grounding string) (Answer, error)
}

// GeneratorFunc adapts a function to Generator
type GeneratorFunc func(ctx context.Context, query, grounding string) (Answer, error)

func (f GeneratorFunc) Generate(ctx context.Context, query, grounding string) (Answer, error) {
	return f(ctx, query, grounding)
}

// GroundedAnswer is an answer together with the bundle it was grounded in
type GroundedAnswer struct {
	Answer   Answer
	Bundle   *types.Bundle
	Citation *types.Citation // nil when no result could be attributed
}

// BuildContext renders results as delimited document blocks, in order
func BuildContext(results []types.RetrievalResult) string {
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "---\nDOCUMENT: %s\nCONTENT:\n%s\n---", r.Title, r.Content)
	}
	return b.String()
}

// Ask retrieves context for req and hands it to gen. Retrieval never fails
// except for an empty query; generation errors are returned as-is.
func (r *Retriever) Ask(ctx context.Context, req Request, gen Generator) (*GroundedAnswer, error) {
	bundle, err := r.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	answer, err := gen.Generate(ctx, bundle.Query, BuildContext(bundle.Results))
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &GroundedAnswer{
		Answer:   answer,
		Bundle:   bundle,
		Citation: ResolveCitation(answer, bundle.Results),
	}, nil
}

// ResolveCitation picks the result an answer is grounded in: the cited ID
// when it names a result, otherwise the first result whose title appears in
// the answer text, ignoring case.
func ResolveCitation(answer Answer, results []types.RetrievalResult) *types.Citation {
	if answer.CitedID != "" {
		for i := range results {
			if results[i].ID == answer.CitedID {
				c := results[i].Citation()
				return &c
			}
		}
	}

	text := strings.ToLower(answer.Text)
	for i := range results {
		title := strings.ToLower(strings.TrimSpace(results[i].Title))
		if title != "" && strings.Contains(text, title) {
			c := results[i].Citation()
			return &c
		}
	}
	return nil
}

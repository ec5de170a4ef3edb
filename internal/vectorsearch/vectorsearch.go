package vectorsearch

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/dshills/docground/pkg/types"
)

const (
	// DefaultPageSize is the number of results requested when a query sets none
	DefaultPageSize = 5

	// UntitledDocument is the title used when a result carries none
	UntitledDocument = "Uten tittel"

	// MaxRankedPageSize is the deepest page with distinct rank scores; the
	// Discovery provider never requests more
	MaxRankedPageSize = 10

	topRankScore = 0.9
	rankStep     = 0.1
)

// Query is one vector search request
type Query struct {
	Text     string
	Scope    string // empty searches every scope
	PageSize int
}

// Provider searches a semantic index. Implementations return results in rank
// order; errors are wrapped in *Error.
type Provider interface {
	Search(ctx context.Context, q Query) ([]types.RetrievalResult, error)
	Name() string
}

// Error reports a failed provider call
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("vector search %s: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// RankScore maps a 0-based rank to a descending score: 0.9, 0.8, ... floored
// at 0. Ranks from 9 on all score 0, which is why rank-scored providers cap
// their page at MaxRankedPageSize.
func RankScore(rank int) float64 {
	score := topRankScore - float64(rank)*rankStep
	if score < 0 {
		return 0
	}
	return score
}

var htmlTag = regexp.MustCompile(`<[^>]*>`)

// StripHTML removes markup tags, leaving their text
func StripHTML(s string) string {
	return htmlTag.ReplaceAllString(s, "")
}

func pageSize(q Query) int {
	if q.PageSize <= 0 {
		return DefaultPageSize
	}
	return q.PageSize
}

// lastSegment returns the part of a resource name after the final slash
func lastSegment(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 && i < len(name)-1 {
		return name[i+1:]
	}
	return name
}

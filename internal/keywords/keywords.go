package keywords

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dshills/docground/pkg/types"
)

const (
	// DefaultMaxKeywords is the size of a stored document keyword set
	DefaultMaxKeywords = 10
	// QueryKeywords is how many keywords are taken from a query when ranking
	QueryKeywords = 5
	// DefaultMaxResults bounds RankAndFilter output when no limit is given
	DefaultMaxResults = 10
	// MinKeywordLength is the shortest token kept as a keyword
	MinKeywordLength = 3
)

// Score weights
const (
	exactWeight   = 1.0
	partialWeight = 0.5
	titleWeight   = 2.0
)

// Scored pairs a document with its keyword relevance score
type Scored struct {
	Document types.Document
	Score    float64
}

// Normalize lowercases text, replaces every character outside a-z, æ, ø, å and
// whitespace with a space, and collapses whitespace runs to single spaces.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	space := true
	for _, r := range strings.ToLower(text) {
		if isKeywordLetter(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimRight(b.String(), " ")
}

func isKeywordLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || r == 'æ' || r == 'ø' || r == 'å'
}

// ExtractKeywords returns up to maxKeywords tokens from text ordered by
// descending frequency. Stopwords and tokens shorter than MinKeywordLength are
// dropped. Equal frequencies keep first-occurrence order.
func ExtractKeywords(text string, maxKeywords int) []string {
	if text == "" || maxKeywords <= 0 {
		return nil
	}

	freq := make(map[string]int)
	var order []string
	for _, word := range strings.Fields(Normalize(text)) {
		if IsStopword(word) || utf8.RuneCountInString(word) < MinKeywordLength {
			continue
		}
		if freq[word] == 0 {
			order = append(order, word)
		}
		freq[word]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return freq[order[i]] > freq[order[j]]
	})

	if len(order) > maxKeywords {
		order = order[:maxKeywords]
	}
	return order
}

// DocumentKeywords builds the stored keyword set for a document
func DocumentKeywords(title, content string) []string {
	return ExtractKeywords(strings.TrimSpace(title+" "+content), DefaultMaxKeywords)
}

// Score rates how well a document matches the query keywords, in [0, 1].
// Per query keyword: +1.0 for an exact keyword match, +0.5 when a document
// keyword contains or is contained in it (stacking with exact), and +2.0 when
// the title contains it. The sum is divided by twice the keyword count and
// capped at 1.
func Score(queryKeywords, documentKeywords []string, title string) float64 {
	if len(queryKeywords) == 0 {
		return 0
	}

	titleLower := strings.ToLower(title)
	var score float64
	for _, qk := range queryKeywords {
		exact, partial := false, false
		for _, dk := range documentKeywords {
			if dk == qk {
				exact = true
			}
			if strings.Contains(dk, qk) || strings.Contains(qk, dk) {
				partial = true
			}
		}
		if exact {
			score += exactWeight
		}
		if partial {
			score += partialWeight
		}
		if strings.Contains(titleLower, qk) {
			score += titleWeight
		}
	}

	return min(score/float64(len(queryKeywords)*2), 1.0)
}

// Rank scores documents against query. If the query has no usable keywords
// the first maxResults documents are returned in input order with score 0.
// Otherwise documents scoring 0 are dropped and the rest are sorted by
// descending score, ties keeping input order.
func Rank(query string, docs []types.Document, maxResults int) []Scored {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	queryKeywords := ExtractKeywords(query, QueryKeywords)
	if len(queryKeywords) == 0 {
		n := min(maxResults, len(docs))
		out := make([]Scored, n)
		for i := 0; i < n; i++ {
			out[i] = Scored{Document: docs[i]}
		}
		return out
	}

	scored := make([]Scored, 0, len(docs))
	for _, doc := range docs {
		s := Score(queryKeywords, doc.Keywords, doc.Title)
		if s > 0 {
			scored = append(scored, Scored{Document: doc, Score: s})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > maxResults {
		scored = scored[:maxResults]
	}
	return scored
}

// RankAndFilter is Rank without the scores
func RankAndFilter(query string, docs []types.Document, maxResults int) []types.Document {
	ranked := Rank(query, docs, maxResults)
	out := make([]types.Document, len(ranked))
	for i, s := range ranked {
		out[i] = s.Document
	}
	return out
}

// IsStopword reports whether word is in the stopword set
func IsStopword(word string) bool {
	_, ok := stopwords[word]
	return ok
}


package keywords

import (
	"testing"

	"github.com/dshills/docground/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello, World!", "hello world"},
		{"  Brann-øvelse   på  LAGERET\n", "brann øvelse på lageret"},
		{"Rømningsvei #2 (nord)", "rømningsvei nord"},
		{"café", "caf"},
		{"123 !!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestExtractKeywords(t *testing.T) {
	t.Run("frequency order", func(t *testing.T) {
		text := "Brann brann brann. Slukker slukker. Rømning."
		assert.Equal(t, []string{"brann", "slukker", "rømning"}, ExtractKeywords(text, 10))
	})

	t.Run("drops stopwords and short tokens", func(t *testing.T) {
		text := "Det er en ny rutine for alle som har ferie"
		assert.Equal(t, []string{"rutine", "ferie"}, ExtractKeywords(text, 10))
	})

	t.Run("ties keep first occurrence", func(t *testing.T) {
		assert.Equal(t, []string{"zebra", "apple", "mango"}, ExtractKeywords("zebra apple mango", 10))
	})

	t.Run("limit", func(t *testing.T) {
		assert.Equal(t, []string{"alpha", "beta"}, ExtractKeywords("alpha alpha beta gamma", 2))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, ExtractKeywords("", 10))
		assert.Empty(t, ExtractKeywords("og i på", 10))
		assert.Empty(t, ExtractKeywords("valid words", 0))
	})
}

func TestDocumentKeywords(t *testing.T) {
	kw := DocumentKeywords("Brannrutiner", "Ved brann skal alle bruke nærmeste rømningsvei.")
	assert.Contains(t, kw, "brannrutiner")
	assert.Contains(t, kw, "brann")
	assert.Contains(t, kw, "rømningsvei")
	assert.NotContains(t, kw, "skal")
	assert.LessOrEqual(t, len(kw), DefaultMaxKeywords)
}

func TestScore(t *testing.T) {
	tests := []struct {
		name  string
		query []string
		doc   []string
		title string
		want  float64
	}{
		{"no query keywords", nil, []string{"brann"}, "Brann", 0},
		{"exact and partial stack", []string{"brann"}, []string{"brann"}, "Ferie", 0.75},
		{"partial only", []string{"brann"}, []string{"brannvern"}, "Ferie", 0.25},
		{"partial reverse containment", []string{"brannvern"}, []string{"brann"}, "Ferie", 0.25},
		{"title bonus only", []string{"brann"}, nil, "Brannrutiner", 1.0},
		{"capped at one", []string{"brann"}, []string{"brann"}, "Brann", 1.0},
		{"no match", []string{"ferie"}, []string{"brann"}, "Brannrutiner", 0},
		{"averaged over keywords", []string{"brann", "ferie"}, []string{"brann"}, "Annet", 0.375},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(tt.query, tt.doc, tt.title), 1e-9)
		})
	}
}

func TestScore_TitleMatchDominates(t *testing.T) {
	q := ExtractKeywords("brann", QueryKeywords)
	require.Equal(t, []string{"brann"}, q)

	s := Score(q, []string{"ferie", "sommer"}, "Brannrutiner")
	assert.Greater(t, s, 0.0)
	assert.InDelta(t, 1.0, s, 1e-9)
}

func docs() []types.Document {
	return []types.Document{
		{ID: "1", Title: "Ferieavvikling", Keywords: []string{"ferie", "sommer"}},
		{ID: "2", Title: "Brannrutiner", Keywords: []string{"brann", "rømningsvei"}},
		{ID: "3", Title: "Brannvern på lageret", Keywords: []string{"brannvern", "lager"}},
		{ID: "4", Title: "Sykemelding", Keywords: []string{"sykdom", "lege"}},
	}
}

func TestRankAndFilter_NoKeywordsReturnsPrefix(t *testing.T) {
	all := docs()

	got := RankAndFilter("og i på ?", all, 3)
	require.Len(t, got, 3)
	assert.Equal(t, all[:3], got)

	got = RankAndFilter("", all, 10)
	assert.Equal(t, all, got)
}

func TestRankAndFilter_FiltersAndSorts(t *testing.T) {
	got := RankAndFilter("brann", docs(), 10)

	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].ID)
	assert.Equal(t, "3", got[1].ID)
}

func TestRank_Scores(t *testing.T) {
	ranked := Rank("brann lager", docs(), 10)

	require.NotEmpty(t, ranked)
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Score, ranked[i].Score)
	}
	for _, r := range ranked {
		assert.Greater(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
	}
}

func TestRank_Limit(t *testing.T) {
	ranked := Rank("brann", docs(), 1)
	require.Len(t, ranked, 1)
	assert.Equal(t, "2", ranked[0].Document.ID)
}

func TestRank_DefaultLimit(t *testing.T) {
	many := make([]types.Document, 25)
	for i := range many {
		many[i] = types.Document{ID: string(rune('a' + i)), Title: "Brann"}
	}
	assert.Len(t, Rank("brann", many, 0), DefaultMaxResults)
}

func TestIsStopword(t *testing.T) {
	assert.True(t, IsStopword("og"))
	assert.True(t, IsStopword("også"))
	assert.False(t, IsStopword("brann"))
}

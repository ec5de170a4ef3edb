package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docground/pkg/types"
)

func TestBuildContext(t *testing.T) {
	got := BuildContext([]types.RetrievalResult{
		{ID: "1", Title: "Brannrutiner", Content: "Ved brann"},
		{ID: "2", Title: "Ferie", Content: "Søk innen mars"},
	})

	want := "---\nDOCUMENT: Brannrutiner\nCONTENT:\nVed brann\n---\n" +
		"---\nDOCUMENT: Ferie\nCONTENT:\nSøk innen mars\n---"
	assert.Equal(t, want, got)
	assert.Equal(t, "", BuildContext(nil))
}

func TestResolveCitation(t *testing.T) {
	results := []types.RetrievalResult{
		{ID: "1", Title: "Brannrutiner", SourceLink: "https://x/1"},
		{ID: "2", Title: "Ferie", SourceLink: "https://x/2"},
	}

	tests := []struct {
		name   string
		answer Answer
		want   string
	}{
		{"cited id wins", Answer{Text: "Se Brannrutiner", CitedID: "2"}, "2"},
		{"unknown id falls back to title", Answer{Text: "Ifølge BRANNRUTINER skal du gå ut", CitedID: "9"}, "1"},
		{"title match", Answer{Text: "Se ferie-dokumentet"}, "2"},
		{"no match", Answer{Text: "Jeg vet ikke"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveCitation(tt.answer, results)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.ID)
			assert.Equal(t, "https://x/"+tt.want, got.SourceLink)
		})
	}
}

func TestResolveCitation_IgnoresBlankTitles(t *testing.T) {
	got := ResolveCitation(Answer{Text: "anything"}, []types.RetrievalResult{{ID: "1", Title: "  "}})
	assert.Nil(t, got)
}

func TestAsk(t *testing.T) {
	provider := &fakeProvider{results: vectorResults}
	r := New(WithProvider(provider))

	var gotQuery, gotContext string
	gen := GeneratorFunc(func(_ context.Context, query, grounding string) (Answer, error) {
		gotQuery, gotContext = query, grounding
		return Answer{Text: "Følg evakuering-planen."}, nil
	})

	ans, err := r.Ask(context.Background(), Request{Query: " brann "}, gen)
	require.NoError(t, err)

	assert.Equal(t, "brann", gotQuery)
	assert.Equal(t, BuildContext(vectorResults), gotContext)
	assert.Equal(t, types.SourceVector, ans.Bundle.Source)
	require.NotNil(t, ans.Citation)
	assert.Equal(t, "v2", ans.Citation.ID)
}

func TestAsk_Errors(t *testing.T) {
	r := New()
	gen := GeneratorFunc(func(context.Context, string, string) (Answer, error) {
		return Answer{}, errors.New("model unavailable")
	})

	_, err := r.Ask(context.Background(), Request{Query: ""}, gen)
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = r.Ask(context.Background(), Request{Query: "brann"}, gen)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model unavailable")
}

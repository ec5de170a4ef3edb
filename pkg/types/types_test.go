package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentValidate(t *testing.T) {
	tests := []struct {
		name    string
		doc     Document
		wantErr error
	}{
		{"valid", Document{ID: "a", Title: "Ferie", Content: "Fem uker."}, nil},
		{"missing id", Document{Title: "Ferie", Content: "Fem uker."}, ErrMissingDocumentID},
		{"blank title", Document{ID: "a", Title: " \t", Content: "Fem uker."}, ErrMissingTitle},
		{"blank content", Document{ID: "a", Title: "Ferie", Content: "\n"}, ErrEmptyContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.doc.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDocumentContentHash(t *testing.T) {
	a := Document{Title: "Ferie", Content: "Fem uker."}
	a.ComputeContentHash()

	b := a
	b.Scope = "org-1"
	b.ComputeContentHash()
	assert.Equal(t, a.ContentHash, b.ContentHash)

	b.Title = "Ferieregler"
	b.ComputeContentHash()
	assert.NotEqual(t, a.ContentHash, b.ContentHash)
}

func TestTextChunkValidate(t *testing.T) {
	c := TextChunk{Index: 0, Content: "abc", StartOffset: 0, EndOffset: 3}
	require.NoError(t, c.Validate())
	assert.Equal(t, 3, c.Length())

	c.EndOffset = -1
	assert.Error(t, c.Validate())

	c = TextChunk{Index: -1, Content: "abc"}
	assert.Error(t, c.Validate())

	c = TextChunk{}
	assert.Error(t, c.Validate())
}

func TestResultValidate(t *testing.T) {
	r := RetrievalResult{ID: "a", Score: 0.4}
	assert.NoError(t, r.Validate())

	r.Score = -0.1
	assert.ErrorIs(t, r.Validate(), ErrInvalidScore)

	r = RetrievalResult{}
	assert.ErrorIs(t, r.Validate(), ErrMissingResultID)
}

func TestBundleCitations(t *testing.T) {
	doc := Document{ID: "d1", Title: "Reise", Content: "Reiseregning.", SourceLink: "https://x/reise"}
	b := Bundle{
		Query:   "reise",
		Results: []RetrievalResult{doc.Result(0.9), {ID: "d2", Title: "Ferie"}},
		Source:  SourceVector,
	}

	citations := b.Citations()
	require.Len(t, citations, 2)
	assert.Equal(t, Citation{ID: "d1", Title: "Reise", SourceLink: "https://x/reise"}, citations[0])
	assert.Equal(t, "d2", citations[1].ID)
	assert.Empty(t, (&Bundle{}).Citations())
}

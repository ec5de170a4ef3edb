package embedder

import (
	"context"
	"errors"
	"fmt"
)

// Fallback embeds with a primary provider and switches to a secondary one
// when the primary reports a provider error. Both must produce vectors of
// the same dimension so stored and query vectors stay comparable.
type Fallback struct {
	primary   Embedder
	secondary Embedder
}

// NewFallback pairs two embedders of equal dimension
func NewFallback(primary, secondary Embedder) (*Fallback, error) {
	if primary.Dimension() != secondary.Dimension() {
		return nil, fmt.Errorf("%w: %s=%d, %s=%d", ErrDimensionMismatch,
			primary.Provider(), primary.Dimension(), secondary.Provider(), secondary.Dimension())
	}
	return &Fallback{primary: primary, secondary: secondary}, nil
}

func (f *Fallback) Embed(ctx context.Context, text string) (*Embedding, error) {
	return embedOne(ctx, f, text)
}

func (f *Fallback) EmbedBatch(ctx context.Context, texts []string) ([]*Embedding, error) {
	out, err := f.primary.EmbedBatch(ctx, texts)
	if err == nil {
		return out, nil
	}

	var perr *ProviderError
	if !errors.As(err, &perr) || ctx.Err() != nil {
		return nil, err
	}

	out, err2 := f.secondary.EmbedBatch(ctx, texts)
	if err2 != nil {
		return nil, errors.Join(err, err2)
	}
	return out, nil
}

func (f *Fallback) Dimension() int {
	return f.primary.Dimension()
}

func (f *Fallback) Provider() string {
	return f.primary.Provider() + "+" + f.secondary.Provider()
}

func (f *Fallback) Model() string {
	return f.primary.Model()
}

// Members returns the primary and secondary embedders. Stored vectors carry
// the provider and model of whichever member produced them.
func (f *Fallback) Members() []Embedder {
	return []Embedder{f.primary, f.secondary}
}

func (f *Fallback) Close() error {
	return errors.Join(f.primary.Close(), f.secondary.Close())
}

// Package embedding turns submission and exercise text into vectors
// and caches them so repeated scoring of the same text costs one
// provider call.
package embedding

import (
	"context"

	"github.com/abhisek/rubrix/internal/llm"
)

// Embedder produces one vector per input text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// providerEmbedder adapts an llm.Provider to the Embedder interface.
type providerEmbedder struct {
	provider llm.Provider
}

// New returns an Embedder backed by the given provider.
func New(p llm.Provider) Embedder {
	return &providerEmbedder{provider: p}
}

func (e *providerEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	return e.provider.Embed(ctx, texts)
}

package domain

import "context"

// Embedder produces embedding vectors for an ordered batch of texts.
// Implementations must return exactly one vector per input text, in input
// order. An empty model selects the implementation's default.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string, model string) ([][]float32, error)
}

package embedding

import (
	"context"
	"errors"
)

// ErrBackend marks failures of the remote embedding service.
var ErrBackend = errors.New("embedding backend failure")

// Embedder turns text into fixed-dimension vectors. EmbedBatch preserves input
// order and length; an empty input returns an empty result, not an error. A
// batch either fully succeeds or the whole call fails.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

package vectorindex

import (
	"context"
	"errors"

	"stormrag/internal/domain/document"
)

// ErrShapeMismatch is returned by Build when the vector count does not equal
// the chunk count. This is a programmer error, never retried.
var ErrShapeMismatch = errors.New("chunk and vector counts differ")

// Index stores (chunk, vector) pairs bound 1:1 and answers top-k
// nearest-neighbor queries.
//
// Build with zero vectors is a no-op that leaves any prior index untouched.
// A non-empty Build extends the index with the new pairs; it never replaces
// what earlier builds stored.
// Query before any successful Build returns an empty slice, not an error.
// Results are ordered by strictly descending score, ties broken by insertion
// order; higher score always means more relevant.
type Index interface {
	Build(ctx context.Context, chunks []document.Chunk, vectors [][]float32) error
	Query(ctx context.Context, q document.SearchQuery, topK int) ([]document.RetrievedChunk, error)
	// Size reports how many chunks are currently indexed.
	Size(ctx context.Context) int
}

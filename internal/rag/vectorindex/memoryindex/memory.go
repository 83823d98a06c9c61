package memoryindex

import (
	"context"
	"math"
	"sort"
	"sync"

	"stormrag/internal/domain/document"
	"stormrag/internal/rag/vectorindex"
)

// Index is a brute-force in-memory vector index using cosine similarity.
// Single-writer/multiple-reader safe; concurrent builds serialize on the lock.
type Index struct {
	mu      sync.RWMutex
	chunks  []document.Chunk
	vectors [][]float32
}

func New() *Index { return &Index{} }

func (idx *Index) Build(ctx context.Context, chunks []document.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return vectorindex.ErrShapeMismatch
	}
	// Empty build keeps whatever was indexed before.
	if len(vectors) == 0 {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.chunks = append(idx.chunks, chunks...)
	idx.vectors = append(idx.vectors, vectors...)
	return nil
}

func (idx *Index) Query(ctx context.Context, q document.SearchQuery, topK int) ([]document.RetrievedChunk, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.vectors) == 0 || topK <= 0 {
		return []document.RetrievedChunk{}, nil
	}

	results := make([]document.RetrievedChunk, len(idx.vectors))
	for i, v := range idx.vectors {
		results[i] = document.RetrievedChunk{
			Chunk: idx.chunks[i],
			Score: cosine(q.Vector, v),
		}
	}
	// Stable keeps insertion order for equal scores.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK], nil
}

func (idx *Index) Size(ctx context.Context) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.chunks)
}

func cosine(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

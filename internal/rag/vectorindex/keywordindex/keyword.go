package keywordindex

import (
	"context"
	"sort"
	"strings"
	"sync"

	"stormrag/internal/domain/document"
	"stormrag/internal/rag/vectorindex"
)

// Index scores chunks by word overlap instead of vector math: the score is the
// fraction of query words (case-insensitive, whitespace-split) found in the
// chunk's text. Vectors passed to Build are accepted for contract parity and
// ignored; chunks are cached by id for content-based scoring.
type Index struct {
	mu     sync.RWMutex
	chunks []document.Chunk
	byID   map[string]document.Chunk
}

func New() *Index {
	return &Index{byID: make(map[string]document.Chunk)}
}

func (idx *Index) Build(ctx context.Context, chunks []document.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return vectorindex.ErrShapeMismatch
	}
	if len(chunks) == 0 {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, c := range chunks {
		idx.chunks = append(idx.chunks, c)
		idx.byID[c.ID] = c
	}
	return nil
}

func (idx *Index) Query(ctx context.Context, q document.SearchQuery, topK int) ([]document.RetrievedChunk, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.chunks) == 0 || topK <= 0 {
		return []document.RetrievedChunk{}, nil
	}

	words := strings.Fields(strings.ToLower(q.Text))
	results := make([]document.RetrievedChunk, len(idx.chunks))
	for i, c := range idx.chunks {
		results[i] = document.RetrievedChunk{
			Chunk: c,
			Score: overlapScore(words, c.Text),
		}
	}
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

// overlapScore is normalized to [0,1]. An empty query scores 0 for every
// chunk rather than dividing by zero.
func overlapScore(queryWords []string, text string) float32 {
	if len(queryWords) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	hits := 0
	for _, w := range queryWords {
		if strings.Contains(lower, w) {
			hits++
		}
	}
	return float32(hits) / float32(len(queryWords))
}

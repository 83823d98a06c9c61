package rag

import (
	"context"
	"sync"

	"stormrag/internal/domain/document"
)

type mockParser struct {
	OnUpload       func(ctx context.Context, filePath string) (document.Job, error)
	OnGetJobResult func(ctx context.Context, jobID string) (document.Job, []document.ParsedPage, error)
}

func (m *mockParser) Upload(ctx context.Context, filePath string) (document.Job, error) {
	return m.OnUpload(ctx, filePath)
}

func (m *mockParser) GetJobResult(ctx context.Context, jobID string) (document.Job, []document.ParsedPage, error) {
	return m.OnGetJobResult(ctx, jobID)
}

type mockEmbedder struct {
	OnEmbedBatch func(ctx context.Context, texts []string) ([][]float32, error)
	OnEmbedQuery func(ctx context.Context, text string) ([]float32, error)
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if m.OnEmbedBatch != nil {
		return m.OnEmbedBatch(ctx, texts)
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 0}
	}
	return vectors, nil
}

func (m *mockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if m.OnEmbedQuery != nil {
		return m.OnEmbedQuery(ctx, text)
	}
	return []float32{1, 0}, nil
}

type mockIndex struct {
	OnBuild func(ctx context.Context, chunks []document.Chunk, vectors [][]float32) error
	OnQuery func(ctx context.Context, q document.SearchQuery, topK int) ([]document.RetrievedChunk, error)

	mu      sync.Mutex
	indexed []document.Chunk
}

func (m *mockIndex) Build(ctx context.Context, chunks []document.Chunk, vectors [][]float32) error {
	if m.OnBuild != nil {
		return m.OnBuild(ctx, chunks, vectors)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indexed = append(m.indexed, chunks...)
	return nil
}

func (m *mockIndex) Query(ctx context.Context, q document.SearchQuery, topK int) ([]document.RetrievedChunk, error) {
	if m.OnQuery != nil {
		return m.OnQuery(ctx, q, topK)
	}
	return []document.RetrievedChunk{}, nil
}

func (m *mockIndex) Size(ctx context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.indexed)
}

func (m *mockIndex) indexedChunks() []document.Chunk {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]document.Chunk, len(m.indexed))
	copy(out, m.indexed)
	return out
}

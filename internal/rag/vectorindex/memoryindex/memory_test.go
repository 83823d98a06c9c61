package memoryindex

import (
	"context"
	"errors"
	"testing"

	"stormrag/internal/domain/document"
	"stormrag/internal/rag/vectorindex"
)

func chunk(id, text string) document.Chunk {
	return document.Chunk{ID: id, DocumentID: "doc-1", Text: text, PageNumber: 1}
}

func TestQueryBeforeBuild(t *testing.T) {
	idx := New()
	got, err := idx.Query(context.Background(), document.SearchQuery{Vector: []float32{1, 0}}, 3)
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d results from an empty index, want 0", len(got))
	}
}

func TestBuildShapeMismatch(t *testing.T) {
	idx := New()
	err := idx.Build(context.Background(), []document.Chunk{chunk("a", "a")}, nil)
	if !errors.Is(err, vectorindex.ErrShapeMismatch) {
		t.Fatalf("got %v, want ErrShapeMismatch", err)
	}
}

func TestEmptyBuildKeepsExistingIndex(t *testing.T) {
	idx := New()
	ctx := context.Background()
	if err := idx.Build(ctx, []document.Chunk{chunk("a", "alpha")}, [][]float32{{1, 0}}); err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if err := idx.Build(ctx, nil, nil); err != nil {
		t.Fatalf("empty Build returned error: %v", err)
	}
	if n := idx.Size(ctx); n != 1 {
		t.Errorf("Size = %d after empty build, want 1", n)
	}
}

func TestBuildExtendsExistingIndex(t *testing.T) {
	idx := New()
	ctx := context.Background()
	if err := idx.Build(ctx, []document.Chunk{chunk("a", "alpha")}, [][]float32{{1, 0}}); err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if err := idx.Build(ctx, []document.Chunk{chunk("b", "beta")}, [][]float32{{0, 1}}); err != nil {
		t.Fatalf("second Build returned error: %v", err)
	}

	if n := idx.Size(ctx); n != 2 {
		t.Fatalf("Size = %d after two builds, want 2", n)
	}
	got, err := idx.Query(ctx, document.SearchQuery{Vector: []float32{1, 0}}, 2)
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a" {
		t.Errorf("results after second build = %+v, want both chunks with a first", got)
	}
}

func TestQueryRanksByCosine(t *testing.T) {
	idx := New()
	ctx := context.Background()
	chunks := []document.Chunk{chunk("a", "alpha"), chunk("b", "beta"), chunk("c", "gamma")}
	vectors := [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	if err := idx.Build(ctx, chunks, vectors); err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	got, err := idx.Query(ctx, document.SearchQuery{Vector: []float32{0.9, 0.1, 0}}, 2)
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("ranking = [%s %s], want [a b]", got[0].ID, got[1].ID)
	}
	if got[0].Score <= got[1].Score {
		t.Errorf("scores not descending: %f then %f", got[0].Score, got[1].Score)
	}
}

func TestQueryClampsTopK(t *testing.T) {
	idx := New()
	ctx := context.Background()
	if err := idx.Build(ctx, []document.Chunk{chunk("a", "alpha"), chunk("b", "beta")}, [][]float32{{1, 0}, {0, 1}}); err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	got, err := idx.Query(ctx, document.SearchQuery{Vector: []float32{1, 1}}, 10)
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d results, want all 2", len(got))
	}
}

func TestQueryTieKeepsInsertionOrder(t *testing.T) {
	idx := New()
	ctx := context.Background()
	// Identical vectors score identically; stable sort keeps build order.
	chunks := []document.Chunk{chunk("first", "one"), chunk("second", "two")}
	if err := idx.Build(ctx, chunks, [][]float32{{1, 1}, {1, 1}}); err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	got, err := idx.Query(ctx, document.SearchQuery{Vector: []float32{1, 1}}, 2)
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if got[0].ID != "first" || got[1].ID != "second" {
		t.Errorf("tie order = [%s %s], want [first second]", got[0].ID, got[1].ID)
	}
}

func TestCosineZeroVector(t *testing.T) {
	if s := cosine([]float32{0, 0}, []float32{1, 1}); s != 0 {
		t.Errorf("cosine with zero vector = %f, want 0", s)
	}
}

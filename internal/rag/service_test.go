package rag

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"stormrag/internal/data/store"
	"stormrag/internal/domain/document"
)

func testService(t *testing.T, parser *mockParser, embedder *mockEmbedder, index *mockIndex) (Service, document.JobStore, document.DocumentStore) {
	t.Helper()
	registry := store.InitInMemoryJobStore()
	docs := store.InitInMemoryDocumentStore()
	svc := NewService(context.Background(), parser, embedder, index, registry, docs, PollerConfig{
		Interval:     time.Millisecond,
		ChunkSize:    1000,
		ChunkOverlap: 100,
	})
	return svc, registry, docs
}

// sequencedResults returns each result once, in order, then repeats the last.
func sequencedResults(results ...func() (document.Job, []document.ParsedPage, error)) func(ctx context.Context, jobID string) (document.Job, []document.ParsedPage, error) {
	var mu sync.Mutex
	call := 0
	return func(ctx context.Context, jobID string) (document.Job, []document.ParsedPage, error) {
		mu.Lock()
		defer mu.Unlock()
		i := call
		if i >= len(results) {
			i = len(results) - 1
		}
		call++
		return results[i]()
	}
}

func stateResult(jobID string, state document.JobState, pages []document.ParsedPage) func() (document.Job, []document.ParsedPage, error) {
	return func() (document.Job, []document.ParsedPage, error) {
		return document.Job{ID: jobID, State: state}, pages, nil
	}
}

func TestIngestionHappyPath(t *testing.T) {
	parser := &mockParser{
		OnUpload: func(ctx context.Context, filePath string) (document.Job, error) {
			return document.Job{ID: "job-1", State: document.StatePending}, nil
		},
		OnGetJobResult: sequencedResults(
			stateResult("job-1", document.StatePending, nil),
			stateResult("job-1", document.StateProcessing, nil),
			stateResult("job-1", document.StateCompleted, []document.ParsedPage{{PageNumber: 1, Content: "Test content"}}),
		),
	}
	index := &mockIndex{}
	svc, registry, docs := testService(t, parser, &mockEmbedder{}, index)

	job, err := svc.StartIngestion(context.Background(), "report.pdf", "/tmp/report.pdf")
	if err != nil {
		t.Fatalf("StartIngestion returned error: %v", err)
	}
	if job.State != document.StatePending {
		t.Errorf("initial state = %s, want PENDING", job.State)
	}

	svc.Wait()

	got, ok := registry.GetJob(context.Background(), "job-1")
	if !ok || got.State != document.StateCompleted {
		t.Errorf("registry state = %s (found=%v), want COMPLETED", got.State, ok)
	}

	indexed := index.indexedChunks()
	if len(indexed) != 1 {
		t.Fatalf("indexed %d chunks, want 1", len(indexed))
	}
	if indexed[0].Text != "Test content" || indexed[0].DocumentID != "job-1" {
		t.Errorf("indexed chunk = %+v", indexed[0])
	}

	listed, err := docs.ListDocuments(context.Background())
	if err != nil {
		t.Fatalf("ListDocuments returned error: %v", err)
	}
	if len(listed) != 1 || listed[0].Name != "report.pdf" {
		t.Errorf("documents = %+v, want one entry named report.pdf", listed)
	}
}

func TestIngestionFailedJobSkipsIndexing(t *testing.T) {
	parser := &mockParser{
		OnUpload: func(ctx context.Context, filePath string) (document.Job, error) {
			return document.Job{ID: "job-2", State: document.StatePending}, nil
		},
		OnGetJobResult: sequencedResults(
			stateResult("job-2", document.StateProcessing, nil),
			stateResult("job-2", document.StateFailed, nil),
		),
	}
	index := &mockIndex{}
	svc, registry, docs := testService(t, parser, &mockEmbedder{}, index)

	if _, err := svc.StartIngestion(context.Background(), "bad.pdf", "/tmp/bad.pdf"); err != nil {
		t.Fatalf("StartIngestion returned error: %v", err)
	}
	svc.Wait()

	got, _ := registry.GetJob(context.Background(), "job-2")
	if got.State != document.StateFailed {
		t.Errorf("registry state = %s, want FAILED", got.State)
	}
	if n := len(index.indexedChunks()); n != 0 {
		t.Errorf("indexed %d chunks from a failed job, want 0", n)
	}
	if listed, _ := docs.ListDocuments(context.Background()); len(listed) != 0 {
		t.Errorf("failed job appeared in document listing: %+v", listed)
	}
}

func TestIngestionPollErrorRecordsError(t *testing.T) {
	parser := &mockParser{
		OnUpload: func(ctx context.Context, filePath string) (document.Job, error) {
			return document.Job{ID: "job-3", State: document.StatePending}, nil
		},
		OnGetJobResult: func(ctx context.Context, jobID string) (document.Job, []document.ParsedPage, error) {
			return document.Job{}, nil, errors.New("backend unreachable")
		},
	}
	svc, registry, _ := testService(t, parser, &mockEmbedder{}, &mockIndex{})

	if _, err := svc.StartIngestion(context.Background(), "doc.pdf", "/tmp/doc.pdf"); err != nil {
		t.Fatalf("StartIngestion returned error: %v", err)
	}
	svc.Wait()

	got, ok := registry.GetJob(context.Background(), "job-3")
	if !ok || got.State != document.StateError {
		t.Errorf("registry state = %s (found=%v), want ERROR", got.State, ok)
	}
}

func TestIngestionEmbeddingFailureRecordsError(t *testing.T) {
	parser := &mockParser{
		OnUpload: func(ctx context.Context, filePath string) (document.Job, error) {
			return document.Job{ID: "job-4", State: document.StatePending}, nil
		},
		OnGetJobResult: sequencedResults(
			stateResult("job-4", document.StateCompleted, []document.ParsedPage{{PageNumber: 1, Content: "content"}}),
		),
	}
	embedder := &mockEmbedder{
		OnEmbedBatch: func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, errors.New("quota exceeded")
		},
	}
	svc, registry, _ := testService(t, parser, embedder, &mockIndex{})

	if _, err := svc.StartIngestion(context.Background(), "doc.pdf", "/tmp/doc.pdf"); err != nil {
		t.Fatalf("StartIngestion returned error: %v", err)
	}
	svc.Wait()

	got, _ := registry.GetJob(context.Background(), "job-4")
	if got.State != document.StateError {
		t.Errorf("registry state = %s, want ERROR", got.State)
	}
}

func TestIngestionPollAttemptLimit(t *testing.T) {
	parser := &mockParser{
		OnUpload: func(ctx context.Context, filePath string) (document.Job, error) {
			return document.Job{ID: "job-5", State: document.StatePending}, nil
		},
		OnGetJobResult: func(ctx context.Context, jobID string) (document.Job, []document.ParsedPage, error) {
			return document.Job{ID: jobID, State: document.StateProcessing}, nil, nil
		},
	}
	registry := store.InitInMemoryJobStore()
	svc := NewService(context.Background(), parser, &mockEmbedder{}, &mockIndex{}, registry, store.InitInMemoryDocumentStore(), PollerConfig{
		Interval:        time.Millisecond,
		MaxPollAttempts: 3,
		ChunkSize:       1000,
		ChunkOverlap:    100,
	})

	if _, err := svc.StartIngestion(context.Background(), "stuck.pdf", "/tmp/stuck.pdf"); err != nil {
		t.Fatalf("StartIngestion returned error: %v", err)
	}
	svc.Wait()

	got, _ := registry.GetJob(context.Background(), "job-5")
	if got.State != document.StateError {
		t.Errorf("registry state = %s, want ERROR after attempt limit", got.State)
	}
}

func TestShutdownMidPollKeepsLastState(t *testing.T) {
	parser := &mockParser{
		OnUpload: func(ctx context.Context, filePath string) (document.Job, error) {
			return document.Job{ID: "job-6", State: document.StatePending}, nil
		},
		OnGetJobResult: func(ctx context.Context, jobID string) (document.Job, []document.ParsedPage, error) {
			<-ctx.Done()
			return document.Job{}, nil, ctx.Err()
		},
	}
	rootCtx, cancel := context.WithCancel(context.Background())
	registry := store.InitInMemoryJobStore()
	svc := NewService(rootCtx, parser, &mockEmbedder{}, &mockIndex{}, registry, store.InitInMemoryDocumentStore(), PollerConfig{
		Interval:     time.Millisecond,
		ChunkSize:    1000,
		ChunkOverlap: 100,
	})

	if _, err := svc.StartIngestion(context.Background(), "doc.pdf", "/tmp/doc.pdf"); err != nil {
		t.Fatalf("StartIngestion returned error: %v", err)
	}
	cancel()
	svc.Wait()

	got, ok := registry.GetJob(context.Background(), "job-6")
	if !ok {
		t.Fatal("job missing from registry")
	}
	if got.State != document.StatePending {
		t.Errorf("registry state = %s after shutdown, want the last observed PENDING", got.State)
	}
}

func TestStartIngestionUploadFailure(t *testing.T) {
	parser := &mockParser{
		OnUpload: func(ctx context.Context, filePath string) (document.Job, error) {
			return document.Job{}, errors.New("503 from backend")
		},
	}
	svc, registry, _ := testService(t, parser, &mockEmbedder{}, &mockIndex{})

	if _, err := svc.StartIngestion(context.Background(), "doc.pdf", "/tmp/doc.pdf"); err == nil {
		t.Fatal("StartIngestion did not propagate the upload error")
	}
	if _, ok := registry.GetJob(context.Background(), "job-1"); ok {
		t.Error("a job was registered despite the failed upload")
	}
}

func TestAnswerQueryComposesRetrievedChunks(t *testing.T) {
	index := &mockIndex{
		OnQuery: func(ctx context.Context, q document.SearchQuery, topK int) ([]document.RetrievedChunk, error) {
			return []document.RetrievedChunk{
				{Chunk: document.Chunk{ID: "c1", Text: "First passage."}, Score: 0.9},
				{Chunk: document.Chunk{ID: "c2", Text: "Second passage."}, Score: 0.7},
			}, nil
		},
	}
	svc, _, _ := testService(t, &mockParser{}, &mockEmbedder{}, index)

	ans, err := svc.AnswerQuery(context.Background(), document.QueryRequest{Query: "what happened", TopK: 2})
	if err != nil {
		t.Fatalf("AnswerQuery returned error: %v", err)
	}

	want := "Based on the retrieved context, here is the relevant information for 'what happened':\n\nFirst passage.\n\n---\n\nSecond passage."
	if ans.GeneratedAnswer != want {
		t.Errorf("answer = %q\nwant %q", ans.GeneratedAnswer, want)
	}
	if len(ans.RetrievedContext) != 2 {
		t.Errorf("got %d retrieved chunks, want 2", len(ans.RetrievedContext))
	}
}

func TestAnswerQueryNoResults(t *testing.T) {
	svc, _, _ := testService(t, &mockParser{}, &mockEmbedder{}, &mockIndex{})

	ans, err := svc.AnswerQuery(context.Background(), document.QueryRequest{Query: "unindexed topic", TopK: 3})
	if err != nil {
		t.Fatalf("AnswerQuery returned error: %v", err)
	}
	want := fmt.Sprintf("No relevant content was found for '%s'.", "unindexed topic")
	if ans.GeneratedAnswer != want {
		t.Errorf("answer = %q, want %q", ans.GeneratedAnswer, want)
	}
}

func TestAnswerQueryEmbeddingFailure(t *testing.T) {
	embedder := &mockEmbedder{
		OnEmbedQuery: func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.New("embedding backend down")
		},
	}
	svc, _, _ := testService(t, &mockParser{}, embedder, &mockIndex{})

	if _, err := svc.AnswerQuery(context.Background(), document.QueryRequest{Query: "anything", TopK: 3}); err == nil {
		t.Fatal("AnswerQuery did not propagate the embedding error")
	}
}

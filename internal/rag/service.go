package rag

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"stormrag/internal/config"
	"stormrag/internal/domain/document"
	"stormrag/internal/metrics"
	"stormrag/internal/rag/chunker"
	"stormrag/internal/rag/embedding"
	"stormrag/internal/rag/vectorindex"
	"stormrag/internal/storm"
	"stormrag/pkg/applog"
)

// Service is the public contract the HTTP layer calls. The implementation
// lives in the private struct below so handlers never touch the parser,
// embedder or index directly.
type Service interface {
	// StartIngestion uploads the file to the parsing backend, registers the
	// job, and spawns a background poller. It returns as soon as the job
	// handle exists; indexing happens asynchronously.
	StartIngestion(ctx context.Context, docName string, filePath string) (document.Job, error)
	JobStatus(ctx context.Context, jobID string) (document.Job, bool)
	AnswerQuery(ctx context.Context, req document.QueryRequest) (document.FinalAnswer, error)
	ListDocuments(ctx context.Context) ([]document.Document, error)
	// IndexedChunks reports how many chunks are searchable right now.
	IndexedChunks(ctx context.Context) int
	// Wait blocks until all in-flight pollers have stopped.
	Wait()
}

// PollerConfig tunes the ingestion state machine. MaxPollAttempts of zero
// polls until the backend reports a terminal state, matching the reference
// behavior; a positive value bounds the loop and records ERROR on overrun.
type PollerConfig struct {
	Interval        time.Duration
	MaxPollAttempts int
	ChunkSize       int
	ChunkOverlap    int
}

type service struct {
	rootCtx  context.Context
	parser   storm.Parser
	embedder embedding.Embedder
	index    vectorindex.Index
	registry document.JobStore
	docs     document.DocumentStore
	cfg      PollerConfig
	pollers  sync.WaitGroup
	logger   *applog.Logger
}

func NewService(
	rootCtx context.Context,
	parser storm.Parser,
	embedder embedding.Embedder,
	index vectorindex.Index,
	registry document.JobStore,
	docs document.DocumentStore,
	cfg PollerConfig,
) Service {
	if cfg.Interval <= 0 {
		cfg.Interval = config.PollInterval
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = config.ChunkSize
		cfg.ChunkOverlap = config.ChunkOverlap
	}
	return &service{
		rootCtx:  rootCtx,
		parser:   parser,
		embedder: embedder,
		index:    index,
		registry: registry,
		docs:     docs,
		cfg:      cfg,
		logger:   applog.New("RAG Service"),
	}
}

func (s *service) StartIngestion(ctx context.Context, docName string, filePath string) (document.Job, error) {
	job, err := s.parser.Upload(ctx, filePath)
	if err != nil {
		s.logger.Error("upload to parsing backend failed", "file", docName, "error", err)
		return document.Job{}, err
	}

	s.saveJobState(ctx, job)

	doc := document.Document{
		ID:         job.ID,
		Name:       docName,
		IngestedAt: time.Now(),
	}

	s.pollers.Add(1)
	metrics.IncrementActivePollJobs()
	go s.pollJob(job.ID, doc)

	s.logger.Info("ingestion started", "job Id", job.ID, "file", docName)
	return job, nil
}

// pollJob drives one job from submission to a terminal registry state. Each
// observed state overwrites the registry entry, so a status check always sees
// the last thing the backend reported. Any failure inside the loop is fatal
// to the job but never to the process.
func (s *service) pollJob(jobID string, doc document.Document) {
	defer s.pollers.Done()
	defer metrics.DecrementActivePollJobs()

	attempts := 0
	for {
		job, pages, err := s.checkJob(jobID)
		if err != nil {
			// Shutdown cancels the root context mid-poll; the backend may
			// still finish the job, so the registry keeps its last state.
			if s.rootCtx.Err() != nil {
				s.logger.Warn("poller stopped by shutdown", "job Id", jobID)
				return
			}
			s.logger.Error("polling failed", "job Id", jobID, "error", err)
			s.recordError(jobID)
			return
		}

		s.saveJobState(s.rootCtx, job)

		switch {
		case job.State == document.StateCompleted:
			if err := s.indexPages(jobID, doc, pages); err != nil {
				s.logger.Error("indexing failed", "job Id", jobID, "error", err)
				s.recordError(jobID)
				return
			}
			metrics.JobCompleted(string(document.StateCompleted))
			s.logger.Info("job completed", "job Id", jobID)
			return

		case job.State.IsTerminal():
			metrics.JobCompleted(string(job.State))
			s.logger.Warn("job failed at parsing backend", "job Id", jobID, "state", job.State)
			return
		}

		attempts++
		if s.cfg.MaxPollAttempts > 0 && attempts >= s.cfg.MaxPollAttempts {
			s.logger.Error("poll attempt limit reached", "job Id", jobID, "attempts", attempts)
			s.recordError(jobID)
			return
		}

		select {
		case <-time.After(s.cfg.Interval):
		case <-s.rootCtx.Done():
			s.logger.Warn("poller stopped by shutdown", "job Id", jobID)
			return
		}
	}
}

func (s *service) checkJob(jobID string) (document.Job, []document.ParsedPage, error) {
	ctx, cancel := context.WithTimeout(s.rootCtx, config.StatusCheckTimeout)
	defer cancel()

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("parse_poll", time.Since(start)) }()
	return s.parser.GetJobResult(ctx, jobID)
}

func (s *service) indexPages(jobID string, doc document.Document, pages []document.ParsedPage) error {
	chunks, err := chunker.Split(pages, doc.ID, s.cfg.ChunkSize, s.cfg.ChunkOverlap)
	if err != nil {
		return fmt.Errorf("chunking: %w", err)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embedStart := time.Now()
	vectors, err := s.embedder.EmbedBatch(s.rootCtx, texts)
	metrics.CaptureExecutionMetrics("embedding", time.Since(embedStart))
	if err != nil {
		return fmt.Errorf("embedding %d chunks: %w", len(chunks), err)
	}

	buildStart := time.Now()
	err = s.index.Build(s.rootCtx, chunks, vectors)
	metrics.CaptureExecutionMetrics("index_build", time.Since(buildStart))
	if err != nil {
		return fmt.Errorf("building index: %w", err)
	}

	metrics.AddIngestedChunks(len(chunks))
	if err := s.docs.SaveDocument(s.rootCtx, doc); err != nil {
		// Metadata is a convenience listing; the index already holds the data.
		s.logger.Error("saving document metadata failed", "job Id", jobID, "error", err)
	}
	return nil
}

func (s *service) AnswerQuery(ctx context.Context, req document.QueryRequest) (document.FinalAnswer, error) {
	embedStart := time.Now()
	vector, err := s.embedder.EmbedQuery(ctx, req.Query)
	metrics.CaptureExecutionMetrics("embedding", time.Since(embedStart))
	if err != nil {
		s.logger.Error("query embedding failed", "error", err)
		return document.FinalAnswer{}, err
	}

	searchStart := time.Now()
	retrieved, err := s.index.Query(ctx, document.SearchQuery{Text: req.Query, Vector: vector}, req.TopK)
	metrics.CaptureExecutionMetrics("vector_search", time.Since(searchStart))
	if err != nil {
		s.logger.Error("vector search failed", "error", err)
		return document.FinalAnswer{}, err
	}

	return document.FinalAnswer{
		Query:            req.Query,
		GeneratedAnswer:  composeAnswer(req.Query, retrieved),
		RetrievedContext: retrieved,
	}, nil
}

func composeAnswer(query string, retrieved []document.RetrievedChunk) string {
	if len(retrieved) == 0 {
		return fmt.Sprintf("No relevant content was found for '%s'.", query)
	}

	texts := make([]string, len(retrieved))
	for i, c := range retrieved {
		texts[i] = c.Text
	}
	return fmt.Sprintf(
		"Based on the retrieved context, here is the relevant information for '%s':\n\n%s",
		query, strings.Join(texts, "\n\n---\n\n"),
	)
}

func (s *service) JobStatus(ctx context.Context, jobID string) (document.Job, bool) {
	return s.registry.GetJob(ctx, jobID)
}

func (s *service) ListDocuments(ctx context.Context) ([]document.Document, error) {
	return s.docs.ListDocuments(ctx)
}

func (s *service) IndexedChunks(ctx context.Context) int {
	return s.index.Size(ctx)
}

func (s *service) Wait() {
	s.pollers.Wait()
}

func (s *service) saveJobState(ctx context.Context, job document.Job) {
	if err := s.registry.SaveJob(ctx, job); err != nil {
		s.logger.Error("failed to update job registry", "job Id", job.ID, "error", err)
	}
}

func (s *service) recordError(jobID string) {
	metrics.JobCompleted(string(document.StateError))
	s.saveJobState(s.rootCtx, document.Job{ID: jobID, State: document.StateError})
}

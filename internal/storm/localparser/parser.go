package localparser

import (
	"context"
	"fmt"
	"sync"

	"stormrag/internal/domain/document"
	"stormrag/pkg/applog"

	"github.com/google/uuid"
)

// Parser satisfies the same capability as the remote Storm client but
// extracts text in-process, so the pipeline runs without the external
// service. Upload returns a PENDING job and extraction happens in a
// goroutine; GetJobResult observes the transition to COMPLETED or FAILED.
type Parser struct {
	mu     sync.RWMutex
	jobs   map[string]document.Job
	pages  map[string][]document.ParsedPage
	logger *applog.Logger
}

func New() *Parser {
	return &Parser{
		jobs:   make(map[string]document.Job),
		pages:  make(map[string][]document.ParsedPage),
		logger: applog.New("local_parser"),
	}
}

func (p *Parser) Upload(ctx context.Context, filePath string) (document.Job, error) {
	job := document.Job{ID: uuid.New().String(), State: document.StatePending}

	p.mu.Lock()
	p.jobs[job.ID] = job
	p.mu.Unlock()

	go p.extract(job.ID, filePath)
	return job, nil
}

func (p *Parser) GetJobResult(ctx context.Context, jobID string) (document.Job, []document.ParsedPage, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	job, ok := p.jobs[jobID]
	if !ok {
		return document.Job{}, nil, fmt.Errorf("unknown local parse job %s", jobID)
	}
	if job.State != document.StateCompleted {
		return job, nil, nil
	}
	return job, p.pages[jobID], nil
}

func (p *Parser) extract(jobID string, filePath string) {
	p.setState(jobID, document.StateProcessing, nil)

	pages, err := extractText(filePath)
	if err != nil {
		p.logger.Error("extraction failed", "job Id", jobID, "error", err)
		p.setState(jobID, document.StateFailed, nil)
		return
	}
	p.logger.Info("extraction finished", "job Id", jobID, "pages", len(pages))
	p.setState(jobID, document.StateCompleted, pages)
}

func (p *Parser) setState(jobID string, state document.JobState, pages []document.ParsedPage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs[jobID] = document.Job{ID: jobID, State: state}
	if pages != nil {
		p.pages[jobID] = pages
	}
}

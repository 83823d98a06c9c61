package storm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"stormrag/internal/config"
	"stormrag/internal/domain/document"
	"stormrag/pkg/applog"
)

// ErrBackend marks transport failures and non-success responses from the
// parsing service.
var ErrBackend = errors.New("parsing backend failure")

// Parser is the capability the ingestion pipeline needs from a parsing
// backend: hand over a file, then poll until pages come back.
type Parser interface {
	Upload(ctx context.Context, filePath string) (document.Job, error)
	// GetJobResult returns the job's current state; pages are non-nil only
	// when the state is COMPLETED.
	GetJobResult(ctx context.Context, jobID string) (document.Job, []document.ParsedPage, error)
}

type jobResultResponse struct {
	JobID string                `json:"job_id"`
	State string                `json:"state"`
	Pages []document.ParsedPage `json:"pages,omitempty"`
}

// Client talks to the remote Storm parse API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *applog.Logger
}

func NewClient(baseURL string, apiKey string) *Client {
	transport := &http.Transport{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 25,
		IdleConnTimeout:     config.IdleTimeout,
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http: &http.Client{
			Timeout:   config.StatusCheckTimeout,
			Transport: transport,
		},
		logger: applog.New("storm_client"),
	}
}

// Upload sends the file as multipart form data and returns the initial job.
func (c *Client) Upload(ctx context.Context, filePath string) (document.Job, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return document.Job{}, fmt.Errorf("opening upload file: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return document.Job{}, fmt.Errorf("building multipart body: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return document.Job{}, fmt.Errorf("copying file into request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return document.Job{}, fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/documents", &body)
	if err != nil {
		return document.Job{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	var parsed jobResultResponse
	if err := c.do(req, &parsed); err != nil {
		return document.Job{}, err
	}

	c.logger.Info("document uploaded", "job Id", parsed.JobID, "state", parsed.State)
	return document.Job{ID: parsed.JobID, State: document.JobState(parsed.State)}, nil
}

func (c *Client) GetJobResult(ctx context.Context, jobID string) (document.Job, []document.ParsedPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/jobs/"+jobID, nil)
	if err != nil {
		return document.Job{}, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	var parsed jobResultResponse
	if err := c.do(req, &parsed); err != nil {
		return document.Job{}, nil, err
	}

	job := document.Job{ID: parsed.JobID, State: document.JobState(parsed.State)}
	if job.State != document.StateCompleted {
		return job, nil, nil
	}
	return job, parsed.Pages, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: storm API returned %d", ErrBackend, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrBackend, err)
	}
	return nil
}

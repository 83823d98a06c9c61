package document

import (
	"context"
	"errors"
	"time"
)

// JobState is whatever the parsing backend reports. The well-known values are
// below; anything else is carried through as an opaque string.
type JobState string

const (
	StatePending    JobState = "PENDING"
	StateProcessing JobState = "PROCESSING"
	StateCompleted  JobState = "COMPLETED"
	StateFailed     JobState = "FAILED"
	StateError      JobState = "ERROR"
)

// IsTerminal reports whether no further polling transition can occur.
func (s JobState) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateError
}

type Job struct {
	ID    string   `json:"job_id"`
	State JobState `json:"state"`
}

type ParsedPage struct {
	PageNumber int    `json:"pageNumber"`
	Content    string `json:"content"`
}

type Chunk struct {
	ID         string `json:"chunk_id"`
	DocumentID string `json:"document_id"`
	Text       string `json:"text"`
	PageNumber int    `json:"page_number"`
}

// RetrievedChunk is a Chunk plus the similarity score the index backend scored
// it with. Score range is backend defined; higher always means more relevant.
type RetrievedChunk struct {
	Chunk
	Score float32 `json:"score"`
}

// SearchQuery carries both the raw query text and its embedding so index
// backends can score either way.
type SearchQuery struct {
	Text   string
	Vector []float32
}

type QueryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

var ErrInvalidQuery = errors.New("invalid query request")

// Validate rejects malformed requests before they reach the pipeline and
// fills in the default top_k.
func (q *QueryRequest) Validate() error {
	if q.Query == "" {
		return ErrInvalidQuery
	}
	if q.TopK == 0 {
		q.TopK = 3
	}
	if q.TopK < 0 {
		return ErrInvalidQuery
	}
	return nil
}

type FinalAnswer struct {
	Query            string           `json:"query"`
	GeneratedAnswer  string           `json:"generated_answer"`
	RetrievedContext []RetrievedChunk `json:"retrieved_context"`
}

// Document is the metadata we keep about each ingested file.
type Document struct {
	ID         string    `json:"document_id"`
	Name       string    `json:"doc_name"`
	IngestedAt time.Time `json:"ingested_at"`
}

// JobStore is the process-wide job registry: one entry per ingestion job,
// always holding the last observed state.
type JobStore interface {
	SaveJob(ctx context.Context, job Job) error
	GetJob(ctx context.Context, jobID string) (Job, bool)
	DeleteJob(ctx context.Context, jobID string)
}

// DocumentStore records ingested document metadata for listing.
type DocumentStore interface {
	SaveDocument(ctx context.Context, doc Document) error
	ListDocuments(ctx context.Context) ([]Document, error)
}

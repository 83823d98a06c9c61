package api

import "time"

// requests ---------------------

type QueryRequest struct {
	Query string `json:"query" validate:"required" example:"What is the refund policy?"`
	TopK  int    `json:"top_k,omitempty" example:"3"`
}

// responses --------------------

type InitJobResponse struct {
	JobID     string `json:"job_id" example:"job_cz109"`
	State     string `json:"state" example:"PENDING"`
	StatusURL string `json:"status_url" example:"/ingest/status/job_cz109"`
}

type JobStatusResponse struct {
	JobID string `json:"job_id"`
	State string `json:"state"`
}

type RetrievedChunk struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Text       string  `json:"text"`
	PageNumber int     `json:"page_number"`
	Score      float32 `json:"score"`
}

type QueryResponse struct {
	Query            string           `json:"query"`
	GeneratedAnswer  string           `json:"generated_answer"`
	RetrievedContext []RetrievedChunk `json:"retrieved_context"`
}

type DocumentInfo struct {
	DocumentID string    `json:"document_id"`
	Name       string    `json:"doc_name"`
	IngestedAt time.Time `json:"ingested_at"`
}

type HealthResponse struct {
	Status        string `json:"status"`
	IndexedChunks int    `json:"indexed_chunks"`
}

type ErrorResponse struct {
	Code    int    `json:"code" example:"404"`
	Message string `json:"message" example:"Job not found"`
}

package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stormrag/internal/adapter"
	"stormrag/internal/api"
	"stormrag/internal/rag"
	"stormrag/pkg/applog"

	"github.com/go-chi/chi/v5"
)

const maxUploadSize = 32 << 20 //32mb

// Handler owns the HTTP surface. It only talks to the RAG service; the
// parser, embedder and index stay behind it.
type Handler struct {
	service   rag.Service
	uploadDir string
	logger    *applog.Logger
}

func New(service rag.Service, uploadDir string) *Handler {
	return &Handler{
		service:   service,
		uploadDir: uploadDir,
		logger:    applog.New("handlers"),
	}
}

// Ingest godoc
// @Summary      Upload a document for ingestion
// @Description  Receives a PDF via multipart/form-data, submits it to the parsing backend, and returns the job handle. Indexing happens asynchronously.
// @Tags         Ingestion
// @Accept       multipart/form-data
// @Produce      json
// @Param        document  formData  file  true  "The PDF file to upload"
// @Success      202  {object}  api.InitJobResponse
// @Failure      400  {object}  api.ErrorResponse
// @Failure      502  {object}  api.ErrorResponse
// @Router       /ingest [post]
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "File too large or bad request")
		return
	}

	fileReader, fileMetadata, err := r.FormFile("document")
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Could not retrieve file")
		return
	}
	defer fileReader.Close()

	if !strings.EqualFold(filepath.Ext(fileMetadata.Filename), ".pdf") {
		WriteErrorResponse(w, http.StatusBadRequest, "Only PDF files are supported")
		return
	}

	tempFilePath := filepath.Join(h.uploadDir, fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(fileMetadata.Filename)))
	destination, err := os.Create(tempFilePath)
	if err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, "Storage error")
		return
	}
	defer destination.Close()

	if _, err := io.Copy(destination, fileReader); err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, "Write error")
		return
	}

	job, err := h.service.StartIngestion(r.Context(), fileMetadata.Filename, tempFilePath)
	if err != nil {
		h.logger.Error("failed to start ingestion", "file", fileMetadata.Filename, "error", err)
		WriteErrorResponse(w, http.StatusBadGateway, "Failed to start ingestion job")
		return
	}

	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(job))
}

// Status godoc
// @Summary      Get ingestion job status
// @Description  Returns the last observed state of an ingestion job.
// @Tags         Ingestion
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobStatusResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /ingest/status/{id} [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	if jobID == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "Missing job id")
		return
	}

	job, found := h.service.JobStatus(r.Context(), jobID)
	if !found {
		WriteErrorResponse(w, http.StatusNotFound, "Job not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToJobStatusResponse(job))
}

// Query godoc
// @Summary      Answer a question from the indexed documents
// @Description  Embeds the query, retrieves the top-k most similar chunks, and composes an answer from them.
// @Tags         Query
// @Accept       json
// @Produce      json
// @Param        request  body      api.QueryRequest  true  "Query and optional top_k (default 3)"
// @Success      200      {object}  api.QueryResponse
// @Failure      400      {object}  api.ErrorResponse
// @Router       /query [post]
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var requestData api.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&requestData); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Bad request")
		return
	}

	domainReq := adapter.ToQueryRequest(requestData)
	if err := domainReq.Validate(); err != nil {
		h.logger.Warn("invalid query request", "top_k", requestData.TopK)
		WriteErrorResponse(w, http.StatusBadRequest, "query must be non-empty and top_k positive")
		return
	}

	answer, err := h.service.AnswerQuery(r.Context(), domainReq)
	if err != nil {
		h.logger.Error("query failed", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "Failed to answer query")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToQueryResponse(answer))
}

// Documents godoc
// @Summary      List ingested documents
// @Tags         Ingestion
// @Produce      json
// @Success      200  {array}  api.DocumentInfo
// @Router       /documents [get]
func (h *Handler) Documents(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.ListDocuments(r.Context())
	if err != nil {
		h.logger.Error("listing documents failed", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToDocumentList(docs))
}

// Health godoc
// @Summary      Health check
// @Produce      json
// @Success      200  {object}  api.HealthResponse
// @Router       /healthz [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, api.HealthResponse{
		Status:        "ok",
		IndexedChunks: h.service.IndexedChunks(r.Context()),
	})
}

package storm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"stormrag/internal/domain/document"
)

func writeTempPDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 fake"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestUpload(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/documents" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("expected multipart body: %v", err)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file part: %v", err)
		}
		json.NewEncoder(w).Encode(jobResultResponse{JobID: "job-1", State: "PENDING"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret-token")
	job, err := c.Upload(context.Background(), writeTempPDF(t))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if job.ID != "job-1" || job.State != document.StatePending {
		t.Errorf("got job %+v", job)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("got auth header %q", gotAuth)
	}
}

func TestGetJobResult(t *testing.T) {
	tests := []struct {
		name      string
		response  jobResultResponse
		wantState document.JobState
		wantPages int
	}{
		{
			name:      "pending has no pages",
			response:  jobResultResponse{JobID: "job-1", State: "PENDING"},
			wantState: document.StatePending,
			wantPages: 0,
		},
		{
			name: "completed returns pages",
			response: jobResultResponse{
				JobID: "job-1",
				State: "COMPLETED",
				Pages: []document.ParsedPage{{PageNumber: 1, Content: "Test content"}},
			},
			wantState: document.StateCompleted,
			wantPages: 1,
		},
		{
			name: "pages stripped unless completed",
			response: jobResultResponse{
				JobID: "job-1",
				State: "PROCESSING",
				Pages: []document.ParsedPage{{PageNumber: 1, Content: "partial"}},
			},
			wantState: document.StateProcessing,
			wantPages: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/v1/jobs/job-1" {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				json.NewEncoder(w).Encode(tt.response)
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "tok")
			job, pages, err := c.GetJobResult(context.Background(), "job-1")
			if err != nil {
				t.Fatalf("GetJobResult failed: %v", err)
			}
			if job.State != tt.wantState {
				t.Errorf("state got %s, want %s", job.State, tt.wantState)
			}
			if len(pages) != tt.wantPages {
				t.Errorf("pages got %d, want %d", len(pages), tt.wantPages)
			}
		})
	}
}

func TestBackendErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")

	if _, _, err := c.GetJobResult(context.Background(), "job-1"); !errors.Is(err, ErrBackend) {
		t.Errorf("expected ErrBackend, got %v", err)
	}
	if _, err := c.Upload(context.Background(), writeTempPDF(t)); !errors.Is(err, ErrBackend) {
		t.Errorf("expected ErrBackend, got %v", err)
	}

	srv.Close()
	if _, _, err := c.GetJobResult(context.Background(), "job-1"); !errors.Is(err, ErrBackend) {
		t.Errorf("transport failure should map to ErrBackend, got %v", err)
	}
}

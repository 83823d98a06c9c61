package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"stormrag/internal/api"
)

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, message string) {
	writeJsonResponse(w, httpCode, api.ErrorResponse{
		Code:    httpCode,
		Message: message,
	})
}

// UploadDirectory creates (if needed) and returns the temp directory uploads
// are spooled to before being handed to the parsing backend.
func UploadDirectory() (string, error) {
	root, err := os.Getwd()
	if err != nil {
		return "", err
	}
	targetDir := filepath.Join(root, "temporary_data")
	if err := os.MkdirAll(targetDir, 0750); err != nil {
		return "", err
	}
	return targetDir, nil
}

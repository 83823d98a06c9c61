package chunker

import (
	"fmt"

	"stormrag/internal/domain/document"

	"github.com/google/uuid"
)

// Split cuts every page into windows of chunkSize characters, advancing by
// chunkSize-overlap each step, so consecutive chunks share overlap characters.
// The last window of a page may be shorter. Pages with empty content yield no
// chunks. Each chunk gets a fresh uuid and inherits the page number.
func Split(pages []document.ParsedPage, documentID string, chunkSize, overlap int) ([]document.Chunk, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	// A step of zero or less would never advance the window.
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("overlap must satisfy 0 <= overlap < chunk size, got overlap=%d size=%d", overlap, chunkSize)
	}

	step := chunkSize - overlap
	var chunks []document.Chunk
	for _, page := range pages {
		// Window over runes, not bytes; byte slicing would cut multi-byte
		// characters mid-sequence.
		content := []rune(page.Content)
		for start := 0; start < len(content); start += step {
			end := start + chunkSize
			if end > len(content) {
				end = len(content)
			}
			chunks = append(chunks, document.Chunk{
				ID:         uuid.New().String(),
				DocumentID: documentID,
				Text:       string(content[start:end]),
				PageNumber: page.PageNumber,
			})
		}
	}
	return chunks, nil
}

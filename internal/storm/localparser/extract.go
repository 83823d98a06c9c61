package localparser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"stormrag/internal/domain/document"

	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
)

func extractText(path string) ([]document.ParsedPage, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path)
	case ".docx", ".txt", ".rtf", ".odt":
		return extractPlain(path)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

func extractPDF(path string) ([]document.ParsedPage, error) {
	f, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	var pages []document.ParsedPage
	for i := 1; i <= f.NumPage(); i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := protectExtract(page)
		if err != nil {
			// Skip unreadable pages, keep the rest of the document.
			continue
		}
		pages = append(pages, document.ParsedPage{
			PageNumber: i,
			Content:    content,
		})
	}
	return pages, nil
}

// cat has no page tracking, so the whole document lands on page 1.
func extractPlain(path string) ([]document.ParsedPage, error) {
	text, err := cat.File(path)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text: %w", err)
	}
	return []document.ParsedPage{{PageNumber: 1, Content: text}}, nil
}

// protectExtract guards against GetPlainText hanging on malformed pages.
func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(10 * time.Second):
		return "", errors.New("page extraction timeout")
	}
}

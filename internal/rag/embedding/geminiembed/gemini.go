package geminiembed

import (
	"context"
	"fmt"
	"time"

	"stormrag/internal/config"
	"stormrag/internal/rag/embedding"
	"stormrag/pkg/applog"

	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var dimension = config.EmbeddingDimension

type client struct {
	genAi  *genai.Client
	model  string
	logger *applog.Logger
}

// NewClient builds a Gemini-backed embedder, interchangeable with the OpenAI
// one. Returns an error when the underlying client cannot be constructed.
func NewClient(ctx context.Context, apiKey string, model string) (embedding.Embedder, error) {
	logger := applog.New("gemini_embedding")
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		logger.Error("creating Gemini embedding client failed", "error", err)
		return nil, fmt.Errorf("%w: %v", embedding.ErrBackend, err)
	}
	logger.Info("Gemini embedding client created", "model", model)
	return &client{genAi: c, model: model, logger: logger}, nil
}

func (c *client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += config.GeminiEmbedBatchLimit {
		end := start + config.GeminiEmbedBatchLimit
		if end > len(texts) {
			end = len(texts)
		}

		res, err := c.doCall(ctx, texts[start:end])
		if err != nil && isRateLimited(err) {
			c.logger.Warn("rate limit hit, retrying in 5 seconds", "error", err)
			time.Sleep(5 * time.Second)
			res, err = c.doCall(ctx, texts[start:end])
		}
		if err != nil {
			c.logger.Error("batch embedding failed", "error", err)
			return nil, fmt.Errorf("%w: %v", embedding.ErrBackend, err)
		}
		if len(res.Embeddings) != end-start {
			return nil, fmt.Errorf("%w: got %d embeddings for %d inputs", embedding.ErrBackend, len(res.Embeddings), end-start)
		}
		for _, r := range res.Embeddings {
			vectors = append(vectors, r.Values)
		}
	}
	return vectors, nil
}

func (c *client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	res, err := c.doCall(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", embedding.ErrBackend, err)
	}
	if len(res.Embeddings) == 0 {
		return nil, fmt.Errorf("%w: empty response", embedding.ErrBackend)
	}
	return res.Embeddings[0].Values, nil
}

func (c *client) doCall(ctx context.Context, texts []string) (*genai.EmbedContentResponse, error) {
	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, &genai.Content{
			Parts: []*genai.Part{{Text: t}},
		})
	}
	return c.genAi.Models.EmbedContent(ctx, c.model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &dimension,
		TaskType:             "RETRIEVAL_DOCUMENT",
	})
}

func isRateLimited(err error) bool {
	if s, ok := status.FromError(err); ok {
		return s.Code() == codes.ResourceExhausted
	}
	return false
}

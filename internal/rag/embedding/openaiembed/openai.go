package openaiembed

import (
	"context"
	"fmt"

	"stormrag/internal/config"
	"stormrag/internal/rag/embedding"
	"stormrag/pkg/applog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type client struct {
	api        openai.Client
	model      string
	dimension  int64
	batchLimit int
	logger     *applog.Logger
}

// NewClient builds an OpenAI-backed embedder. The returned embedder splits
// oversized batches at the endpoint's input limit and concatenates the
// sub-batch results in order.
func NewClient(apiKey string, model string) embedding.Embedder {
	return &client{
		api:        openai.NewClient(option.WithAPIKey(apiKey)),
		model:      model,
		dimension:  int64(config.EmbeddingDimension),
		batchLimit: config.OpenAIEmbedBatchLimit,
		logger:     applog.New("openai_embedding"),
	}
}

func (c *client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for _, batch := range splitBatches(texts, c.batchLimit) {
		got, err := c.doCall(ctx, batch)
		if err != nil {
			c.logger.Error("batch embedding failed", "batch size", len(batch), "error", err)
			return nil, err
		}
		vectors = append(vectors, got...)
	}
	return vectors, nil
}

func (c *client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	got, err := c.doCall(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return got[0], nil
}

func (c *client) doCall(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:      openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model:      openai.EmbeddingModel(c.model),
		Dimensions: openai.Int(c.dimension),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", embedding.ErrBackend, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d inputs", embedding.ErrBackend, len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		v := make([]float32, len(d.Embedding))
		for j, f := range d.Embedding {
			v[j] = float32(f)
		}
		vectors[i] = v
	}
	return vectors, nil
}

func splitBatches(texts []string, limit int) [][]string {
	var batches [][]string
	for start := 0; start < len(texts); start += limit {
		end := start + limit
		if end > len(texts) {
			end = len(texts)
		}
		batches = append(batches, texts[start:end])
	}
	return batches
}

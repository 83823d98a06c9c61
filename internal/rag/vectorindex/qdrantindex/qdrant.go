package qdrantindex

import (
	"context"
	"fmt"

	"stormrag/internal/config"
	"stormrag/internal/domain/document"
	"stormrag/internal/rag/vectorindex"
	"stormrag/pkg/applog"

	"github.com/qdrant/go-client/qdrant"
)

var dimension = uint64(config.EmbeddingDimension)

// Index is the qdrant-backed vector index. Chunks travel as point payloads so
// a query always gets back the chunk its vector was bound to.
type Index struct {
	client     *qdrant.Client
	collection string
	logger     *applog.Logger
}

func New(ctx context.Context, host string, port int, collection string) (*Index, error) {
	logger := applog.New("qdrant_index")

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		logger.Error("could not instantiate qdrant client", "error", err)
		return nil, err
	}

	idx := &Index{client: client, collection: collection, logger: logger}
	if err := idx.ensureCollection(ctx); err != nil {
		logger.Error("could not create collection", "collection", collection, "error", err)
		return nil, err
	}
	return idx, nil
}

func (idx *Index) Close() error {
	return idx.client.Close()
}

func (idx *Index) ensureCollection(ctx context.Context) error {
	exists, err := idx.client.CollectionExists(ctx, idx.collection)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return idx.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: idx.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

func (idx *Index) Build(ctx context.Context, chunks []document.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return vectorindex.ErrShapeMismatch
	}
	if len(chunks) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(chunk.ID),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"chunk_id":    chunk.ID,
				"document_id": chunk.DocumentID,
				"content":     chunk.Text,
				"page_number": chunk.PageNumber,
			}),
		}
	}

	_, err := idx.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: idx.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

func (idx *Index) Query(ctx context.Context, q document.SearchQuery, topK int) ([]document.RetrievedChunk, error) {
	if topK <= 0 {
		return []document.RetrievedChunk{}, nil
	}

	hits, err := idx.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: idx.collection,
		Query:          qdrant.NewQuery(q.Vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		idx.logger.Error("qdrant query failed", "error", err)
		return nil, fmt.Errorf("qdrant query failed: %w", err)
	}

	results := make([]document.RetrievedChunk, 0, len(hits))
	for _, hit := range hits {
		results = append(results, document.RetrievedChunk{
			Chunk: document.Chunk{
				ID:         hit.Payload["chunk_id"].GetStringValue(),
				DocumentID: hit.Payload["document_id"].GetStringValue(),
				Text:       hit.Payload["content"].GetStringValue(),
				PageNumber: int(hit.Payload["page_number"].GetIntegerValue()),
			},
			Score: hit.Score,
		})
	}
	return results, nil
}

func (idx *Index) Size(ctx context.Context) int {
	count, err := idx.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: idx.collection,
	})
	if err != nil {
		idx.logger.Error("qdrant count failed", "error", err)
		return 0
	}
	return int(count)
}

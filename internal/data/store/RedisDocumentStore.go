package store

import (
	"context"
	"encoding/json"

	"stormrag/internal/config"
	"stormrag/internal/data/redisStore"
	"stormrag/internal/domain/document"
	"stormrag/pkg/applog"
)

const documentListKey = "ingested_documents"

type RedisDocumentStore struct {
	store  *redisStore.Store
	logger *applog.Logger
}

// GetRedisDocumentStore returns a Redis-backed document listing, or nil when
// Redis is offline.
func GetRedisDocumentStore(ctx context.Context) *RedisDocumentStore {
	inner := redisStore.GetRedisStore(ctx, config.RedisDocumentStore)
	if inner == nil {
		return nil
	}
	return &RedisDocumentStore{
		store:  inner,
		logger: applog.New("document_store"),
	}
}

func (s *RedisDocumentStore) SaveDocument(ctx context.Context, doc document.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return s.store.ListPush(ctx, documentListKey, data)
}

func (s *RedisDocumentStore) ListDocuments(ctx context.Context) ([]document.Document, error) {
	entries, err := s.store.ListGetAll(ctx, documentListKey)
	if err != nil {
		return nil, err
	}

	docs := make([]document.Document, 0, len(entries))
	for _, e := range entries {
		var doc document.Document
		if err := json.Unmarshal([]byte(e), &doc); err != nil {
			s.logger.Error("corrupt document entry", "error", err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func TestDocumentStore(store *redisStore.Store) *RedisDocumentStore {
	return &RedisDocumentStore{
		store:  store,
		logger: applog.New("test_document_store"),
	}
}

package store

import (
	"context"
	"sync"

	"stormrag/internal/domain/document"
)

type InMemoryDocumentStore struct {
	docLock *sync.RWMutex
	docs    []document.Document
}

func InitInMemoryDocumentStore() *InMemoryDocumentStore {
	return &InMemoryDocumentStore{
		docLock: new(sync.RWMutex),
	}
}

func (store *InMemoryDocumentStore) SaveDocument(ctx context.Context, doc document.Document) error {
	store.docLock.Lock()
	defer store.docLock.Unlock()
	store.docs = append(store.docs, doc)
	return nil
}

func (store *InMemoryDocumentStore) ListDocuments(ctx context.Context) ([]document.Document, error) {
	store.docLock.RLock()
	defer store.docLock.RUnlock()
	out := make([]document.Document, len(store.docs))
	copy(out, store.docs)
	return out, nil
}

package store

import (
	"context"
	"sync"

	"stormrag/internal/domain/document"
)

// InMemoryJobStore is the fallback job registry: a mutex-guarded map with
// atomic single-key reads and writes. State lives only for the process
// lifetime.
type InMemoryJobStore struct {
	jobMutex *sync.RWMutex
	jobMap   map[string]document.Job
}

func InitInMemoryJobStore() *InMemoryJobStore {
	return &InMemoryJobStore{
		jobMutex: new(sync.RWMutex),
		jobMap:   make(map[string]document.Job),
	}
}

func (store *InMemoryJobStore) SaveJob(ctx context.Context, job document.Job) error {
	store.jobMutex.Lock()
	defer store.jobMutex.Unlock()
	store.jobMap[job.ID] = job
	return nil
}

func (store *InMemoryJobStore) GetJob(ctx context.Context, jobID string) (document.Job, bool) {
	store.jobMutex.RLock()
	defer store.jobMutex.RUnlock()
	result, found := store.jobMap[jobID]
	return result, found
}

func (store *InMemoryJobStore) DeleteJob(ctx context.Context, jobID string) {
	store.jobMutex.Lock()
	defer store.jobMutex.Unlock()
	delete(store.jobMap, jobID)
}

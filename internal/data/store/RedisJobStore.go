package store

import (
	"context"
	"encoding/json"

	"stormrag/internal/config"
	"stormrag/internal/data/redisStore"
	"stormrag/internal/domain/document"
	"stormrag/pkg/applog"
)

type RedisJobStore struct {
	store  *redisStore.Store
	logger *applog.Logger
}

// GetRedisJobStore returns a Redis-backed job registry, or nil when Redis is
// offline.
func GetRedisJobStore(ctx context.Context) *RedisJobStore {
	inner := redisStore.GetRedisStore(ctx, config.RedisJobRegistry)
	if inner == nil {
		return nil
	}
	return &RedisJobStore{
		store:  inner,
		logger: applog.New("job_store"),
	}
}

func (s *RedisJobStore) SaveJob(ctx context.Context, job document.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, job.ID, data, config.RedisJobRegistryTTL)
}

func (s *RedisJobStore) GetJob(ctx context.Context, jobID string) (document.Job, bool) {
	var job document.Job
	val, err := s.store.Get(ctx, jobID)
	if err != nil {
		if !s.store.IsNil(err) {
			s.logger.Error("fetching job failed", "job Id", jobID, "error", err)
		}
		return job, false
	}
	if err := json.Unmarshal([]byte(val), &job); err != nil {
		s.logger.Error("corrupt job entry", "job Id", jobID, "error", err)
		return job, false
	}
	return job, true
}

func (s *RedisJobStore) DeleteJob(ctx context.Context, jobID string) {
	if err := s.store.Del(ctx, jobID); err != nil {
		s.logger.Error("error deleting job", "job Id", jobID, "error", err)
	}
}

func TestJobStore(store *redisStore.Store) *RedisJobStore {
	return &RedisJobStore{
		store:  store,
		logger: applog.New("test_job_store"),
	}
}

package store

import (
	"context"
	"encoding/json"

	"github.com/tbadri/ragchat/internal/config"
	"github.com/tbadri/ragchat/internal/data/redisstore"
	"github.com/tbadri/ragchat/internal/domain/jobmodel"
	"github.com/tbadri/ragchat/pkg/logging"
)

// RedisJobStore tracks async ingestion jobs with a TTL; a finished
// job's status stays queryable for a day.
type RedisJobStore struct {
	store  *redisstore.Store
	logger *logging.Logger
}

func GetRedisJobStore(ctx context.Context) *RedisJobStore {
	inner := redisstore.GetRedisStore(ctx, config.RedisJobStore)
	if inner == nil {
		return nil
	}
	return &RedisJobStore{
		store:  inner,
		logger: logging.NewLogger("JobStore"),
	}
}

func (s *RedisJobStore) SaveJob(ctx context.Context, job jobmodel.Job) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "job Id", job.Id)
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	err = s.store.Set(ctx, job.Id, data, config.RedisJobStoreTTL)
	if err == nil {
		log.Debug("Saved job to Redis")
	}
	return err
}

func (s *RedisJobStore) GetJob(ctx context.Context, jobId string) (jobmodel.Job, bool) {
	var job jobmodel.Job
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "job Id", jobId)

	val, err := s.store.Get(ctx, jobId)
	if s.store.IsNil(err) {
		return job, false
	} else if err != nil {
		log.Error("Error getting job from Redis", "error", err)
		return job, false
	}

	if err = json.Unmarshal([]byte(val), &job); err != nil {
		log.Error("Corrupt job record", "error", err)
		return job, false
	}

	return job, true
}

func (s *RedisJobStore) DeleteJob(ctx context.Context, jobId string) {
	if err := s.store.Del(ctx, jobId); err != nil {
		s.logger.Error("Error deleting job from Redis", "jobId", jobId, "error", err)
		return
	}
	s.logger.Debug("Job deleted from Redis", "jobId", jobId)
}

func TestJobStore(store *redisstore.Store) *RedisJobStore {
	return &RedisJobStore{
		store:  store,
		logger: logging.NewLogger("test redis"),
	}
}

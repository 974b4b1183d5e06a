package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sensormon/internal/etl"
)

// ResultStore keeps job results in redis so callers can poll them by job id.
type ResultStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResultStore returns redis-backed result store.
func NewResultStore(client *redis.Client, ttl time.Duration) *ResultStore {
	return &ResultStore{client: client, ttl: ttl}
}

func (s *ResultStore) key(jobID string) string {
	return fmt.Sprintf("etl:results:%s", jobID)
}

// SaveSummary stores the batch summary as the job result.
func (s *ResultStore) SaveSummary(ctx context.Context, jobID string, summary *etl.Summary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(jobID), data, s.ttl).Err()
}

// SaveFailure stores a fatal-failure result for the job.
func (s *ResultStore) SaveFailure(ctx context.Context, jobID, message string) error {
	data, err := json.Marshal(map[string]string{
		"status":  "error",
		"message": message,
	})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(jobID), data, s.ttl).Err()
}

// Fetch returns the raw result JSON, or redis.Nil when not (yet) present.
func (s *ResultStore) Fetch(ctx context.Context, jobID string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(jobID)).Bytes()
	if err != nil {
		return nil, err
	}
	return data, nil
}

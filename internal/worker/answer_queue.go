package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exstem-distributor/internal/config"
	"github.com/stemsi/exstem-distributor/internal/model"
	"github.com/stemsi/exstem-distributor/internal/service"
)

// pendingTTL outlives the worst-case retry cycle of one answer sheet.
const pendingTTL = 30 * time.Minute

// RedisAnswerQueue pushes answer sheets onto the worker queue. A submission
// can have at most one sheet in flight.
type RedisAnswerQueue struct {
	rdb *redis.Client
}

func NewRedisAnswerQueue(rdb *redis.Client) *RedisAnswerQueue {
	return &RedisAnswerQueue{rdb: rdb}
}

func (q *RedisAnswerQueue) Enqueue(ctx context.Context, a model.AnswerSubmission) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode answer sheet: %w", err)
	}

	pending := config.CacheKey.SubmissionAnswersPendingKey(a.SubmissionID)
	ok, err := q.rdb.SetNX(ctx, pending, time.Now().UTC().Format(time.RFC3339), pendingTTL).Result()
	if err != nil {
		return fmt.Errorf("mark answers pending: %w", err)
	}
	if !ok {
		return service.ErrAlreadySubmitted
	}

	if err := q.rdb.RPush(ctx, config.WorkerKey.PersistAnswerSubmissionsQueue, data).Err(); err != nil {
		q.rdb.Del(ctx, pending)
		return fmt.Errorf("queue answer sheet: %w", err)
	}
	return nil
}

package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-distributor/internal/config"
	"github.com/stemsi/exstem-distributor/internal/distribution"
	"github.com/stemsi/exstem-distributor/internal/metrics"
	"github.com/stemsi/exstem-distributor/internal/model"
	"github.com/stemsi/exstem-distributor/internal/repository"
	"github.com/stemsi/exstem-distributor/internal/websocket"
)

const (
	AnswerBatchSize    = 50
	AnswerBatchTimeout = 2 * time.Second
	AnswerPollTimeout  = 1 * time.Second
	// MaxAnswerAttempts bounds how often one answer sheet is requeued.
	MaxAnswerAttempts = 5
)

// AnswerStore is the persistence the worker writes answer sheets through.
type AnswerStore interface {
	ApplyAnswerBatch(ctx context.Context, updates []repository.AnswerUpdate) error
	ApplyAnswers(ctx context.Context, u repository.AnswerUpdate) error
}

// SubmissionAnswersWorker drains queued answer sheets into their submission
// payloads and announces each one on the subject's tracker channel.
type SubmissionAnswersWorker struct {
	store AnswerStore
	rdb   *redis.Client
	log   zerolog.Logger
}

func NewSubmissionAnswersWorker(store AnswerStore, rdb *redis.Client, log zerolog.Logger) *SubmissionAnswersWorker {
	return &SubmissionAnswersWorker{
		store: store,
		rdb:   rdb,
		log:   log.With().Str("component", "submission_answers_worker").Logger(),
	}
}

func (w *SubmissionAnswersWorker) Start(ctx context.Context) {
	w.log.Info().Msg("SubmissionAnswersWorker started")

	batch := make([]*model.AnswerSubmission, 0, AnswerBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= AnswerBatchSize || time.Since(lastFlush) >= AnswerBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining answers...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			w.flushSafe(shutdownCtx, batch)
			cancel()
			return

		default:
			item, err := w.rdb.BLPop(ctx, AnswerPollTimeout, config.WorkerKey.PersistAnswerSubmissionsQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if len(item) < 2 {
				continue
			}

			var p model.AnswerSubmission
			if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}
			batch = append(batch, &p)
		}
	}
}

func (w *SubmissionAnswersWorker) flushSafe(ctx context.Context, batch []*model.AnswerSubmission) {
	if len(batch) == 0 {
		return
	}

	persisted, failed := w.persist(ctx, batch)
	w.announce(ctx, persisted)
	w.requeue(ctx, failed)
}

// persist writes the batch in one statement, falling back to one write per
// sheet. It returns the sheets that were stored and those that were not.
func (w *SubmissionAnswersWorker) persist(ctx context.Context, batch []*model.AnswerSubmission) (persisted, failed []*model.AnswerSubmission) {
	updates, err := buildUpdates(batch)
	if err == nil {
		if err = w.store.ApplyAnswerBatch(ctx, updates); err == nil {
			metrics.AnswersPersisted.WithLabelValues("batch").Add(float64(len(batch)))
			return batch, nil
		}
	}
	w.log.Warn().Err(err).Int("size", len(batch)).Msg("bulk answer update failed, using fallback")

	for _, p := range batch {
		u, err := buildUpdate(p)
		if err == nil {
			err = w.store.ApplyAnswers(ctx, u)
		}
		switch {
		case err == nil:
			metrics.AnswersPersisted.WithLabelValues("single").Inc()
			persisted = append(persisted, p)
		case errors.Is(err, repository.ErrNotFound):
			w.log.Warn().Int64("submission_id", p.SubmissionID).Msg("Submission no longer exists, dropping answers")
			metrics.AnswersPersisted.WithLabelValues("dropped").Inc()
			w.clearPending(ctx, p)
		default:
			w.log.Error().Err(err).Int64("submission_id", p.SubmissionID).Msg("persistSingle failed")
			failed = append(failed, p)
		}
	}
	return persisted, failed
}

func buildUpdate(p *model.AnswerSubmission) (repository.AnswerUpdate, error) {
	patch, err := json.Marshal(distribution.AnswerPatch(*p))
	if err != nil {
		return repository.AnswerUpdate{}, fmt.Errorf("encode answers for submission %d: %w", p.SubmissionID, err)
	}
	submittedAt := p.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = time.Now().UTC()
	}
	return repository.AnswerUpdate{SubmissionID: p.SubmissionID, Patch: patch, SubmittedAt: submittedAt}, nil
}

func buildUpdates(batch []*model.AnswerSubmission) ([]repository.AnswerUpdate, error) {
	updates := make([]repository.AnswerUpdate, 0, len(batch))
	for _, p := range batch {
		u, err := buildUpdate(p)
		if err != nil {
			return nil, err
		}
		updates = append(updates, u)
	}
	return updates, nil
}

// trackerEvent is what subscribers of the subject channel receive.
func trackerEvent(p *model.AnswerSubmission) websocket.TrackerEvent {
	return websocket.TrackerEvent{
		Event:        websocket.EventSubmissionReceived,
		SubmissionID: p.SubmissionID,
		StudentEmail: p.StudentEmail,
		Subject:      p.Subject,
		SubmittedAt:  p.SubmittedAt.UTC().Format(time.RFC3339),
	}
}

func (w *SubmissionAnswersWorker) announce(ctx context.Context, persisted []*model.AnswerSubmission) {
	if len(persisted) == 0 {
		return
	}
	pipe := w.rdb.Pipeline()
	for _, p := range persisted {
		data, _ := json.Marshal(trackerEvent(p))
		pipe.Publish(ctx, config.CacheKey.SubjectTrackerChannel(p.Subject), data)
		pipe.Del(ctx, config.CacheKey.SubmissionAnswersPendingKey(p.SubmissionID))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Warn().Err(err).Msg("Failed to publish tracker events")
	}
}

func (w *SubmissionAnswersWorker) clearPending(ctx context.Context, p *model.AnswerSubmission) {
	w.rdb.Del(ctx, config.CacheKey.SubmissionAnswersPendingKey(p.SubmissionID))
}

func (w *SubmissionAnswersWorker) requeue(ctx context.Context, items []*model.AnswerSubmission) {
	if len(items) == 0 {
		return
	}

	pipe := w.rdb.Pipeline()
	requeued := 0
	for _, p := range items {
		p.Attempts++
		if p.Attempts >= MaxAnswerAttempts {
			w.log.Error().Int64("submission_id", p.SubmissionID).Int("attempts", p.Attempts).Msg("Giving up on answer sheet")
			metrics.AnswersPersisted.WithLabelValues("dropped").Inc()
			pipe.Del(ctx, config.CacheKey.SubmissionAnswersPendingKey(p.SubmissionID))
			continue
		}
		data, _ := json.Marshal(p)
		pipe.RPush(ctx, config.WorkerKey.PersistAnswerSubmissionsQueue, data)
		requeued++
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Msg("CRITICAL: Failed to requeue answer sheets to Redis. Data loss occurred.")
		return
	}
	if requeued > 0 {
		w.log.Info().Int("count", requeued).Msg("Requeued failed answer sheets back to Redis")
		// Back off so a database outage does not spin the queue.
		time.Sleep(2 * time.Second)
	}
}

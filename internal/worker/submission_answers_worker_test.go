package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-distributor/internal/distribution"
	"github.com/stemsi/exstem-distributor/internal/model"
	"github.com/stemsi/exstem-distributor/internal/repository"
	"github.com/stemsi/exstem-distributor/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var submittedAt = time.Date(2026, 10, 5, 8, 0, 0, 0, time.UTC)

func seedSubmission(t *testing.T, store *repository.MemoryStore, email string) *model.Submission {
	t.Helper()
	sub := &model.Submission{
		StudentEmail:  email,
		Subject:       "Science",
		ExamName:      "Geography",
		AnswerDetails: json.RawMessage(`{"examId":"EXAM_1","questions":[{"number":1}]}`),
	}
	require.NoError(t, store.Submissions.CreateBatch(context.Background(), []*model.Submission{sub}))
	return sub
}

func sheet(id int64) *model.AnswerSubmission {
	return &model.AnswerSubmission{
		SubmissionID: id,
		StudentEmail: "ana@school.test",
		Subject:      "Science",
		Answers:      []model.StudentAnswer{{Number: 1, Answer: "B"}},
		SubmittedAt:  submittedAt,
	}
}

func TestPersistMergesAnswers(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	sub := seedSubmission(t, store, "ana@school.test")
	w := NewSubmissionAnswersWorker(store.Submissions, nil, zerolog.Nop())

	persisted, failed := w.persist(ctx, []*model.AnswerSubmission{sheet(sub.ID)})
	assert.Len(t, persisted, 1)
	assert.Empty(t, failed)

	stored, err := store.Submissions.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.True(t, distribution.IsCompleted(*stored))
	require.NotNil(t, stored.SubmittedAt)
	assert.True(t, submittedAt.Equal(*stored.SubmittedAt))

	payload := distribution.DecodePayload(stored.AnswerDetails)
	assert.Equal(t, "EXAM_1", payload["examId"])
	assert.Equal(t, "2026-10-05T08:00:00Z", payload["submittedAt"])
	assert.Len(t, payload["studentAnswers"], 1)
}

func TestPersistDropsRetractedSubmissions(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	sub := seedSubmission(t, store, "ana@school.test")
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	w := NewSubmissionAnswersWorker(store.Submissions, rdb, zerolog.Nop())

	persisted, failed := w.persist(ctx, []*model.AnswerSubmission{sheet(sub.ID), sheet(sub.ID + 100)})
	require.Len(t, persisted, 1, "only the live submission counts as persisted")
	assert.Equal(t, sub.ID, persisted[0].SubmissionID)
	assert.Empty(t, failed, "a retracted submission is dropped, not retried")
}

type flakyStore struct {
	batchErr error
	failIDs  map[int64]bool
	applied  []int64
}

func (s *flakyStore) ApplyAnswerBatch(context.Context, []repository.AnswerUpdate) error {
	return s.batchErr
}

func (s *flakyStore) ApplyAnswers(_ context.Context, u repository.AnswerUpdate) error {
	if s.failIDs[u.SubmissionID] {
		return errors.New("connection reset")
	}
	s.applied = append(s.applied, u.SubmissionID)
	return nil
}

func TestPersistFallsBackToSingleWrites(t *testing.T) {
	store := &flakyStore{batchErr: errors.New("batch failed"), failIDs: map[int64]bool{2: true}}
	w := NewSubmissionAnswersWorker(store, nil, zerolog.Nop())

	persisted, failed := w.persist(context.Background(), []*model.AnswerSubmission{sheet(1), sheet(2), sheet(3)})
	assert.Equal(t, []int64{1, 3}, store.applied)
	require.Len(t, persisted, 2)
	require.Len(t, failed, 1)
	assert.Equal(t, int64(2), failed[0].SubmissionID)
}

func TestBuildUpdateDefaultsSubmittedAt(t *testing.T) {
	s := sheet(9)
	s.SubmittedAt = time.Time{}

	u, err := buildUpdate(s)
	require.NoError(t, err)
	assert.Equal(t, int64(9), u.SubmissionID)
	assert.False(t, u.SubmittedAt.IsZero())

	var patch map[string]any
	require.NoError(t, json.Unmarshal(u.Patch, &patch))
	assert.Equal(t, true, patch["submitted"])
}

func TestTrackerEvent(t *testing.T) {
	ev := trackerEvent(sheet(4))
	assert.Equal(t, websocket.TrackerEvent{
		Event:        websocket.EventSubmissionReceived,
		SubmissionID: 4,
		StudentEmail: "ana@school.test",
		Subject:      "Science",
		SubmittedAt:  "2026-10-05T08:00:00Z",
	}, ev)
}

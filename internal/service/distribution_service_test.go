package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-distributor/internal/distribution"
	"github.com/stemsi/exstem-distributor/internal/model"
	"github.com/stemsi/exstem-distributor/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var distributedAt = time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC)

type distributionFixture struct {
	*testEnv
	subjects *SubjectService
	dist     *DistributionService
	subject  *model.Subject
	paper    *model.ProcessedPaper
}

func newDistributionFixture(t *testing.T) *distributionFixture {
	t.Helper()
	env := newTestEnv(t)
	f := &distributionFixture{
		testEnv:  env,
		subjects: NewSubjectService(env.store.Subjects, env.store.Papers, env.store.Submissions, zerolog.Nop()),
		dist:     NewDistributionService(env.store.Subjects, env.store.Papers, env.store.Submissions, 60, zerolog.Nop()),
	}
	f.dist.newShuffler = func() *distribution.Shuffler { return distribution.NewSeededShuffler(7, 11) }
	f.dist.now = func() time.Time { return distributedAt }

	var err error
	f.subject, err = f.subjects.Create(context.Background(), teacher, model.CreateSubjectRequest{Name: "Science"})
	require.NoError(t, err)
	f.paper = env.upload(t, "Science")
	return f
}

func (f *distributionFixture) request(students ...string) model.DistributeRequest {
	return model.DistributeRequest{
		ExamID:        f.paper.ExamID,
		QuestionCount: 2,
		EasyPercent:   50,
		MediumPercent: 50,
		Deadline:      "2026-11-01T08:00",
		Students:      students,
	}
}

func (f *distributionFixture) submit(t *testing.T, id int64) {
	t.Helper()
	patch, err := json.Marshal(distribution.AnswerPatch(model.AnswerSubmission{
		SubmissionID: id,
		Answers:      []model.StudentAnswer{{Number: 1, Answer: "A"}},
		SubmittedAt:  distributedAt.Add(time.Hour),
	}))
	require.NoError(t, err)
	require.NoError(t, f.store.Submissions.ApplyAnswers(context.Background(), repository.AnswerUpdate{
		SubmissionID: id,
		Patch:        patch,
		SubmittedAt:  distributedAt.Add(time.Hour),
	}))
}

func TestDistribute(t *testing.T) {
	ctx := context.Background()
	f := newDistributionFixture(t)

	result, err := f.dist.Distribute(ctx, teacher, f.subject.ID, f.request("ana@school.test", "  ", "ben@school.test"))
	require.NoError(t, err)
	assert.Equal(t, &model.DistributeResult{Created: 2, QuestionCount: 2}, result)

	subs, err := f.store.Submissions.ListBySubject(ctx, "Science")
	require.NoError(t, err)
	require.Len(t, subs, 2)

	numbers := map[string][]int{}
	for _, s := range subs {
		assert.Equal(t, "Geography", s.ExamName)
		assert.Equal(t, "Quiz", s.ActivityType)
		assert.Equal(t, 2, s.TotalQuestions)
		assert.Equal(t, 1, s.CurrentQuestion)
		assert.Equal(t, 60, s.TimeLimit)
		assert.Equal(t, model.SubmissionDifficultyMixed, s.Difficulty)
		assert.False(t, distribution.IsCompleted(s))

		var payload model.DistributionPayload
		require.NoError(t, json.Unmarshal(s.AnswerDetails, &payload))
		assert.Equal(t, f.paper.ExamID, payload.ExamID)
		assert.Equal(t, "2026-10-01T09:30:00", payload.DistributedAt)
		assert.Equal(t, "2026-11-01T08:00", payload.Deadline)
		require.Len(t, payload.Questions, 2)
		for _, q := range payload.Questions {
			assert.Equal(t, "A", q.Answer)
			numbers[s.StudentEmail] = append(numbers[s.StudentEmail], q.Number)
		}
	}
	assert.ElementsMatch(t, numbers["ana@school.test"], numbers["ben@school.test"])
}

func TestDistributeUsesRequestedTimeLimit(t *testing.T) {
	f := newDistributionFixture(t)
	req := f.request("ana@school.test")
	req.TimeLimit = 25

	_, err := f.dist.Distribute(context.Background(), teacher, f.subject.ID, req)
	require.NoError(t, err)

	subs, _ := f.store.Submissions.ListByStudent(context.Background(), "ana@school.test")
	require.Len(t, subs, 1)
	assert.Equal(t, 25, subs[0].TimeLimit)
}

func TestDistributeRejects(t *testing.T) {
	ctx := context.Background()
	f := newDistributionFixture(t)

	foreign := &model.ProcessedPaper{ExamID: "EXAM_foreign", TeacherEmail: other, Subject: "Science"}
	require.NoError(t, f.store.Papers.Create(ctx, foreign))
	history := &model.ProcessedPaper{ExamID: "EXAM_history", TeacherEmail: teacher, Subject: "History"}
	require.NoError(t, f.store.Papers.Create(ctx, history))

	cases := []struct {
		name   string
		actor  string
		modify func(r *model.DistributeRequest)
		want   error
	}{
		{"subject not owned", other, func(*model.DistributeRequest) {}, ErrNotOwner},
		{"no students", teacher, func(r *model.DistributeRequest) { r.Students = nil }, distribution.ErrNoStudents},
		{"zero count", teacher, func(r *model.DistributeRequest) { r.QuestionCount = 0 }, distribution.ErrInvalidQuestionCount},
		{"mix not hundred", teacher, func(r *model.DistributeRequest) { r.HardPercent = 10 }, distribution.ErrMixNotHundred},
		{"unknown paper", teacher, func(r *model.DistributeRequest) { r.ExamID = "EXAM_missing" }, ErrNotFound},
		{"paper not owned", teacher, func(r *model.DistributeRequest) { r.ExamID = foreign.ExamID }, ErrNotOwner},
		{"paper from other subject", teacher, func(r *model.DistributeRequest) { r.ExamID = history.ExamID }, ErrPaperSubjectMismatch},
		{"only blank students", teacher, func(r *model.DistributeRequest) { r.Students = []string{" ", ""} }, distribution.ErrNoValidStudents},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := f.request("ana@school.test")
			tc.modify(&req)
			_, err := f.dist.Distribute(ctx, tc.actor, f.subject.ID, req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	subs, _ := f.store.Submissions.ListBySubject(ctx, "Science")
	assert.Empty(t, subs)
}

func TestDistributionSummaryAndTracker(t *testing.T) {
	ctx := context.Background()
	f := newDistributionFixture(t)

	for _, st := range []model.EnrollStudentRequest{
		{StudentName: "Ana", StudentEmail: "ana@school.test"},
		{StudentName: "Ben", StudentEmail: "ben@school.test"},
		{StudentName: "Cai", StudentEmail: "cai@school.test"},
	} {
		_, err := f.subjects.Enroll(ctx, teacher, f.subject.ID, st)
		require.NoError(t, err)
	}

	_, err := f.dist.Distribute(ctx, teacher, f.subject.ID, f.request("ana@school.test", "ben@school.test"))
	require.NoError(t, err)

	ana, _ := f.store.Submissions.ListByStudent(ctx, "ana@school.test")
	require.Len(t, ana, 1)
	f.submit(t, ana[0].ID)

	summary, err := f.dist.Summary(ctx, teacher, f.subject.ID)
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, model.DistributionSummary{
		ExamName:          "Geography",
		Subject:           "Science",
		ActivityType:      "Quiz",
		TimeLimit:         60,
		Deadline:          "Nov 01, 2026 08:00",
		DeadlineRaw:       "2026-11-01T08:00",
		AssignedCount:     2,
		SubmittedCount:    1,
		NotSubmittedCount: 1,
	}, summary[0])

	view, err := f.dist.Tracker(ctx, teacher, f.subject.ID, model.TrackerFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, view.SubmittedCount)
	assert.Equal(t, 1, view.NotSubmittedCount)
	assert.Equal(t, 1, view.QueuedCount)
	assert.Equal(t, 3, view.TotalTracked)
	assert.False(t, view.Filtered)
	assert.Equal(t, "ana@school.test", view.Submitted[0].StudentEmail)
	assert.Equal(t, "2026-10-01T10:30:00Z", view.Submitted[0].LastSubmittedAt)
	assert.Equal(t, "cai@school.test", view.Queued[0].StudentEmail)

	otherExam := "Other exam"
	view, err = f.dist.Tracker(ctx, teacher, f.subject.ID, model.TrackerFilter{ExamName: &otherExam})
	require.NoError(t, err)
	assert.True(t, view.Filtered)
	assert.Equal(t, 3, view.QueuedCount)

	_, err = f.dist.Summary(ctx, "", f.subject.ID)
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestDeleteBatch(t *testing.T) {
	ctx := context.Background()
	f := newDistributionFixture(t)

	_, err := f.dist.Distribute(ctx, teacher, f.subject.ID, f.request("ana@school.test", "ben@school.test"))
	require.NoError(t, err)

	batch := model.DeleteBatchRequest{ExamName: "Geography", ActivityType: "Quiz", TimeLimit: 60, Deadline: "2026-11-02T08:00"}
	_, err = f.dist.DeleteBatch(ctx, teacher, f.subject.ID, batch)
	assert.ErrorIs(t, err, ErrBatchNotFound)

	batch.Deadline = " 2026-11-01T08:00 "
	_, err = f.dist.DeleteBatch(ctx, other, f.subject.ID, batch)
	assert.ErrorIs(t, err, ErrNotOwner)

	deleted, err := f.dist.DeleteBatch(ctx, teacher, f.subject.ID, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	subs, _ := f.store.Submissions.ListBySubject(ctx, "Science")
	assert.Empty(t, subs)
}

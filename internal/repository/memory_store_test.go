package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stemsi/exstem-distributor/internal/model"
	"github.com/stemsi/exstem-distributor/internal/question"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPapers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	p := &model.ProcessedPaper{
		ExamID:       "EXAM_1",
		TeacherEmail: "Teacher@School.test",
		ExamName:     "Algebra Quiz",
		Subject:      "Math",
		Questions:    question.Pool{{Question: "What is two plus two?", Choices: []string{"3", "4"}}},
		Difficulties: question.SideTable{1: "Easy"},
		AnswerKey:    question.SideTable{1: "B"},
	}
	require.NoError(t, store.Papers.Create(ctx, p))
	assert.NotZero(t, p.ID)
	assert.ErrorIs(t, store.Papers.Create(ctx, &model.ProcessedPaper{ExamID: "EXAM_1"}), ErrDuplicate)

	got, err := store.Papers.GetByExamID(ctx, "EXAM_1")
	require.NoError(t, err)
	got.Questions[0].Question = "mutated"
	again, _ := store.Papers.GetByExamID(ctx, "EXAM_1")
	assert.Equal(t, "What is two plus two?", again.Questions[0].Question)

	list, err := store.Papers.ListByTeacher(ctx, "teacher@school.test", "")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, _ = store.Papers.ListByTeacher(ctx, "teacher@school.test", "two plus")
	assert.Len(t, list, 1)
	list, _ = store.Papers.ListByTeacher(ctx, "teacher@school.test", "physics")
	assert.Empty(t, list)

	got.Questions = question.Pool{}
	got.Difficulties = question.SideTable{}
	require.NoError(t, store.Papers.UpdateContent(ctx, got))
	again, _ = store.Papers.GetByExamID(ctx, "EXAM_1")
	assert.Empty(t, again.Questions)
	assert.Equal(t, "Algebra Quiz", again.ExamName)

	require.NoError(t, store.Papers.Delete(ctx, "EXAM_1"))
	_, err = store.Papers.GetByExamID(ctx, "EXAM_1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Papers.Delete(ctx, "EXAM_1"), ErrNotFound)
}

func TestMemorySubjects(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	s := &model.Subject{Name: "Physics", TeacherEmail: "t@school.test"}
	require.NoError(t, store.Subjects.Create(ctx, s))

	require.NoError(t, store.Subjects.Enroll(ctx, &model.EnrolledStudent{SubjectID: s.ID, StudentName: "Bo", StudentEmail: "bo@school.test"}))
	require.NoError(t, store.Subjects.Enroll(ctx, &model.EnrolledStudent{SubjectID: s.ID, StudentName: "Al", StudentEmail: "al@school.test"}))
	err := store.Subjects.Enroll(ctx, &model.EnrolledStudent{SubjectID: s.ID, StudentName: "Bo", StudentEmail: "BO@school.test"})
	assert.ErrorIs(t, err, ErrDuplicate)
	err = store.Subjects.Enroll(ctx, &model.EnrolledStudent{SubjectID: 99, StudentEmail: "x@school.test"})
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := store.Subjects.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.EnrolledCount)

	roster, _ := store.Subjects.ListEnrolled(ctx, s.ID)
	require.Len(t, roster, 2)
	assert.Equal(t, "Al", roster[0].StudentName)

	owned, _ := store.Subjects.ListByTeacher(ctx, "T@SCHOOL.TEST")
	require.Len(t, owned, 1)
	assert.Equal(t, 2, owned[0].EnrolledCount)
}

func TestMemorySubmissionAnswers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	subs := []*model.Submission{
		{StudentEmail: "a@school.test", Subject: "Math", AnswerDetails: json.RawMessage(`{"examId":"EXAM_1","deadline":"2026-01-01T10:00"}`)},
		{StudentEmail: "b@school.test", Subject: "math", AnswerDetails: json.RawMessage(`"not an object"`)},
	}
	require.NoError(t, store.Submissions.CreateBatch(ctx, subs))
	assert.NotEqual(t, subs[0].ID, subs[1].ID)

	first := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	patch := json.RawMessage(`{"submitted":true,"studentAnswers":[{"number":1,"answer":"A"}]}`)
	err := store.Submissions.ApplyAnswerBatch(ctx, []AnswerUpdate{
		{SubmissionID: subs[0].ID, Patch: patch, SubmittedAt: first},
		{SubmissionID: subs[1].ID, Patch: patch, SubmittedAt: first},
		{SubmissionID: 404, Patch: patch, SubmittedAt: first},
	})
	assert.ErrorIs(t, err, ErrPartialBatch, "a missing id is reported")

	got, err := store.Submissions.GetByID(ctx, subs[0].ID)
	require.NoError(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(got.AnswerDetails, &payload))
	assert.Equal(t, "EXAM_1", payload["examId"])
	assert.Equal(t, true, payload["submitted"])
	require.NotNil(t, got.SubmittedAt)
	assert.True(t, got.SubmittedAt.Equal(first))

	// A second submission never moves the first stamp.
	require.NoError(t, store.Submissions.ApplyAnswers(ctx, AnswerUpdate{SubmissionID: subs[0].ID, Patch: patch, SubmittedAt: first.Add(time.Hour)}))
	got, _ = store.Submissions.GetByID(ctx, subs[0].ID)
	assert.True(t, got.SubmittedAt.Equal(first))

	other, _ := store.Submissions.GetByID(ctx, subs[1].ID)
	assert.JSONEq(t, string(patch), string(other.AnswerDetails))

	bySubject, _ := store.Submissions.ListBySubject(ctx, "MATH")
	assert.Len(t, bySubject, 2)
	byStudent, _ := store.Submissions.ListByStudent(ctx, "A@school.test")
	assert.Len(t, byStudent, 1)

	n, err := store.Submissions.DeleteByIDs(ctx, []int64{subs[0].ID, 999})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.ErrorIs(t, store.Submissions.ApplyAnswers(ctx, AnswerUpdate{SubmissionID: subs[0].ID, Patch: patch}), ErrNotFound)
}

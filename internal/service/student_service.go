package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-distributor/internal/distribution"
	"github.com/stemsi/exstem-distributor/internal/model"
	"github.com/stemsi/exstem-distributor/internal/question"
)

const (
	passPercentage  = 60.0
	recentDashboard = 5
)

// StudentService serves a student's own submissions.
type StudentService struct {
	submissions SubmissionStore
	answers     AnswerEnqueuer
	now         func() time.Time
	log         zerolog.Logger
}

func NewStudentService(submissions SubmissionStore, answers AnswerEnqueuer, log zerolog.Logger) *StudentService {
	return &StudentService{
		submissions: submissions,
		answers:     answers,
		now:         time.Now,
		log:         log.With().Str("component", "student_service").Logger(),
	}
}

// Dashboard summarizes the student's submissions. Percentages are rounded
// to one decimal place.
func (s *StudentService) Dashboard(ctx context.Context, studentEmail string) (*model.StudentDashboard, error) {
	subs, err := s.List(ctx, studentEmail)
	if err != nil {
		return nil, err
	}

	d := &model.StudentDashboard{
		StudentEmail:  strings.TrimSpace(studentEmail),
		TotalAttempts: len(subs),
		Recent:        subs[:min(recentDashboard, len(subs))],
	}
	if len(subs) == 0 {
		return d, nil
	}

	total := 0.0
	best := math.Inf(-1)
	for _, sub := range subs {
		total += sub.Percentage
		best = max(best, sub.Percentage)
		if sub.Percentage >= passPercentage {
			d.PassedCount++
		} else {
			d.FailedCount++
		}
	}
	d.AveragePercentage = roundTenth(total / float64(len(subs)))
	d.BestPercentage = roundTenth(best)
	return d, nil
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// List returns the student's submissions, newest first, without their
// payloads.
func (s *StudentService) List(ctx context.Context, studentEmail string) ([]model.Submission, error) {
	if strings.TrimSpace(studentEmail) == "" {
		return []model.Submission{}, nil
	}
	subs, err := s.submissions.ListByStudent(ctx, strings.TrimSpace(studentEmail))
	if err != nil {
		return nil, err
	}
	for i := range subs {
		subs[i].AnswerDetails = nil
	}
	return subs, nil
}

func (s *StudentService) own(ctx context.Context, studentEmail string, id int64) (*model.Submission, error) {
	sub, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isOwner(studentEmail, sub.StudentEmail) {
		return nil, ErrNotOwner
	}
	return sub, nil
}

func decodeDistribution(raw json.RawMessage) model.DistributionPayload {
	var p model.DistributionPayload
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &p)
	}
	return p
}

// ExamView returns the frozen exam in the student's order with every answer
// stripped.
func (s *StudentService) ExamView(ctx context.Context, studentEmail string, id int64) (*model.StudentExamView, error) {
	sub, err := s.own(ctx, studentEmail, id)
	if err != nil {
		return nil, err
	}

	payload := decodeDistribution(sub.AnswerDetails)
	view := &model.StudentExamView{
		SubmissionID: sub.ID,
		ExamName:     sub.ExamName,
		Subject:      sub.Subject,
		ActivityType: sub.ActivityType,
		TimeLimit:    sub.TimeLimit,
		Deadline:     payload.Deadline,
		Submitted:    distribution.IsCompleted(*sub),
		Questions:    make([]model.StudentExamQuestion, 0, len(payload.Questions)),
	}
	for _, q := range payload.Questions {
		text, openEnded := question.StripOpenEnded(q.Question)
		choices := q.Choices
		if choices == nil || openEnded {
			choices = []string{}
		}
		view.Questions = append(view.Questions, model.StudentExamQuestion{
			Number:    q.Number,
			Question:  text,
			Choices:   choices,
			OpenEnded: openEnded,
		})
	}
	return view, nil
}

// SubmitAnswers queues the student's answer sheet for persistence. Every
// answer must refer to a question frozen into the submission.
func (s *StudentService) SubmitAnswers(ctx context.Context, studentEmail string, id int64, req model.SubmitAnswersRequest) error {
	sub, err := s.own(ctx, studentEmail, id)
	if err != nil {
		return err
	}
	if distribution.IsCompleted(*sub) {
		return ErrAlreadySubmitted
	}

	frozen := map[int]struct{}{}
	for _, q := range decodeDistribution(sub.AnswerDetails).Questions {
		frozen[q.Number] = struct{}{}
	}
	for _, a := range req.Answers {
		if _, ok := frozen[a.Number]; !ok {
			return fmt.Errorf("%w: %d", ErrInvalidQuestionIndex, a.Number)
		}
	}

	err = s.answers.Enqueue(ctx, model.AnswerSubmission{
		SubmissionID: sub.ID,
		StudentEmail: sub.StudentEmail,
		Subject:      sub.Subject,
		Answers:      req.Answers,
		SubmittedAt:  s.now().UTC(),
	})
	if err != nil {
		return err
	}

	s.log.Info().Int64("submission_id", sub.ID).Int("answers", len(req.Answers)).Msg("Answers queued")
	return nil
}

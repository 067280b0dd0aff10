package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-distributor/internal/distribution"
	"github.com/stemsi/exstem-distributor/internal/metrics"
	"github.com/stemsi/exstem-distributor/internal/model"
)

const distributedAtLayout = "2006-01-02T15:04:05"

// DistributionService hands out question subsets to students and reports on
// the resulting submissions.
type DistributionService struct {
	subjects         SubjectStore
	papers           PaperStore
	submissions      SubmissionStore
	defaultTimeLimit int
	newShuffler      func() *distribution.Shuffler
	now              func() time.Time
	log              zerolog.Logger
}

func NewDistributionService(subjects SubjectStore, papers PaperStore, submissions SubmissionStore, defaultTimeLimit int, log zerolog.Logger) *DistributionService {
	return &DistributionService{
		subjects:         subjects,
		papers:           papers,
		submissions:      submissions,
		defaultTimeLimit: defaultTimeLimit,
		newShuffler:      distribution.NewShuffler,
		now:              time.Now,
		log:              log.With().Str("component", "distribution_service").Logger(),
	}
}

// Distribute creates one submission per selected student, each holding an
// independently ordered copy of the same difficulty-balanced subset.
func (s *DistributionService) Distribute(ctx context.Context, actor string, subjectID int64, req model.DistributeRequest) (*model.DistributeResult, error) {
	subject, err := ownedSubject(ctx, s.subjects, actor, subjectID)
	if err != nil {
		return nil, err
	}

	mix := distribution.Mix{Easy: req.EasyPercent, Medium: req.MediumPercent, Hard: req.HardPercent}
	if err := distribution.ValidateRequest(req.QuestionCount, mix, req.Students); err != nil {
		return nil, err
	}

	paper, err := s.papers.GetByExamID(ctx, strings.TrimSpace(req.ExamID))
	if err != nil {
		return nil, err
	}
	if !isOwner(actor, paper.TeacherEmail) {
		return nil, ErrNotOwner
	}
	if !strings.EqualFold(strings.TrimSpace(paper.Subject), strings.TrimSpace(subject.Name)) {
		return nil, ErrPaperSubjectMismatch
	}

	assignments, err := distribution.Distribute(distribution.Request{
		Pool:         paper.Questions,
		Difficulties: paper.Difficulties,
		Answers:      paper.AnswerKey,
		Count:        req.QuestionCount,
		Mix:          mix,
		Students:     req.Students,
	}, s.newShuffler())
	if err != nil {
		return nil, err
	}

	timeLimit := req.TimeLimit
	if timeLimit <= 0 {
		timeLimit = s.defaultTimeLimit
	}
	distributedAt := s.now().Format(distributedAtLayout)

	subs := make([]*model.Submission, 0, len(assignments))
	for _, a := range assignments {
		payload, err := json.Marshal(model.DistributionPayload{
			ExamID:        paper.ExamID,
			DistributedAt: distributedAt,
			Deadline:      req.Deadline,
			Questions:     a.Questions,
		})
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		subs = append(subs, &model.Submission{
			StudentEmail:    a.StudentEmail,
			ExamName:        paper.ExamName,
			Subject:         paper.Subject,
			ActivityType:    paper.ActivityType,
			TotalQuestions:  len(a.Questions),
			CurrentQuestion: 1,
			Difficulty:      model.SubmissionDifficultyMixed,
			TimeLimit:       timeLimit,
			AnswerDetails:   payload,
		})
	}

	if err := s.submissions.CreateBatch(ctx, subs); err != nil {
		return nil, fmt.Errorf("store submissions: %w", err)
	}

	metrics.SubmissionsDistributed.Add(float64(len(subs)))
	s.log.Info().
		Str("exam_id", paper.ExamID).
		Int64("subject_id", subjectID).
		Int("students", len(subs)).
		Int("questions", len(assignments[0].Questions)).
		Msg("Exam distributed")

	return &model.DistributeResult{Created: len(subs), QuestionCount: len(assignments[0].Questions)}, nil
}

// Summary lists the subject's distribution batches.
func (s *DistributionService) Summary(ctx context.Context, actor string, subjectID int64) ([]model.DistributionSummary, error) {
	subject, err := ownedSubject(ctx, s.subjects, actor, subjectID)
	if err != nil {
		return nil, err
	}
	subs, err := s.submissions.ListBySubject(ctx, subject.Name)
	if err != nil {
		return nil, err
	}
	return distribution.BuildSummary(subs), nil
}

// DeleteBatch retracts every submission of one distribution batch and
// returns how many were removed.
func (s *DistributionService) DeleteBatch(ctx context.Context, actor string, subjectID int64, req model.DeleteBatchRequest) (int, error) {
	subject, err := ownedSubject(ctx, s.subjects, actor, subjectID)
	if err != nil {
		return 0, err
	}
	subs, err := s.submissions.ListBySubject(ctx, subject.Name)
	if err != nil {
		return 0, err
	}

	ids := []int64{}
	for _, sub := range subs {
		if distribution.MatchesBatch(sub, req) {
			ids = append(ids, sub.ID)
		}
	}
	if len(ids) == 0 {
		return 0, ErrBatchNotFound
	}

	deleted, err := s.submissions.DeleteByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}
	s.log.Info().
		Int64("subject_id", subjectID).
		Str("exam_name", req.ExamName).
		Int("deleted", deleted).
		Msg("Distribution batch retracted")
	return deleted, nil
}

// Tracker classifies each enrolled student against the subject's
// submissions, optionally narrowed to one batch.
func (s *DistributionService) Tracker(ctx context.Context, actor string, subjectID int64, filter model.TrackerFilter) (*model.TrackerView, error) {
	subject, err := ownedSubject(ctx, s.subjects, actor, subjectID)
	if err != nil {
		return nil, err
	}
	return s.track(ctx, subject, filter)
}

// TrackSubject is Tracker for a subject the caller has already authorized.
func (s *DistributionService) TrackSubject(ctx context.Context, subject *model.Subject) (*model.TrackerView, error) {
	return s.track(ctx, subject, model.TrackerFilter{})
}

func (s *DistributionService) track(ctx context.Context, subject *model.Subject, filter model.TrackerFilter) (*model.TrackerView, error) {
	enrolled, err := s.subjects.ListEnrolled(ctx, subject.ID)
	if err != nil {
		return nil, err
	}
	subs, err := s.submissions.ListBySubject(ctx, subject.Name)
	if err != nil {
		return nil, err
	}
	view := distribution.Track(enrolled, subs, filter)
	return &view, nil
}

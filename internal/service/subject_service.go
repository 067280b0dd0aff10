package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-distributor/internal/distribution"
	"github.com/stemsi/exstem-distributor/internal/model"
	"github.com/stemsi/exstem-distributor/internal/repository"
)

// SubjectService manages subjects, rosters and the classroom overview.
type SubjectService struct {
	subjects    SubjectStore
	papers      PaperStore
	submissions SubmissionStore
	log         zerolog.Logger
}

func NewSubjectService(subjects SubjectStore, papers PaperStore, submissions SubmissionStore, log zerolog.Logger) *SubjectService {
	return &SubjectService{
		subjects:    subjects,
		papers:      papers,
		submissions: submissions,
		log:         log.With().Str("component", "subject_service").Logger(),
	}
}

func (s *SubjectService) List(ctx context.Context, teacherEmail string) ([]model.Subject, error) {
	if strings.TrimSpace(teacherEmail) == "" {
		return []model.Subject{}, nil
	}
	return s.subjects.ListByTeacher(ctx, strings.TrimSpace(teacherEmail))
}

func (s *SubjectService) Create(ctx context.Context, teacherEmail string, req model.CreateSubjectRequest) (*model.Subject, error) {
	if strings.TrimSpace(teacherEmail) == "" {
		return nil, ErrNotOwner
	}
	subject := &model.Subject{
		Name:         strings.TrimSpace(req.Name),
		TeacherEmail: strings.TrimSpace(teacherEmail),
	}
	if err := s.subjects.Create(ctx, subject); err != nil {
		return nil, err
	}
	s.log.Info().Int64("subject_id", subject.ID).Str("name", subject.Name).Msg("Subject created")
	return subject, nil
}

// Owned loads a subject and checks that actor owns it.
func (s *SubjectService) Owned(ctx context.Context, actor string, id int64) (*model.Subject, error) {
	return ownedSubject(ctx, s.subjects, actor, id)
}

func ownedSubject(ctx context.Context, subjects SubjectStore, actor string, id int64) (*model.Subject, error) {
	subject, err := subjects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isOwner(actor, subject.TeacherEmail) {
		return nil, ErrNotOwner
	}
	return subject, nil
}

func (s *SubjectService) ListEnrolled(ctx context.Context, actor string, id int64) ([]model.EnrolledStudent, error) {
	if _, err := s.Owned(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.subjects.ListEnrolled(ctx, id)
}

func (s *SubjectService) Enroll(ctx context.Context, actor string, id int64, req model.EnrollStudentRequest) (*model.EnrolledStudent, error) {
	if _, err := s.Owned(ctx, actor, id); err != nil {
		return nil, err
	}
	e := &model.EnrolledStudent{
		SubjectID:    id,
		StudentName:  strings.TrimSpace(req.StudentName),
		StudentEmail: strings.ToLower(strings.TrimSpace(req.StudentEmail)),
	}
	if err := s.subjects.Enroll(ctx, e); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyEnrolled
		}
		return nil, err
	}
	return e, nil
}

// Classroom assembles the subject overview: roster, the teacher's papers for
// this subject, submission counts and the distribution batch summary.
func (s *SubjectService) Classroom(ctx context.Context, actor string, id int64) (*model.ClassroomOverview, error) {
	subject, err := s.Owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	enrolled, err := s.subjects.ListEnrolled(ctx, id)
	if err != nil {
		return nil, err
	}
	papers, err := s.papers.ListByTeacher(ctx, strings.TrimSpace(actor), "")
	if err != nil {
		return nil, err
	}
	subs, err := s.submissions.ListBySubject(ctx, subject.Name)
	if err != nil {
		return nil, err
	}

	overview := &model.ClassroomOverview{
		Subject:          *subject,
		EnrolledStudents: enrolled,
		UploadedExams:    []model.PaperSummary{},
	}
	for _, p := range papers {
		if strings.EqualFold(strings.TrimSpace(p.Subject), strings.TrimSpace(subject.Name)) {
			overview.UploadedExams = append(overview.UploadedExams, summarize(p))
		}
	}

	overview.Stats.TotalSubmissions = len(subs)
	for _, sub := range subs {
		if sub.Graded {
			overview.Stats.GradedCount++
		}
	}
	overview.Stats.PendingCount = max(0, overview.Stats.TotalSubmissions-overview.Stats.GradedCount)

	overview.Distributions = distribution.BuildSummary(subs)
	for _, d := range overview.Distributions {
		overview.DistributedSubmittedCount += d.SubmittedCount
		overview.DistributedNotSubmittedCount += d.NotSubmittedCount
	}
	return overview, nil
}

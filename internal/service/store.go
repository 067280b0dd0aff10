package service

import (
	"context"
	"errors"
	"strings"

	"github.com/stemsi/exstem-distributor/internal/model"
	"github.com/stemsi/exstem-distributor/internal/repository"
)

// Sentinel errors shared by the services.
var (
	ErrNotFound             = repository.ErrNotFound
	ErrNotOwner             = errors.New("acting user does not own this resource")
	ErrPaperSubjectMismatch = errors.New("selected exam does not belong to this subject")
	ErrInvalidQuestionIndex = errors.New("invalid question index")
	ErrBatchNotFound        = errors.New("no matching distributed quiz batch found")
	ErrAlreadyEnrolled      = errors.New("student is already enrolled in this subject")
	ErrAlreadySubmitted     = errors.New("submission has already been submitted")
)

// PaperStore persists processed papers.
type PaperStore interface {
	Create(ctx context.Context, p *model.ProcessedPaper) error
	GetByExamID(ctx context.Context, examID string) (*model.ProcessedPaper, error)
	ListByTeacher(ctx context.Context, teacherEmail, search string) ([]model.ProcessedPaper, error)
	UpdateContent(ctx context.Context, p *model.ProcessedPaper) error
	Delete(ctx context.Context, examID string) error
}

// SubjectStore persists subjects and their rosters.
type SubjectStore interface {
	Create(ctx context.Context, s *model.Subject) error
	GetByID(ctx context.Context, id int64) (*model.Subject, error)
	ListByTeacher(ctx context.Context, teacherEmail string) ([]model.Subject, error)
	ListEnrolled(ctx context.Context, subjectID int64) ([]model.EnrolledStudent, error)
	Enroll(ctx context.Context, e *model.EnrolledStudent) error
}

// SubmissionStore persists distributed submissions.
type SubmissionStore interface {
	CreateBatch(ctx context.Context, subs []*model.Submission) error
	GetByID(ctx context.Context, id int64) (*model.Submission, error)
	ListBySubject(ctx context.Context, subject string) ([]model.Submission, error)
	ListByStudent(ctx context.Context, studentEmail string) ([]model.Submission, error)
	DeleteByIDs(ctx context.Context, ids []int64) (int, error)
}

// AnswerEnqueuer hands a student's answers to the persistence worker.
type AnswerEnqueuer interface {
	Enqueue(ctx context.Context, a model.AnswerSubmission) error
}

// isOwner reports whether the acting user owns a resource. A blank identity
// owns nothing.
func isOwner(actor, owner string) bool {
	actor = strings.TrimSpace(actor)
	return actor != "" && strings.EqualFold(actor, strings.TrimSpace(owner))
}

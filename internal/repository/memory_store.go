package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/stemsi/exstem-distributor/internal/model"
)

// MemoryStore bundles in-process repositories with the same contracts as the
// PostgreSQL ones. Values are copied in and out so callers never share state
// with the store.
type MemoryStore struct {
	Papers      *MemoryPaperRepository
	Subjects    *MemorySubjectRepository
	Submissions *MemorySubmissionRepository
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		Papers:      &MemoryPaperRepository{byExamID: map[string]model.ProcessedPaper{}},
		Subjects:    &MemorySubjectRepository{subjects: map[int64]model.Subject{}},
		Submissions: &MemorySubmissionRepository{byID: map[int64]model.Submission{}},
	}
}

// ─── Papers ──────────────────────────────────────────────────────────────────

type MemoryPaperRepository struct {
	mu       sync.RWMutex
	seq      int64
	byExamID map[string]model.ProcessedPaper
}

func copyPaper(p model.ProcessedPaper) model.ProcessedPaper {
	p.Questions = p.Questions.Clone()
	p.Difficulties = p.Difficulties.Clone()
	p.AnswerKey = p.AnswerKey.Clone()
	return p
}

func (r *MemoryPaperRepository) Create(_ context.Context, p *model.ProcessedPaper) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byExamID[p.ExamID]; exists {
		return ErrDuplicate
	}
	r.seq++
	p.ID = r.seq
	p.ProcessedAt = time.Now()
	r.byExamID[p.ExamID] = copyPaper(*p)
	return nil
}

func (r *MemoryPaperRepository) GetByExamID(_ context.Context, examID string) (*model.ProcessedPaper, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byExamID[examID]
	if !ok {
		return nil, ErrNotFound
	}
	c := copyPaper(p)
	return &c, nil
}

func (r *MemoryPaperRepository) ListByTeacher(_ context.Context, teacherEmail, search string) ([]model.ProcessedPaper, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(search)
	papers := []model.ProcessedPaper{}
	for _, p := range r.byExamID {
		if !strings.EqualFold(p.TeacherEmail, teacherEmail) {
			continue
		}
		if needle != "" && !paperContains(p, needle) {
			continue
		}
		papers = append(papers, copyPaper(p))
	}
	sort.SliceStable(papers, func(i, j int) bool {
		if papers[i].ProcessedAt.Equal(papers[j].ProcessedAt) {
			return papers[i].ID > papers[j].ID
		}
		return papers[i].ProcessedAt.After(papers[j].ProcessedAt)
	})
	return papers, nil
}

func paperContains(p model.ProcessedPaper, needle string) bool {
	questions, _ := p.Questions.Encode()
	answers, _ := p.AnswerKey.Encode()
	for _, field := range []string{p.ExamName, p.Subject, questions, answers} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func (r *MemoryPaperRepository) UpdateContent(_ context.Context, p *model.ProcessedPaper) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byExamID[p.ExamID]
	if !ok {
		return ErrNotFound
	}
	updated := copyPaper(*p)
	stored.Questions = updated.Questions
	stored.Difficulties = updated.Difficulties
	stored.AnswerKey = updated.AnswerKey
	r.byExamID[p.ExamID] = stored
	return nil
}

func (r *MemoryPaperRepository) Delete(_ context.Context, examID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byExamID[examID]; !ok {
		return ErrNotFound
	}
	delete(r.byExamID, examID)
	return nil
}

// ─── Subjects ────────────────────────────────────────────────────────────────

type MemorySubjectRepository struct {
	mu         sync.RWMutex
	subjectSeq int64
	enrollSeq  int64
	subjects   map[int64]model.Subject
	enrolled   []model.EnrolledStudent
}

func (r *MemorySubjectRepository) Create(_ context.Context, s *model.Subject) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.subjectSeq++
	s.ID = r.subjectSeq
	s.CreatedAt = time.Now()
	r.subjects[s.ID] = *s
	return nil
}

func (r *MemorySubjectRepository) countEnrolled(subjectID int64) int {
	n := 0
	for _, e := range r.enrolled {
		if e.SubjectID == subjectID {
			n++
		}
	}
	return n
}

func (r *MemorySubjectRepository) GetByID(_ context.Context, id int64) (*model.Subject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.subjects[id]
	if !ok {
		return nil, ErrNotFound
	}
	s.EnrolledCount = r.countEnrolled(id)
	return &s, nil
}

func (r *MemorySubjectRepository) ListByTeacher(_ context.Context, teacherEmail string) ([]model.Subject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subjects := []model.Subject{}
	for _, s := range r.subjects {
		if strings.EqualFold(s.TeacherEmail, teacherEmail) {
			s.EnrolledCount = r.countEnrolled(s.ID)
			subjects = append(subjects, s)
		}
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Name < subjects[j].Name })
	return subjects, nil
}

func (r *MemorySubjectRepository) ListEnrolled(_ context.Context, subjectID int64) ([]model.EnrolledStudent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	students := []model.EnrolledStudent{}
	for _, e := range r.enrolled {
		if e.SubjectID == subjectID {
			students = append(students, e)
		}
	}
	sort.SliceStable(students, func(i, j int) bool { return students[i].StudentName < students[j].StudentName })
	return students, nil
}

func (r *MemorySubjectRepository) Enroll(_ context.Context, e *model.EnrolledStudent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subjects[e.SubjectID]; !ok {
		return ErrNotFound
	}
	for _, existing := range r.enrolled {
		if existing.SubjectID == e.SubjectID && strings.EqualFold(existing.StudentEmail, e.StudentEmail) {
			return ErrDuplicate
		}
	}
	r.enrollSeq++
	e.ID = r.enrollSeq
	e.EnrolledAt = time.Now()
	r.enrolled = append(r.enrolled, *e)
	return nil
}

// ─── Submissions ─────────────────────────────────────────────────────────────

type MemorySubmissionRepository struct {
	mu   sync.RWMutex
	seq  int64
	byID map[int64]model.Submission
}

func copySubmission(s model.Submission) model.Submission {
	s.AnswerDetails = slices.Clone(s.AnswerDetails)
	if s.SubmittedAt != nil {
		t := *s.SubmittedAt
		s.SubmittedAt = &t
	}
	return s
}

func (r *MemorySubmissionRepository) CreateBatch(_ context.Context, subs []*model.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, s := range subs {
		r.seq++
		s.ID = r.seq
		s.CreatedAt = now
		r.byID[s.ID] = copySubmission(*s)
	}
	return nil
}

func (r *MemorySubmissionRepository) GetByID(_ context.Context, id int64) (*model.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := copySubmission(s)
	return &c, nil
}

func (r *MemorySubmissionRepository) filter(keep func(model.Submission) bool) []model.Submission {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subs := []model.Submission{}
	for _, s := range r.byID {
		if keep(s) {
			subs = append(subs, copySubmission(s))
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID > subs[j].ID })
	return subs
}

func (r *MemorySubmissionRepository) ListBySubject(_ context.Context, subject string) ([]model.Submission, error) {
	return r.filter(func(s model.Submission) bool { return strings.EqualFold(s.Subject, subject) }), nil
}

func (r *MemorySubmissionRepository) ListByStudent(_ context.Context, studentEmail string) ([]model.Submission, error) {
	return r.filter(func(s model.Submission) bool { return strings.EqualFold(s.StudentEmail, studentEmail) }), nil
}

func (r *MemorySubmissionRepository) DeleteByIDs(_ context.Context, ids []int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := 0
	for _, id := range ids {
		if _, ok := r.byID[id]; ok {
			delete(r.byID, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *MemorySubmissionRepository) ApplyAnswerBatch(ctx context.Context, updates []AnswerUpdate) error {
	missing := 0
	for _, u := range updates {
		err := r.ApplyAnswers(ctx, u)
		switch {
		case errors.Is(err, ErrNotFound):
			missing++
		case err != nil:
			return err
		}
	}
	if missing > 0 {
		return fmt.Errorf("%w: %d of %d", ErrPartialBatch, len(updates)-missing, len(updates))
	}
	return nil
}

func (r *MemorySubmissionRepository) ApplyAnswers(_ context.Context, u AnswerUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[u.SubmissionID]
	if !ok {
		return ErrNotFound
	}
	merged, err := mergeObject(s.AnswerDetails, u.Patch)
	if err != nil {
		return err
	}
	s.AnswerDetails = merged
	if s.SubmittedAt == nil {
		t := u.SubmittedAt
		s.SubmittedAt = &t
	}
	r.byID[s.ID] = s
	return nil
}

// mergeObject mirrors the jsonb || operator: top-level keys of patch replace
// those of base, and a base that is not an object is discarded.
func mergeObject(base, patch json.RawMessage) (json.RawMessage, error) {
	var p map[string]json.RawMessage
	if err := json.Unmarshal(patch, &p); err != nil {
		return nil, err
	}
	out := map[string]json.RawMessage{}
	if len(base) > 0 {
		if err := json.Unmarshal(base, &out); err != nil || out == nil {
			out = map[string]json.RawMessage{}
		}
	}
	for k, v := range p {
		out[k] = v
	}
	return json.Marshal(out)
}

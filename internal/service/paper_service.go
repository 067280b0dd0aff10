package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-distributor/internal/ingest"
	"github.com/stemsi/exstem-distributor/internal/metrics"
	"github.com/stemsi/exstem-distributor/internal/model"
	"github.com/stemsi/exstem-distributor/internal/question"
	"github.com/stemsi/exstem-distributor/internal/response"
	"github.com/stemsi/exstem-distributor/internal/textnorm"
)

const answerNotSet = "Not Set"

// UploadInput is one paper upload: form fields, the exam document and an
// optional answer key document.
type UploadInput struct {
	TeacherEmail string
	Form         model.UploadPaperRequest
	Exam         ingest.Document
	AnswerKey    *ingest.Document
}

// PaperService ingests exam documents and maintains the stored papers.
type PaperService struct {
	papers  PaperStore
	archive DocumentArchive
	locker  Locker
	log     zerolog.Logger
}

// NewPaperService creates a new PaperService. archive may be nil, in which
// case source documents are not kept.
func NewPaperService(papers PaperStore, archive DocumentArchive, locker Locker, log zerolog.Logger) *PaperService {
	return &PaperService{
		papers:  papers,
		archive: archive,
		locker:  locker,
		log:     log.With().Str("component", "paper_service").Logger(),
	}
}

// NewExamID returns a fresh public exam identifier.
func NewExamID() string {
	return "EXAM_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Upload extracts questions from the exam document, merges the answer key
// and stores the result as a new paper.
func (s *PaperService) Upload(ctx context.Context, in UploadInput) (*model.ProcessedPaper, error) {
	if strings.TrimSpace(in.TeacherEmail) == "" {
		return nil, ErrNotOwner
	}

	result, err := ingest.Extract(in.Exam, in.AnswerKey)
	if err != nil {
		return nil, err
	}

	paper := &model.ProcessedPaper{
		ExamID:         NewExamID(),
		TeacherEmail:   strings.TrimSpace(in.TeacherEmail),
		ExamName:       ingest.DeriveExamName(in.Form.QuizName, in.Exam.Filename),
		Subject:        strings.TrimSpace(in.Form.Subject),
		ActivityType:   strings.TrimSpace(in.Form.ActivityType),
		SourceFilename: in.Exam.Filename,
		Questions:      result.Questions,
		Difficulties:   result.Difficulties,
		AnswerKey:      result.AnswerKey,
	}

	if s.archive != nil {
		key := ArchiveKey(paper.ExamID, in.Exam.Filename)
		contentType := mimetype.Detect(in.Exam.Data).String()
		if err := s.archive.Put(ctx, key, in.Exam.Data, contentType); err != nil {
			s.log.Warn().Err(err).Str("exam_id", paper.ExamID).Msg("Failed to archive source document")
		} else {
			paper.SourceObject = key
		}
	}

	if err := s.papers.Create(ctx, paper); err != nil {
		s.discardSource(ctx, paper)
		return nil, fmt.Errorf("store paper: %w", err)
	}

	metrics.PapersProcessed.WithLabelValues(documentFormat(in.Exam.Filename)).Inc()
	s.log.Info().
		Str("exam_id", paper.ExamID).
		Str("teacher", paper.TeacherEmail).
		Int("questions", len(paper.Questions)).
		Int("answers", len(paper.AnswerKey)).
		Msg("Paper processed")
	return paper, nil
}

func documentFormat(filename string) string {
	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), "."); ext != "" {
		return ext
	}
	return "unknown"
}

func (s *PaperService) discardSource(ctx context.Context, p *model.ProcessedPaper) {
	if s.archive == nil || p.SourceObject == "" {
		return
	}
	if err := s.archive.Delete(ctx, p.SourceObject); err != nil {
		s.log.Warn().Err(err).Str("object", p.SourceObject).Msg("Failed to delete archived document")
	}
}

// List returns the teacher's papers, newest first, filtered by search.
func (s *PaperService) List(ctx context.Context, teacherEmail, search string, page, perPage int) ([]model.PaperSummary, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	summaries := []model.PaperSummary{}
	if strings.TrimSpace(teacherEmail) == "" {
		return summaries, response.NewPagination(page, perPage, 0), nil
	}

	papers, err := s.papers.ListByTeacher(ctx, strings.TrimSpace(teacherEmail), strings.TrimSpace(search))
	if err != nil {
		return nil, nil, err
	}
	offset := min((page-1)*perPage, len(papers))
	end := min(offset+perPage, len(papers))
	for _, p := range papers[offset:end] {
		summaries = append(summaries, summarize(p))
	}
	return summaries, response.NewPagination(page, perPage, len(papers)), nil
}

func summarize(p model.ProcessedPaper) model.PaperSummary {
	return model.PaperSummary{
		ExamID:        p.ExamID,
		ExamName:      p.ExamName,
		Subject:       p.Subject,
		ActivityType:  p.ActivityType,
		QuestionCount: len(p.Questions),
		UploadedAt:    p.ProcessedAt,
	}
}

// owned loads a paper and checks that actor owns it.
func (s *PaperService) owned(ctx context.Context, actor, examID string) (*model.ProcessedPaper, error) {
	p, err := s.papers.GetByExamID(ctx, examID)
	if err != nil {
		return nil, err
	}
	if !isOwner(actor, p.TeacherEmail) {
		return nil, ErrNotOwner
	}
	return p, nil
}

// Detail renders the paper through the resolver. Rows without usable text
// are skipped and do not consume a display number.
func (s *PaperService) Detail(ctx context.Context, actor, examID, questionSearch string) (*model.PaperDetail, error) {
	p, err := s.owned(ctx, actor, examID)
	if err != nil {
		return nil, err
	}

	needle := textnorm.Normalize(questionSearch)
	detail := &model.PaperDetail{
		ExamID:       p.ExamID,
		ExamName:     p.ExamName,
		Subject:      p.Subject,
		ActivityType: p.ActivityType,
		UploadedAt:   p.ProcessedAt,
		Questions:    []model.PaperQuestionRow{},
	}

	number := 1
	for i, r := range p.Questions {
		pos := i + 1
		answer := p.AnswerKey.Get(pos, answerNotSet)
		difficulty := p.Difficulties.Get(pos, question.DifficultyMedium)
		text := question.Resolve(r, difficulty, answer)
		if strings.TrimSpace(text) == "" {
			continue
		}
		if needle != "" && !strings.Contains(textnorm.Normalize(text)+" "+textnorm.Normalize(answer), needle) {
			continue
		}
		detail.Questions = append(detail.Questions, model.PaperQuestionRow{
			Number:     number,
			Position:   pos,
			Question:   text,
			Answer:     answer,
			Difficulty: difficulty,
		})
		number++
	}
	return detail, nil
}

// Delete removes a paper and its archived source document.
func (s *PaperService) Delete(ctx context.Context, actor, examID string) error {
	release, err := s.locker.Lock(ctx, examID)
	if err != nil {
		return err
	}
	defer release()

	p, err := s.owned(ctx, actor, examID)
	if err != nil {
		return err
	}
	if err := s.papers.Delete(ctx, examID); err != nil {
		return err
	}
	s.discardSource(ctx, p)

	s.log.Info().Str("exam_id", examID).Msg("Paper deleted")
	return nil
}

// Repair rewrites stored question text that the resolver can improve and
// returns how many rows changed. Nothing is written when none did.
func (s *PaperService) Repair(ctx context.Context, actor, examID string) (int, error) {
	repaired := 0
	_, err := s.mutate(ctx, actor, examID, func(p *model.ProcessedPaper) (bool, error) {
		repaired = question.Repair(p.Questions, p.Difficulties, p.AnswerKey)
		return repaired > 0, nil
	})
	if err != nil {
		return 0, err
	}
	return repaired, nil
}

// mutate runs fn on the current paper under the paper lock and stores the
// result when fn reports a change.
func (s *PaperService) mutate(ctx context.Context, actor, examID string, fn func(p *model.ProcessedPaper) (bool, error)) (*model.ProcessedPaper, error) {
	release, err := s.locker.Lock(ctx, examID)
	if err != nil {
		return nil, err
	}
	defer release()

	p, err := s.owned(ctx, actor, examID)
	if err != nil {
		return nil, err
	}

	changed, err := fn(p)
	if err != nil {
		return nil, err
	}
	if !changed {
		return p, nil
	}
	if err := s.papers.UpdateContent(ctx, p); err != nil {
		return nil, fmt.Errorf("update paper %s: %w", examID, err)
	}
	return p, nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-distributor/internal/model"
	"github.com/stemsi/exstem-distributor/internal/question"
)

const paperColumns = `id, exam_id, teacher_email, exam_name, subject, activity_type,
	source_filename, source_object, questions_json, difficulties, answer_key, processed_at`

// PaperRepository handles processed paper data access.
type PaperRepository struct {
	pool *pgxpool.Pool
}

// NewPaperRepository creates a new PaperRepository.
func NewPaperRepository(pool *pgxpool.Pool) *PaperRepository {
	return &PaperRepository{pool: pool}
}

// encodedPaper holds the three stored blobs of a paper.
type encodedPaper struct {
	questions, difficulties, answers string
}

func encodePaper(p *model.ProcessedPaper) (encodedPaper, error) {
	var (
		e   encodedPaper
		err error
	)
	if e.questions, err = p.Questions.Encode(); err != nil {
		return e, fmt.Errorf("encode questions: %w", err)
	}
	if e.difficulties, err = p.Difficulties.Encode(); err != nil {
		return e, fmt.Errorf("encode difficulties: %w", err)
	}
	if e.answers, err = p.AnswerKey.Encode(); err != nil {
		return e, fmt.Errorf("encode answer key: %w", err)
	}
	return e, nil
}

func scanPaper(row pgx.Row) (*model.ProcessedPaper, error) {
	var (
		p model.ProcessedPaper
		e encodedPaper
	)
	err := row.Scan(&p.ID, &p.ExamID, &p.TeacherEmail, &p.ExamName, &p.Subject, &p.ActivityType,
		&p.SourceFilename, &p.SourceObject, &e.questions, &e.difficulties, &e.answers, &p.ProcessedAt)
	if err != nil {
		return nil, err
	}
	p.Questions = question.DecodePool(e.questions)
	p.Difficulties = question.DecodeSideTable(e.difficulties)
	p.AnswerKey = question.DecodeSideTable(e.answers)
	return &p, nil
}

// Create inserts a processed paper.
func (r *PaperRepository) Create(ctx context.Context, p *model.ProcessedPaper) error {
	e, err := encodePaper(p)
	if err != nil {
		return err
	}
	err = r.pool.QueryRow(ctx,
		`INSERT INTO processed_papers (exam_id, teacher_email, exam_name, subject, activity_type,
		     source_filename, source_object, questions_json, difficulties, answer_key)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, processed_at`,
		p.ExamID, p.TeacherEmail, p.ExamName, p.Subject, p.ActivityType,
		p.SourceFilename, p.SourceObject, e.questions, e.difficulties, e.answers,
	).Scan(&p.ID, &p.ProcessedAt)
	return translate(err)
}

// GetByExamID retrieves a paper by its public exam id.
func (r *PaperRepository) GetByExamID(ctx context.Context, examID string) (*model.ProcessedPaper, error) {
	p, err := scanPaper(r.pool.QueryRow(ctx,
		`SELECT `+paperColumns+` FROM processed_papers WHERE exam_id = $1`, examID))
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

// ListByTeacher returns the teacher's papers, newest first. A non-blank
// search matches exam name, subject, question text or answer key.
func (r *PaperRepository) ListByTeacher(ctx context.Context, teacherEmail, search string) ([]model.ProcessedPaper, error) {
	query := `SELECT ` + paperColumns + ` FROM processed_papers WHERE lower(teacher_email) = lower($1)`
	args := []any{teacherEmail}
	if search != "" {
		query += ` AND (exam_name ILIKE $2 OR subject ILIKE $2 OR questions_json ILIKE $2 OR answer_key ILIKE $2)`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY processed_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	papers := []model.ProcessedPaper{}
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, err
		}
		papers = append(papers, *p)
	}
	return papers, rows.Err()
}

// UpdateContent rewrites the question pool and both side tables.
func (r *PaperRepository) UpdateContent(ctx context.Context, p *model.ProcessedPaper) error {
	e, err := encodePaper(p)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE processed_papers SET questions_json = $1, difficulties = $2, answer_key = $3
		 WHERE exam_id = $4`,
		e.questions, e.difficulties, e.answers, p.ExamID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a paper by exam id.
func (r *PaperRepository) Delete(ctx context.Context, examID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM processed_papers WHERE exam_id = $1`, examID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

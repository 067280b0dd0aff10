package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-distributor/internal/model"
)

const submissionColumns = `id, student_email, exam_name, subject, activity_type, score,
	total_questions, percentage, current_question, difficulty, time_limit,
	results_released, graded, answer_details, submitted_at, created_at`

// AnswerUpdate is one payload patch produced by the answer submission flow.
type AnswerUpdate struct {
	SubmissionID int64
	Patch        json.RawMessage
	SubmittedAt  time.Time
}

// SubmissionRepository handles exam submission data access.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

func scanSubmission(row pgx.Row) (*model.Submission, error) {
	var (
		s       model.Submission
		payload []byte
	)
	err := row.Scan(&s.ID, &s.StudentEmail, &s.ExamName, &s.Subject, &s.ActivityType, &s.Score,
		&s.TotalQuestions, &s.Percentage, &s.CurrentQuestion, &s.Difficulty, &s.TimeLimit,
		&s.ResultsReleased, &s.Graded, &payload, &s.SubmittedAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(payload) > 0 {
		s.AnswerDetails = json.RawMessage(payload)
	}
	return &s, nil
}

func (r *SubmissionRepository) list(ctx context.Context, query string, args ...any) ([]model.Submission, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := []model.Submission{}
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *s)
	}
	return subs, rows.Err()
}

// CreateBatch inserts every submission of one distribution call inside a
// single transaction. Either all rows are created or none.
func (r *SubmissionRepository) CreateBatch(ctx context.Context, subs []*model.Submission) error {
	if len(subs) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, s := range subs {
		batch.Queue(
			`INSERT INTO exam_submissions (student_email, exam_name, subject, activity_type, score,
			     total_questions, percentage, current_question, difficulty, time_limit,
			     results_released, graded, answer_details)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			 RETURNING id, created_at`,
			s.StudentEmail, s.ExamName, s.Subject, s.ActivityType, s.Score,
			s.TotalQuestions, s.Percentage, s.CurrentQuestion, s.Difficulty, s.TimeLimit,
			s.ResultsReleased, s.Graded, []byte(s.AnswerDetails),
		)
	}

	results := tx.SendBatch(ctx, batch)
	for _, s := range subs {
		if err := results.QueryRow().Scan(&s.ID, &s.CreatedAt); err != nil {
			results.Close()
			return fmt.Errorf("insert submission for %s: %w", s.StudentEmail, err)
		}
	}
	if err := results.Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetByID retrieves a submission by ID.
func (r *SubmissionRepository) GetByID(ctx context.Context, id int64) (*model.Submission, error) {
	s, err := scanSubmission(r.pool.QueryRow(ctx,
		`SELECT `+submissionColumns+` FROM exam_submissions WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err)
	}
	return s, nil
}

// ListBySubject returns every submission recorded under a subject name.
func (r *SubmissionRepository) ListBySubject(ctx context.Context, subject string) ([]model.Submission, error) {
	return r.list(ctx,
		`SELECT `+submissionColumns+` FROM exam_submissions
		 WHERE lower(subject) = lower($1)
		 ORDER BY created_at DESC, id DESC`, subject)
}

// ListByStudent returns a student's submissions, newest first.
func (r *SubmissionRepository) ListByStudent(ctx context.Context, studentEmail string) ([]model.Submission, error) {
	return r.list(ctx,
		`SELECT `+submissionColumns+` FROM exam_submissions
		 WHERE lower(student_email) = lower($1)
		 ORDER BY created_at DESC, id DESC`, studentEmail)
}

// DeleteByIDs removes the given submissions and reports how many went.
func (r *SubmissionRepository) DeleteByIDs(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM exam_submissions WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// ApplyAnswerBatch merges each patch into its submission payload in one
// statement. submitted_at keeps the first stamp it received. ErrPartialBatch
// is returned when some ids no longer exist.
func (r *SubmissionRepository) ApplyAnswerBatch(ctx context.Context, updates []AnswerUpdate) error {
	n := len(updates)
	if n == 0 {
		return nil
	}

	ids := make([]int64, 0, n)
	patches := make([]string, 0, n)
	stamps := make([]time.Time, 0, n)
	for _, u := range updates {
		ids = append(ids, u.SubmissionID)
		patches = append(patches, string(u.Patch))
		stamps = append(stamps, u.SubmittedAt)
	}

	query := `
		UPDATE exam_submissions AS s
		SET answer_details = CASE
				WHEN jsonb_typeof(s.answer_details) = 'object' THEN s.answer_details || t.patch
				ELSE t.patch
			END,
			submitted_at = COALESCE(s.submitted_at, t.submitted_at)
		FROM (
			SELECT u.id, u.patch, u.submitted_at
			FROM UNNEST(
				$1::bigint[],
				$2::jsonb[],
				$3::timestamptz[]
			) AS u (id, patch, submitted_at)
		) AS t
		WHERE s.id = t.id
	`

	tag, err := r.pool.Exec(ctx, query, ids, patches, stamps)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != int64(n) {
		return fmt.Errorf("%w: %d of %d", ErrPartialBatch, tag.RowsAffected(), n)
	}
	return nil
}

// ApplyAnswers merges a single patch.
func (r *SubmissionRepository) ApplyAnswers(ctx context.Context, u AnswerUpdate) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_submissions
		 SET answer_details = CASE
				WHEN jsonb_typeof(answer_details) = 'object' THEN answer_details || $1::jsonb
				ELSE $1::jsonb
			END,
			submitted_at = COALESCE(submitted_at, $2)
		 WHERE id = $3`,
		string(u.Patch), u.SubmittedAt, u.SubmissionID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

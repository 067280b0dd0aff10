package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-distributor/internal/model"
)

type SubjectRepository struct {
	pool *pgxpool.Pool
}

func NewSubjectRepository(pool *pgxpool.Pool) *SubjectRepository {
	return &SubjectRepository{pool: pool}
}

func (r *SubjectRepository) Create(ctx context.Context, s *model.Subject) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO subjects (name, teacher_email) VALUES ($1, $2) RETURNING id, created_at`,
		s.Name, s.TeacherEmail).Scan(&s.ID, &s.CreatedAt)
	return translate(err)
}

func (r *SubjectRepository) GetByID(ctx context.Context, id int64) (*model.Subject, error) {
	s := &model.Subject{}
	err := r.pool.QueryRow(ctx,
		`SELECT s.id, s.name, s.teacher_email, s.created_at,
		        (SELECT COUNT(*) FROM enrolled_students e WHERE e.subject_id = s.id)
		 FROM subjects s WHERE s.id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.TeacherEmail, &s.CreatedAt, &s.EnrolledCount)
	if err != nil {
		return nil, translate(err)
	}
	return s, nil
}

// ListByTeacher returns the teacher's subjects with their roster sizes.
func (r *SubjectRepository) ListByTeacher(ctx context.Context, teacherEmail string) ([]model.Subject, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.name, s.teacher_email, s.created_at, COUNT(e.id)
		 FROM subjects s
		 LEFT JOIN enrolled_students e ON e.subject_id = s.id
		 WHERE lower(s.teacher_email) = lower($1)
		 GROUP BY s.id
		 ORDER BY s.name ASC`, teacherEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subjects := []model.Subject{}
	for rows.Next() {
		var s model.Subject
		if err := rows.Scan(&s.ID, &s.Name, &s.TeacherEmail, &s.CreatedAt, &s.EnrolledCount); err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

func (r *SubjectRepository) ListEnrolled(ctx context.Context, subjectID int64) ([]model.EnrolledStudent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, subject_id, student_name, student_email, enrolled_at
		 FROM enrolled_students WHERE subject_id = $1
		 ORDER BY student_name ASC`, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := []model.EnrolledStudent{}
	for rows.Next() {
		var e model.EnrolledStudent
		if err := rows.Scan(&e.ID, &e.SubjectID, &e.StudentName, &e.StudentEmail, &e.EnrolledAt); err != nil {
			return nil, err
		}
		students = append(students, e)
	}
	return students, rows.Err()
}

// Enroll adds a student to a roster. Re-enrolling the same email returns
// ErrDuplicate.
func (r *SubjectRepository) Enroll(ctx context.Context, e *model.EnrolledStudent) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO enrolled_students (subject_id, student_name, student_email)
		 VALUES ($1, $2, $3)
		 RETURNING id, enrolled_at`,
		e.SubjectID, e.StudentName, e.StudentEmail,
	).Scan(&e.ID, &e.EnrolledAt)
	return translate(err)
}

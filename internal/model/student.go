package model

import "time"

// EnrolledStudent links a student to a subject roster.
type EnrolledStudent struct {
	ID           int64     `json:"id"`
	SubjectID    int64     `json:"subject_id"`
	StudentName  string    `json:"student_name"`
	StudentEmail string    `json:"student_email"`
	EnrolledAt   time.Time `json:"enrolled_at"`
}

// EnrollStudentRequest is the payload for adding a student to a roster.
type EnrollStudentRequest struct {
	StudentName  string `json:"student_name" binding:"required,min=2,max=100"`
	StudentEmail string `json:"student_email" binding:"required,email,max=255"`
}

// StudentDashboard summarizes a student's assigned and graded work.
type StudentDashboard struct {
	StudentEmail      string       `json:"student_email"`
	TotalAttempts     int          `json:"total_attempts"`
	AveragePercentage float64      `json:"average_percentage"`
	PassedCount       int          `json:"passed_count"`
	FailedCount       int          `json:"failed_count"`
	BestPercentage    float64      `json:"best_percentage"`
	Recent            []Submission `json:"recent"`
}

// StudentExamQuestion is a question as shown to the student, without its answer.
type StudentExamQuestion struct {
	Number    int      `json:"number"`
	Question  string   `json:"question"`
	Choices   []string `json:"choices"`
	OpenEnded bool     `json:"open_ended"`
}

// StudentExamView is the snapshot a student answers from.
type StudentExamView struct {
	SubmissionID int64                 `json:"submission_id"`
	ExamName     string                `json:"exam_name"`
	Subject      string                `json:"subject"`
	ActivityType string                `json:"activity_type"`
	TimeLimit    int                   `json:"time_limit"`
	Deadline     string                `json:"deadline"`
	Submitted    bool                  `json:"submitted"`
	Questions    []StudentExamQuestion `json:"questions"`
}

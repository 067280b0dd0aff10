package model

import (
	"encoding/json"
	"time"
)

// SubmissionDifficultyMixed labels submissions drawn from several difficulties.
const SubmissionDifficultyMixed = "Mixed"

// Submission is one student's copy of a distributed exam. AnswerDetails is
// the opaque payload: the frozen exam snapshot plus whatever the answer
// submission flow merges into it.
type Submission struct {
	ID              int64           `json:"id"`
	StudentEmail    string          `json:"student_email"`
	ExamName        string          `json:"exam_name"`
	Subject         string          `json:"subject"`
	ActivityType    string          `json:"activity_type"`
	Score           int             `json:"score"`
	TotalQuestions  int             `json:"total_questions"`
	Percentage      float64         `json:"percentage"`
	CurrentQuestion int             `json:"current_question"`
	Difficulty      string          `json:"difficulty"`
	TimeLimit       int             `json:"time_limit"`
	ResultsReleased bool            `json:"results_released"`
	Graded          bool            `json:"graded"`
	AnswerDetails   json.RawMessage `json:"answer_details,omitempty"`
	SubmittedAt     *time.Time      `json:"submitted_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// DistributionPayload is the exam snapshot written at distribution time.
type DistributionPayload struct {
	ExamID        string                `json:"examId"`
	DistributedAt string                `json:"distributedAt"`
	Deadline      string                `json:"deadline"`
	Questions     []DistributedQuestion `json:"questions"`
}

// DistributedQuestion is one frozen question. Number is the 1-based
// position in the source paper, not the order shown to the student.
type DistributedQuestion struct {
	Number     int      `json:"number"`
	Question   string   `json:"question"`
	Choices    []string `json:"choices"`
	Difficulty string   `json:"difficulty"`
	Answer     string   `json:"answer,omitempty"`
}

// DistributeRequest is the teacher's distribution form. Range checks happen
// in the service so each failure gets its own error code.
type DistributeRequest struct {
	ExamID        string   `json:"exam_id" binding:"required,max=64"`
	QuestionCount int      `json:"question_count"`
	TimeLimit     int      `json:"time_limit"`
	EasyPercent   int      `json:"easy_percent"`
	MediumPercent int      `json:"medium_percent"`
	HardPercent   int      `json:"hard_percent"`
	Deadline      string   `json:"deadline" binding:"omitempty,max=64"`
	Students      []string `json:"students"`
}

// DistributeResult reports how many submissions a distribution created.
type DistributeResult struct {
	Created       int `json:"created"`
	QuestionCount int `json:"question_count"`
}

// DeleteBatchRequest identifies a distribution batch to retract.
type DeleteBatchRequest struct {
	ExamName     string `json:"exam_name" binding:"required"`
	ActivityType string `json:"activity_type" binding:"required"`
	TimeLimit    int    `json:"time_limit" binding:"required"`
	Deadline     string `json:"deadline"`
}

// DistributionSummary is one distribution batch with its progress counts.
type DistributionSummary struct {
	ExamName          string `json:"exam_name"`
	Subject           string `json:"subject"`
	ActivityType      string `json:"activity_type"`
	TimeLimit         int    `json:"time_limit"`
	Deadline          string `json:"deadline"`
	DeadlineRaw       string `json:"deadline_raw"`
	AssignedCount     int    `json:"assigned_count"`
	SubmittedCount    int    `json:"submitted_count"`
	NotSubmittedCount int    `json:"not_submitted_count"`
}

// TrackerFilter narrows the tracker to one batch. Nil fields match anything.
type TrackerFilter struct {
	ExamName     *string `form:"exam_name"`
	ActivityType *string `form:"activity_type"`
	TimeLimit    *int    `form:"time_limit"`
	Deadline     *string `form:"deadline"`
}

// TrackedStudent is one enrolled student's state within the tracker.
type TrackedStudent struct {
	StudentName     string `json:"student_name"`
	StudentEmail    string `json:"student_email"`
	ExamName        string `json:"exam_name"`
	ActivityType    string `json:"activity_type"`
	Deadline        string `json:"deadline"`
	LastSubmittedAt string `json:"last_submitted_at"`
}

// TrackerView groups enrolled students by submission state.
type TrackerView struct {
	Submitted         []TrackedStudent `json:"submitted"`
	NotSubmitted      []TrackedStudent `json:"not_submitted"`
	Queued            []TrackedStudent `json:"queued"`
	SubmittedCount    int              `json:"submitted_count"`
	NotSubmittedCount int              `json:"not_submitted_count"`
	QueuedCount       int              `json:"queued_count"`
	TotalTracked      int              `json:"total_tracked"`
	Filtered          bool             `json:"filtered"`
}

// SubmitAnswersRequest is a student's final answer sheet.
type SubmitAnswersRequest struct {
	Answers []StudentAnswer `json:"answers" binding:"required,min=1,dive"`
}

// StudentAnswer answers the question at source position Number.
type StudentAnswer struct {
	Number int    `json:"number" binding:"required,min=1"`
	Answer string `json:"answer" binding:"max=5000"`
}

// AnswerSubmission is the queued unit the answer worker persists.
type AnswerSubmission struct {
	SubmissionID int64           `json:"submission_id"`
	StudentEmail string          `json:"student_email"`
	Subject      string          `json:"subject"`
	Answers      []StudentAnswer `json:"answers"`
	SubmittedAt  time.Time       `json:"submitted_at"`
	Attempts     int             `json:"attempts"`
}

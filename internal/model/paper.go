package model

import (
	"time"

	"github.com/stemsi/exstem-distributor/internal/question"
)

// ProcessedPaper is one ingested exam document and its extracted questions.
// Difficulties and AnswerKey are keyed by 1-based position in Questions.
type ProcessedPaper struct {
	ID             int64              `json:"id"`
	ExamID         string             `json:"exam_id"`
	TeacherEmail   string             `json:"teacher_email"`
	ExamName       string             `json:"exam_name"`
	Subject        string             `json:"subject"`
	ActivityType   string             `json:"activity_type"`
	SourceFilename string             `json:"source_filename"`
	SourceObject   string             `json:"source_object,omitempty"`
	Questions      question.Pool      `json:"questions"`
	Difficulties   question.SideTable `json:"difficulties"`
	AnswerKey      question.SideTable `json:"answer_key"`
	ProcessedAt    time.Time          `json:"processed_at"`
}

// UploadPaperRequest holds the form fields sent alongside the exam file.
type UploadPaperRequest struct {
	QuizName     string `form:"quiz_name" binding:"omitempty,max=255"`
	Subject      string `form:"subject" binding:"required,max=100"`
	ActivityType string `form:"activity_type" binding:"required,max=50"`
}

// PaperSummary is one row of the processed-paper list.
type PaperSummary struct {
	ExamID        string    `json:"exam_id"`
	ExamName      string    `json:"exam_name"`
	Subject       string    `json:"subject"`
	ActivityType  string    `json:"activity_type"`
	QuestionCount int       `json:"question_count"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

// PaperQuestionRow is one displayable question of the paper detail view.
type PaperQuestionRow struct {
	Number     int    `json:"number"`
	Position   int    `json:"position"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Difficulty string `json:"difficulty"`
}

// PaperDetail is the read view of a single paper.
type PaperDetail struct {
	ExamID       string             `json:"exam_id"`
	ExamName     string             `json:"exam_name"`
	Subject      string             `json:"subject"`
	ActivityType string             `json:"activity_type"`
	UploadedAt   time.Time          `json:"uploaded_at"`
	Questions    []PaperQuestionRow `json:"questions"`
}

package model

// QuestionTypeOpenEnded marks a free-text response question.
const QuestionTypeOpenEnded = "OPEN_ENDED"

// AddQuestionRequest is the payload for appending a question to a paper.
type AddQuestionRequest struct {
	QuestionText string `json:"question_text" binding:"required,max=5000"`
	QuestionType string `json:"question_type" binding:"omitempty,max=30"`
	// ChoicesText holds one choice per line.
	ChoicesText string `json:"choices_text" binding:"omitempty,max=10000"`
	Answer      string `json:"answer" binding:"omitempty,max=2000"`
	Difficulty  string `json:"difficulty" binding:"required,max=30"`
}

// EditQuestionRequest is the payload for rewriting an existing question.
type EditQuestionRequest struct {
	QuestionText string `json:"question_text" binding:"required,max=5000"`
	QuestionType string `json:"question_type" binding:"omitempty,max=30"`
	Answer       string `json:"answer" binding:"omitempty,max=2000"`
	Difficulty   string `json:"difficulty" binding:"required,max=30"`
}

// ManageQuestionsView lists a paper's questions with their parallel
// difficulty and answer values; index i of each list is the same question.
type ManageQuestionsView struct {
	ExamID       string   `json:"exam_id"`
	ExamName     string   `json:"exam_name"`
	Subject      string   `json:"subject"`
	ActivityType string   `json:"activity_type"`
	Questions    []string `json:"questions"`
	Difficulties []string `json:"difficulties"`
	AnswerKey    []string `json:"answer_key"`
}

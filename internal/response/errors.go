package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrNotOwner          ErrCode = "NOT_OWNER"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrTeacherAccessOnly ErrCode = "TEACHER_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Papers ────────────────────────────────────────────────────────
	ErrDocumentUnreadable   ErrCode = "DOCUMENT_UNREADABLE"
	ErrNoQuestionsExtracted ErrCode = "NO_QUESTIONS_EXTRACTED"
	ErrInvalidQuestionIndex ErrCode = "INVALID_QUESTION_INDEX"
	ErrPaperBusy            ErrCode = "PAPER_BUSY"

	// ─── Distribution ──────────────────────────────────────────────────
	ErrDifficultyMixInvalid  ErrCode = "DIFFICULTY_MIX_INVALID"
	ErrQuestionCountInvalid  ErrCode = "QUESTION_COUNT_INVALID"
	ErrNoStudentsSelected    ErrCode = "NO_STUDENTS_SELECTED"
	ErrPaperSubjectMismatch  ErrCode = "PAPER_SUBJECT_MISMATCH"
	ErrNoQuestions           ErrCode = "NO_QUESTIONS"
	ErrNoValidStudents       ErrCode = "NO_VALID_STUDENTS"
	ErrBatchNotFound         ErrCode = "BATCH_NOT_FOUND"
	ErrSubmissionNotEditable ErrCode = "SUBMISSION_NOT_EDITABLE"

	// ─── Media ─────────────────────────────────────────────────────────
	ErrFileRequired ErrCode = "FILE_REQUIRED"
	ErrFileTooLarge ErrCode = "FILE_TOO_LARGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid or expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrNotOwner:
		return "You are not allowed to modify this resource."
	case ErrStudentAccessOnly:
		return "This resource is restricted to students."
	case ErrTeacherAccessOnly:
		return "This resource is restricted to teachers."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Check the fields for details."
	case ErrInvalidID:
		return "Invalid identifier."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Papers ────────────────────────────────────────────────────────
	case ErrDocumentUnreadable:
		return "The uploaded document could not be read."
	case ErrNoQuestionsExtracted:
		return "No questions could be extracted from the uploaded document."
	case ErrInvalidQuestionIndex:
		return "Invalid question index."
	case ErrPaperBusy:
		return "This exam is being edited by another request. Try again shortly."

	// ─── Distribution ──────────────────────────────────────────────────
	case ErrDifficultyMixInvalid:
		return "Difficulty distribution must total 100%."
	case ErrQuestionCountInvalid:
		return "Question count must be at least 1."
	case ErrNoStudentsSelected:
		return "Please select at least one student."
	case ErrPaperSubjectMismatch:
		return "Selected exam does not belong to this subject."
	case ErrNoQuestions:
		return "No questions available in the selected exam."
	case ErrNoValidStudents:
		return "No valid students selected for distribution."
	case ErrBatchNotFound:
		return "No matching distributed quiz batch found."
	case ErrSubmissionNotEditable:
		return "This submission has already been completed."

	// ─── Media ─────────────────────────────────────────────────────────
	case ErrFileRequired:
		return "Please upload an exam file."
	case ErrFileTooLarge:
		return "The uploaded file is too large."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."

	default:
		return "An unknown error occurred."
	}
}

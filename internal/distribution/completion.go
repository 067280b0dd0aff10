package distribution

import (
	"encoding/json"
	"time"

	"github.com/stemsi/exstem-distributor/internal/model"
	"github.com/stemsi/exstem-distributor/internal/question"
)

// IsCompleted reports whether a student has meaningfully interacted with a
// submission. It reads the opaque payload fresh on every call.
func IsCompleted(s model.Submission) bool {
	if s.Graded || s.Score > 0 || s.Percentage > 0 {
		return true
	}

	payload := DecodePayload(s.AnswerDetails)
	if submitted, ok := payload["submitted"].(bool); ok && submitted {
		return true
	}
	return nonEmptyList(payload["studentAnswers"]) || nonEmptyList(payload["finalAnswers"])
}

// DecodePayload parses a submission payload. Anything that is not a JSON
// object yields an empty map.
func DecodePayload(raw json.RawMessage) map[string]any {
	out := map[string]any{}
	if len(raw) == 0 {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return map[string]any{}
	}
	return out
}

// PayloadDeadline returns the deadline recorded in a submission payload.
func PayloadDeadline(raw json.RawMessage) string {
	return question.Stringify(DecodePayload(raw)["deadline"])
}

func nonEmptyList(v any) bool {
	list, ok := v.([]any)
	return ok && len(list) > 0
}

// AnswerPatch is the fragment merged into a submission payload once the
// student's answers are persisted. The keys are the ones IsCompleted reads.
func AnswerPatch(a model.AnswerSubmission) map[string]any {
	answers := make([]map[string]any, 0, len(a.Answers))
	for _, ans := range a.Answers {
		answers = append(answers, map[string]any{"number": ans.Number, "answer": ans.Answer})
	}
	return map[string]any{
		"submitted":      true,
		"studentAnswers": answers,
		"submittedAt":    a.SubmittedAt.UTC().Format(time.RFC3339),
	}
}

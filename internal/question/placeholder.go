package question

import (
	"regexp"
	"strings"
)

var numericOnly = regexp.MustCompile(`^\d+$`)

// metadataWords are header or code values that show up where question text
// should be when extraction misaligns columns.
var metadataWords = map[string]struct{}{
	"id": {}, "no": {}, "number": {},
	"question": {}, "questions": {},
	"answer": {}, "answers": {},
	"difficulty": {}, "type": {},
	"mc": {}, "open": {}, "multiple choice": {}, "open ended": {},
	"question_text": {}, "correct_answer": {},
	"easy": {}, "medium": {}, "hard": {},
}

// LooksLikePlaceholder reports whether value is extraction noise rather than
// question content. difficulty and answer are the row's own values; pass ""
// when the row has none.
func LooksLikePlaceholder(value, difficulty, answer string) bool {
	text := strings.TrimSpace(value)
	if text == "" {
		return true
	}

	normalized := strings.ToLower(text)
	if numericOnly.MatchString(normalized) {
		return true
	}
	if _, ok := metadataWords[normalized]; ok {
		return true
	}
	if difficulty != "" && normalized == strings.ToLower(strings.TrimSpace(difficulty)) {
		return true
	}
	if strings.TrimSpace(answer) != "" && normalized == strings.ToLower(strings.TrimSpace(answer)) {
		return true
	}
	return false
}

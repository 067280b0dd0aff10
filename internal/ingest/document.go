package ingest

import (
	"regexp"
	"strings"

	"github.com/stemsi/exstem-distributor/internal/question"
	"github.com/stemsi/exstem-distributor/internal/textnorm"
)

var (
	// numberedQuestion matches "12) text", "12. text", "12: text" and "12 - text".
	numberedQuestion = regexp.MustCompile(`(?m)^\s*(\d+)\s*[).:-]\s*(.+)$`)
	// inlineAnswer matches an "Answer: X" marker inside a question line.
	inlineAnswer = regexp.MustCompile(`(?i)\banswer\s*[:\-]\s*([A-D]|[^\r\n]+)`)
)

// ParseText extracts numbered questions from a page text dump. The question
// text keeps any inline answer marker; the marker's value becomes the answer.
func ParseText(text string) question.Pool {
	pool := question.Pool{}
	for _, m := range numberedQuestion.FindAllStringSubmatch(text, -1) {
		body := strings.TrimSpace(m[2])
		if body == "" {
			continue
		}
		r := question.Record{Question: body, Choices: []string{}}
		if a := inlineAnswer.FindStringSubmatch(body); a != nil {
			r.Answer = textnorm.StripEntities(a[1])
		}
		pool = append(pool, r)
	}
	return pool
}

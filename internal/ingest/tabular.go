package ingest

import (
	"regexp"
	"strings"

	"github.com/stemsi/exstem-distributor/internal/question"
	"github.com/stemsi/exstem-distributor/internal/textnorm"
)

type columnKind int

const (
	columnQuestion columnKind = iota
	columnAnswer
	columnDifficulty
	columnChoice
)

// headerRule classifies a normalized header cell. Rules are evaluated in
// order and a cell may match several of them.
type headerRule struct {
	kind  columnKind
	match func(h string) bool
}

var (
	optionHeader = regexp.MustCompile(`^option\s*[a-z0-9]+$`)
	letterHeader = regexp.MustCompile(`^[a-d]$`)
)

var headerRules = []headerRule{
	{columnQuestion, func(h string) bool { return strings.Contains(h, "question") }},
	{columnAnswer, func(h string) bool { return strings.Contains(h, "answer") || h == "key" }},
	{columnDifficulty, func(h string) bool { return strings.Contains(h, "difficulty") || strings.Contains(h, "level") }},
	{columnChoice, func(h string) bool {
		return strings.Contains(h, "choice") || optionHeader.MatchString(h) || letterHeader.MatchString(h)
	}},
}

// numberingHeaders mark a leading row-number column.
var numberingHeaders = map[string]struct{}{"id": {}, "number": {}, "no": {}}

// layout says which column holds what.
type layout struct {
	question   int
	answer     int
	difficulty int
	choices    []int
}

func defaultLayout() layout {
	return layout{question: 0, answer: 5, difficulty: -1, choices: []int{1, 2, 3, 4}}
}

// detectHeader inspects the first row. ok is false when the row is data.
func detectHeader(columns []string) (l layout, ok bool) {
	l = defaultLayout()

	detected := map[columnKind]int{columnQuestion: -1, columnAnswer: -1, columnDifficulty: -1}
	var choices []int
	for i, col := range columns {
		h := textnorm.Normalize(col)
		for _, rule := range headerRules {
			if !rule.match(h) {
				continue
			}
			if rule.kind == columnChoice {
				choices = append(choices, i)
			} else {
				detected[rule.kind] = i
			}
		}
	}

	first := ""
	if len(columns) > 0 {
		first = textnorm.Normalize(columns[0])
	}
	_, numbered := numberingHeaders[first]

	classified := detected[columnQuestion] >= 0 || detected[columnAnswer] >= 0 ||
		detected[columnDifficulty] >= 0 || len(choices) > 0
	if !classified && !numbered {
		return defaultLayout(), false
	}

	switch {
	case detected[columnQuestion] >= 0:
		l.question = detected[columnQuestion]
	case numbered && len(columns) > 1:
		l.question = 1
	}
	if detected[columnAnswer] >= 0 {
		l.answer = detected[columnAnswer]
	}
	if detected[columnDifficulty] >= 0 {
		l.difficulty = detected[columnDifficulty]
	}

	if len(choices) > 0 {
		l.choices = choices
		return l, true
	}
	start := l.question + 1
	end := min(start+4, len(columns))
	if detected[columnAnswer] > 0 {
		end = detected[columnAnswer]
	}
	l.choices = nil
	for i := start; i < end; i++ {
		l.choices = append(l.choices, i)
	}
	return l, true
}

// ParseTable converts delimited rows into question records. The first row is
// consumed as a header only when it looks like one.
func ParseTable(rows [][]string) question.Pool {
	pool := question.Pool{}
	if len(rows) == 0 {
		return pool
	}

	l, isHeader := detectHeader(rows[0])
	if isHeader {
		rows = rows[1:]
	}

	for _, columns := range rows {
		if r, ok := parseRow(columns, l); ok {
			pool = append(pool, r)
		}
	}
	return pool
}

func parseRow(columns []string, l layout) (question.Record, bool) {
	if l.question < 0 || l.question >= len(columns) {
		return question.Record{}, false
	}

	text := strings.TrimSpace(columns[l.question])
	if question.LooksLikePlaceholder(text, "", "") {
		text = bestCandidate(columns, l.question, l.answer)
	}
	if text == "" {
		return question.Record{}, false
	}

	r := question.Record{Question: text, Choices: []string{}}
	for _, idx := range l.choices {
		if idx < 0 || idx >= len(columns) {
			continue
		}
		if c := textnorm.StripEntities(columns[idx]); c != "" {
			r.Choices = append(r.Choices, c)
		}
	}
	if l.answer >= 0 && l.answer < len(columns) {
		r.Answer = textnorm.StripEntities(columns[l.answer])
	}
	if l.difficulty >= 0 && l.difficulty < len(columns) {
		r.Difficulty = question.NormalizeDifficulty(columns[l.difficulty])
	}
	return r, true
}

// bestCandidate scans a row whose question cell is unusable. The question cell
// wins outright when usable; otherwise the longest usable cell outside the
// answer column does.
func bestCandidate(columns []string, questionCol, answerCol int) string {
	best := ""
	for i, col := range columns {
		if i == answerCol {
			continue
		}
		candidate := strings.TrimSpace(col)
		if question.LooksLikePlaceholder(candidate, "", "") {
			continue
		}
		if i == questionCol {
			return candidate
		}
		if len(candidate) > len(best) {
			best = candidate
		}
	}
	return best
}

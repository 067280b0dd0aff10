package ingest

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/stemsi/exstem-distributor/internal/question"
	"github.com/stemsi/exstem-distributor/internal/textnorm"
)

// answerKeyLine matches "3) B", "3. photosynthesis", "3 C" and similar.
var answerKeyLine = regexp.MustCompile(`(?m)^\s*(\d+)\s*[).:-]?\s*([A-D]|[^\r\n]+)\s*$`)

var digitsOnly = regexp.MustCompile(`^\d+$`)

// MergeAnswerKey builds the answer side table for pool. Answers carried on
// the records seed the table; entries from key, when given, overwrite them.
// Positions outside the pool are ignored.
func MergeAnswerKey(pool question.Pool, key *Document) (question.SideTable, error) {
	answers := question.SideTable{}
	for i, r := range pool {
		if strings.TrimSpace(r.Answer) != "" {
			answers[i+1] = textnorm.StripEntities(r.Answer)
		}
	}
	if key == nil || len(key.Data) == 0 {
		return answers, nil
	}

	put := func(rawPos, value string) {
		pos, err := strconv.Atoi(strings.TrimSpace(rawPos))
		if err != nil || pos < 1 || pos > len(pool) {
			return
		}
		answers[pos] = textnorm.StripEntities(value)
	}

	if key.isTabular() {
		rows, err := key.rows()
		if err != nil {
			return nil, err
		}
		for _, columns := range rows {
			if len(columns) >= 2 && digitsOnly.MatchString(strings.TrimSpace(columns[0])) {
				put(columns[0], columns[1])
			}
		}
		return answers, nil
	}

	text, err := key.text()
	if err != nil {
		return nil, err
	}
	for _, m := range answerKeyLine.FindAllStringSubmatch(text, -1) {
		put(m[1], m[2])
	}
	return answers, nil
}

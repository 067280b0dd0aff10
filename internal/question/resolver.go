package question

import (
	"regexp"
	"sort"
	"strings"
)

// minAnswerFallbackLen is the length an answer must exceed before it is
// shown in place of missing question text.
const minAnswerFallbackLen = 12

// alternateTextKeys are the other field names extraction tools have used for
// the question text, in lookup order.
var alternateTextKeys = []string{"question_text", "questionText", "text"}

// reservedKeys are never scanned as free-form candidates (compared lowercased).
var reservedKeys = map[string]struct{}{
	"question": {}, "choices": {}, "answer": {}, "difficulty": {},
	"id": {}, "type": {}, "questiontype": {},
}

var choiceSplitter = regexp.MustCompile(`\r?\n|,`)

// Resolve picks the best displayable question text for r, falling back to a
// long answer when nothing else is usable. Empty means no usable text.
func Resolve(r Record, difficulty, answer string) string {
	return resolve(r, difficulty, answer, true)
}

// ResolveStrict is Resolve without the answer fallback. Repair uses it.
func ResolveStrict(r Record, difficulty, answer string) string {
	return resolve(r, difficulty, answer, false)
}

func resolve(r Record, difficulty, answer string, allowAnswerFallback bool) string {
	best := ""
	for _, candidate := range candidates(r) {
		if len(candidate) > len(best) && !LooksLikePlaceholder(candidate, difficulty, answer) {
			best = candidate
		}
	}
	if best != "" {
		return best
	}

	if allowAnswerFallback {
		a := strings.TrimSpace(answer)
		if len(a) > minAnswerFallbackLen && !strings.EqualFold(a, ManualGrade) {
			return a
		}
	}
	return ""
}

// candidates lists every string that might hold the question text, in
// precedence order. Ties in length keep the earliest candidate.
func candidates(r Record) []string {
	out := make([]string, 0, 8+len(r.Choices)+len(r.Extra))

	text, _ := StripOpenEnded(r.Question)
	out = append(out, text)

	for _, key := range alternateTextKeys {
		if v, ok := r.Extra[key]; ok && v != nil {
			out = append(out, strings.TrimSpace(Stringify(v)))
		}
	}

	switch {
	case r.Choices != nil:
		for _, c := range r.Choices {
			out = append(out, strings.TrimSpace(c))
		}
	case r.ChoicesText != "":
		for _, part := range choiceSplitter.Split(r.ChoicesText, -1) {
			out = append(out, strings.TrimSpace(part))
		}
	}

	keys := make([]string, 0, len(r.Extra))
	for k := range r.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, reserved := reservedKeys[strings.ToLower(strings.TrimSpace(k))]; reserved {
			continue
		}
		if v := r.Extra[k]; v != nil {
			out = append(out, strings.TrimSpace(Stringify(v)))
		}
	}
	return out
}

// Repair rewrites, in place, every question whose stored text differs from
// its strict resolution and returns how many rows changed.
func Repair(pool Pool, difficulties, answers SideTable) int {
	repaired := 0
	for i := range pool {
		pos := i + 1
		current := strings.TrimSpace(pool[i].Question)
		resolved := ResolveStrict(pool[i], difficulties.Get(pos, DifficultyMedium), answers.Get(pos, ""))
		if resolved != "" && resolved != current {
			pool[i].Question = resolved
			repaired++
		}
	}
	return repaired
}

// Package question models extracted exam questions and the heuristics that
// turn loosely-typed extraction output into displayable question text.
package question

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Markers stored inside records.
const (
	// OpenEndedPrefix marks a free-text response question.
	OpenEndedPrefix = "[TEXT_INPUT]"
	// ManualGrade is the answer placeholder for open-ended questions.
	ManualGrade = "MANUAL_GRADE"
)

// Record is one extracted question. The known extraction shape is typed;
// every other key found in a stored record is kept in Extra so the resolver
// can still scan it.
type Record struct {
	Question string
	// Choices is nil when the stored record had no list of choices.
	Choices []string
	// ChoicesText holds choices stored as one delimited string.
	ChoicesText string
	Answer      string
	Difficulty  string
	Extra       map[string]any
}

// StripOpenEnded trims text and removes the open-ended marker. ok reports
// whether the marker was present.
func StripOpenEnded(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, OpenEndedPrefix) {
		return text, false
	}
	return strings.TrimSpace(strings.TrimPrefix(text, OpenEndedPrefix)), true
}

// MarshalJSON flattens the record back into a single JSON object.
func (r Record) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.Extra)+4)
	for k, v := range r.Extra {
		m[k] = v
	}
	m["question"] = r.Question
	switch {
	case r.Choices != nil:
		m["choices"] = r.Choices
	case r.ChoicesText != "":
		m["choices"] = r.ChoicesText
	}
	if r.Answer != "" {
		m["answer"] = r.Answer
	}
	if r.Difficulty != "" {
		m["difficulty"] = r.Difficulty
	}
	return json.Marshal(m)
}

// UnmarshalJSON accepts any JSON object. Non-string scalars in the known
// fields are stringified; unknown keys go to Extra.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = Record{}
	for k, v := range raw {
		switch k {
		case "question":
			r.Question = Stringify(v)
		case "choices":
			switch c := v.(type) {
			case []any:
				r.Choices = make([]string, 0, len(c))
				for _, item := range c {
					r.Choices = append(r.Choices, Stringify(item))
				}
			case string:
				r.ChoicesText = c
			default:
				r.setExtra(k, v)
			}
		case "answer":
			r.Answer = Stringify(v)
		case "difficulty":
			r.Difficulty = Stringify(v)
		default:
			r.setExtra(k, v)
		}
	}
	return nil
}

func (r *Record) setExtra(k string, v any) {
	if r.Extra == nil {
		r.Extra = make(map[string]any)
	}
	r.Extra[k] = v
}

// Stringify renders a decoded JSON value as display text. Whole numbers have
// no fractional part and null is empty.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// Pool is the ordered question sequence of one paper. Position i+1 is the
// 1-based key used by the side tables.
type Pool []Record

// DecodePool parses a stored pool blob. Blank or malformed input yields an
// empty pool.
func DecodePool(blob string) Pool {
	if strings.TrimSpace(blob) == "" {
		return Pool{}
	}
	var p Pool
	if err := json.Unmarshal([]byte(blob), &p); err != nil || p == nil {
		return Pool{}
	}
	return p
}

// Encode serializes the pool for storage.
func (p Pool) Encode() (string, error) {
	if p == nil {
		p = Pool{}
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Clone returns a deep copy so callers may mutate records freely.
func (p Pool) Clone() Pool {
	out := make(Pool, len(p))
	for i, r := range p {
		c := r
		if r.Choices != nil {
			c.Choices = make([]string, len(r.Choices))
			copy(c.Choices, r.Choices)
		}
		if r.Extra != nil {
			c.Extra = make(map[string]any, len(r.Extra))
			for k, v := range r.Extra {
				c.Extra[k] = v
			}
		}
		out[i] = c
	}
	return out
}

// Package distribution selects difficulty-balanced question subsets, orders
// them independently per student, and summarizes the resulting submissions.
package distribution

import (
	"errors"
	"regexp"
	"slices"
	"strings"

	"github.com/stemsi/exstem-distributor/internal/model"
	"github.com/stemsi/exstem-distributor/internal/question"
)

var (
	ErrMixNotHundred        = errors.New("difficulty distribution must total 100%")
	ErrInvalidQuestionCount = errors.New("question count must be at least 1")
	ErrNoStudents           = errors.New("at least one student must be selected")
	ErrEmptyPool            = errors.New("no questions available in the selected exam")
	ErrNoValidStudents      = errors.New("no valid students selected for distribution")
)

var choiceTextSplitter = regexp.MustCompile(`\r?\n|,`)

// Request is one distribution call over a single paper.
type Request struct {
	Pool         question.Pool
	Difficulties question.SideTable
	Answers      question.SideTable
	Count        int
	Mix          Mix
	Students     []string
}

// Assignment is the ordered question list frozen for one student.
type Assignment struct {
	StudentEmail string
	Questions    []model.DistributedQuestion
}

// ValidateRequest checks the request-level rules in the order the teacher
// sees them: students, count, then mix.
func ValidateRequest(count int, mix Mix, students []string) error {
	if len(students) == 0 {
		return ErrNoStudents
	}
	if count < 1 {
		return ErrInvalidQuestionCount
	}
	if !mix.Valid() {
		return ErrMixNotHundred
	}
	return nil
}

// Distribute selects one shared question subset and gives every student an
// independently shuffled copy. Blank student emails are skipped.
func Distribute(req Request, s *Shuffler) ([]Assignment, error) {
	if err := ValidateRequest(req.Count, req.Mix, req.Students); err != nil {
		return nil, err
	}
	if len(req.Pool) == 0 {
		return nil, ErrEmptyPool
	}

	selected := SelectIndexes(req.Count, len(req.Pool), req.Difficulties, req.Mix, s)
	if len(selected) == 0 {
		return nil, ErrEmptyPool
	}

	assignments := make([]Assignment, 0, len(req.Students))
	for _, raw := range req.Students {
		email := strings.TrimSpace(raw)
		if email == "" {
			continue
		}
		order := slices.Clone(selected)
		s.Shuffle(order)

		questions := make([]model.DistributedQuestion, 0, len(order))
		for _, idx := range order {
			questions = append(questions, freeze(req, idx))
		}
		assignments = append(assignments, Assignment{StudentEmail: email, Questions: questions})
	}
	if len(assignments) == 0 {
		return nil, ErrNoValidStudents
	}
	return assignments, nil
}

func freeze(req Request, idx int) model.DistributedQuestion {
	pos := idx + 1
	r := req.Pool[idx]
	return model.DistributedQuestion{
		Number:     pos,
		Question:   r.Question,
		Choices:    frozenChoices(r),
		Difficulty: req.Difficulties.Get(pos, question.DifficultyMedium),
		Answer:     req.Answers.Get(pos, ""),
	}
}

func frozenChoices(r question.Record) []string {
	if r.Choices != nil {
		return slices.Clone(r.Choices)
	}
	out := []string{}
	if r.ChoicesText == "" {
		return out
	}
	for _, part := range choiceTextSplitter.Split(r.ChoicesText, -1) {
		if c := strings.TrimSpace(part); c != "" {
			out = append(out, c)
		}
	}
	return out
}

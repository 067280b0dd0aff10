package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/stemsi/exstem-distributor/internal/model"
	"github.com/stemsi/exstem-distributor/internal/question"
	"github.com/stemsi/exstem-distributor/internal/textnorm"
)

var choiceLineSplitter = regexp.MustCompile(`\r?\n`)

// ManageView lists the paper's resolved questions alongside their
// difficulty and answer values.
func (s *PaperService) ManageView(ctx context.Context, actor, examID string) (*model.ManageQuestionsView, error) {
	p, err := s.owned(ctx, actor, examID)
	if err != nil {
		return nil, err
	}
	return manageView(p), nil
}

func manageView(p *model.ProcessedPaper) *model.ManageQuestionsView {
	n := len(p.Questions)
	view := &model.ManageQuestionsView{
		ExamID:       p.ExamID,
		ExamName:     p.ExamName,
		Subject:      p.Subject,
		ActivityType: p.ActivityType,
		Questions:    make([]string, 0, n),
		Difficulties: make([]string, 0, n),
		AnswerKey:    make([]string, 0, n),
	}
	for i, r := range p.Questions {
		pos := i + 1
		difficulty := p.Difficulties.Get(pos, question.DifficultyMedium)
		answer := p.AnswerKey.Get(pos, "")
		view.Questions = append(view.Questions, question.Resolve(r, difficulty, answer))
		view.Difficulties = append(view.Difficulties, difficulty)
		view.AnswerKey = append(view.AnswerKey, answer)
	}
	return view
}

// questionText trims the submitted text and marks open-ended questions once.
func questionText(raw string, openEnded bool) string {
	text := strings.TrimSpace(raw)
	if openEnded && !strings.HasPrefix(text, question.OpenEndedPrefix) {
		text = question.OpenEndedPrefix + text
	}
	return text
}

func answerFor(raw string, openEnded bool) string {
	if openEnded {
		return question.ManualGrade
	}
	return textnorm.StripEntities(raw)
}

func isOpenEnded(questionType string) bool {
	return strings.EqualFold(strings.TrimSpace(questionType), model.QuestionTypeOpenEnded)
}

// AddQuestion appends a question at the next position.
func (s *PaperService) AddQuestion(ctx context.Context, actor, examID string, req model.AddQuestionRequest) (*model.ManageQuestionsView, error) {
	openEnded := isOpenEnded(req.QuestionType)

	choices := []string{}
	if !openEnded {
		for _, line := range choiceLineSplitter.Split(req.ChoicesText, -1) {
			if c := textnorm.StripEntities(line); c != "" {
				choices = append(choices, c)
			}
		}
	}

	p, err := s.mutate(ctx, actor, examID, func(p *model.ProcessedPaper) (bool, error) {
		p.Questions = append(p.Questions, question.Record{
			Question: questionText(req.QuestionText, openEnded),
			Choices:  choices,
		})
		pos := len(p.Questions)
		p.Difficulties[pos] = question.DifficultyOrMedium(req.Difficulty)
		p.AnswerKey[pos] = answerFor(req.Answer, openEnded)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return manageView(p), nil
}

// EditQuestion rewrites the text, difficulty and answer of the question at
// the 0-based index. Choices are left as they are.
func (s *PaperService) EditQuestion(ctx context.Context, actor, examID string, index int, req model.EditQuestionRequest) (*model.ManageQuestionsView, error) {
	openEnded := isOpenEnded(req.QuestionType)

	p, err := s.mutate(ctx, actor, examID, func(p *model.ProcessedPaper) (bool, error) {
		if index < 0 || index >= len(p.Questions) {
			return false, ErrInvalidQuestionIndex
		}
		pos := index + 1
		p.Questions[index].Question = questionText(req.QuestionText, openEnded)
		p.Difficulties[pos] = question.DifficultyOrMedium(req.Difficulty)
		p.AnswerKey[pos] = answerFor(req.Answer, openEnded)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return manageView(p), nil
}

// DeleteQuestion removes the question at the 0-based index and shifts both
// side tables so every later question keeps its own values.
func (s *PaperService) DeleteQuestion(ctx context.Context, actor, examID string, index int) (*model.ManageQuestionsView, error) {
	p, err := s.mutate(ctx, actor, examID, func(p *model.ProcessedPaper) (bool, error) {
		n := len(p.Questions)
		if index < 0 || index >= n {
			return false, ErrInvalidQuestionIndex
		}
		p.Questions = append(p.Questions[:index], p.Questions[index+1:]...)
		p.Difficulties = p.Difficulties.RemoveAt(index+1, n)
		p.AnswerKey = p.AnswerKey.RemoveAt(index+1, n)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return manageView(p), nil
}

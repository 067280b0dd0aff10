// Package ingest turns uploaded exam documents into question pools and their
// difficulty and answer side tables.
package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/stemsi/exstem-distributor/internal/question"
)

var (
	ErrUnreadableDocument   = errors.New("document could not be read")
	ErrNoQuestionsExtracted = errors.New("no questions could be extracted from the document")
)

const defaultExamName = "Processed Exam"

// Document is an uploaded file held fully in memory.
type Document struct {
	Filename string
	Data     []byte
}

type sourceKind int

const (
	sourcePDF sourceKind = iota
	sourceCSV
	sourceWorkbook
	sourcePlainText
)

func (d Document) kind() sourceKind {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(d.Filename))) {
	case ".csv":
		return sourceCSV
	case ".xlsx":
		return sourceWorkbook
	case ".txt":
		return sourcePlainText
	default:
		return sourcePDF
	}
}

func (d Document) isTabular() bool {
	k := d.kind()
	return k == sourceCSV || k == sourceWorkbook
}

func (d Document) rows() ([][]string, error) {
	if d.kind() == sourceWorkbook {
		rows, err := ReadWorkbookRows(d.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableDocument, d.Filename, err)
		}
		return rows, nil
	}
	return ReadRows(d.Data), nil
}

func (d Document) text() (string, error) {
	if d.kind() == sourcePlainText {
		return strings.TrimPrefix(string(d.Data), utf8BOM), nil
	}
	text, err := ExtractPDFText(d.Data)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnreadableDocument, d.Filename, err)
	}
	return text, nil
}

// ParseQuestions routes doc to the tabular or free-text parser by extension.
func ParseQuestions(doc Document) (question.Pool, error) {
	if doc.isTabular() {
		rows, err := doc.rows()
		if err != nil {
			return nil, err
		}
		return ParseTable(rows), nil
	}
	text, err := doc.text()
	if err != nil {
		return nil, err
	}
	return ParseText(text), nil
}

// Result is everything stored for one ingested paper.
type Result struct {
	Questions    question.Pool
	Difficulties question.SideTable
	AnswerKey    question.SideTable
}

// Extract runs the whole pipeline for an exam document and an optional
// answer key. An exam that yields no questions is rejected.
func Extract(exam Document, key *Document) (Result, error) {
	pool, err := ParseQuestions(exam)
	if err != nil {
		return Result{}, err
	}
	if len(pool) == 0 {
		return Result{}, fmt.Errorf("%w: %s", ErrNoQuestionsExtracted, exam.Filename)
	}

	answers, err := MergeAnswerKey(pool, key)
	if err != nil {
		return Result{}, fmt.Errorf("answer key: %w", err)
	}

	return Result{
		Questions:    pool,
		Difficulties: BuildDifficulties(pool),
		AnswerKey:    answers,
	}, nil
}

// BuildDifficulties assigns every position its record's difficulty, or Medium.
func BuildDifficulties(pool question.Pool) question.SideTable {
	t := make(question.SideTable, len(pool))
	for i, r := range pool {
		t[i+1] = question.DifficultyOrMedium(r.Difficulty)
	}
	return t
}

// DeriveExamName prefers the teacher-supplied name, then the file's base name.
func DeriveExamName(quizName, filename string) string {
	if name := strings.TrimSpace(quizName); name != "" {
		return name
	}
	base := strings.TrimSpace(filename)
	if dot := strings.LastIndex(base, "."); dot > 0 {
		return base[:dot]
	}
	if base != "" {
		return base
	}
	return defaultExamName
}

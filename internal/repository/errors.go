// Package repository persists papers, subjects, rosters and submissions.
// PostgreSQL repositories use raw SQL over a pgx pool; MemoryStore holds the
// same data in process for single-node runs and tests.
package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicate    = errors.New("record already exists")
	// ErrPartialBatch means a batch write touched fewer rows than it was given.
	ErrPartialBatch = errors.New("batch updated fewer rows than requested")
)

const uniqueViolation = "23505"

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}

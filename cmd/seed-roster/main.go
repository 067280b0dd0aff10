package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/stemsi/exstem-distributor/internal/config"
	"github.com/stemsi/exstem-distributor/internal/database"
	"github.com/stemsi/exstem-distributor/internal/ingest"
	"github.com/stemsi/exstem-distributor/internal/logger"
	"github.com/stemsi/exstem-distributor/internal/model"
	"github.com/stemsi/exstem-distributor/internal/repository"
	"github.com/stemsi/exstem-distributor/internal/service"
)

// seed-roster enrolls students into a subject from a CSV or xlsx file whose
// rows are "name,email". A header row is skipped.
func main() {
	var (
		subjectID int64
		teacher   string
		file      string
	)
	flag.Int64Var(&subjectID, "subject", 0, "Subject ID to enroll into")
	flag.StringVar(&teacher, "teacher", "", "Email of the subject's teacher")
	flag.StringVar(&file, "file", "", "Roster file (.csv or .xlsx)")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)

	if subjectID < 1 || teacher == "" || file == "" {
		flag.Usage()
		os.Exit(2)
	}

	rows, err := readRoster(file)
	if err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("Failed to read roster")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	subjects := service.NewSubjectService(
		repository.NewSubjectRepository(pool),
		repository.NewPaperRepository(pool),
		repository.NewSubmissionRepository(pool),
		log,
	)

	fmt.Printf("=== Seeding %d students into subject %d ===\n", len(rows), subjectID)

	enrolled, skipped := 0, 0
	for _, req := range rows {
		_, err := subjects.Enroll(ctx, teacher, subjectID, req)
		switch {
		case errors.Is(err, service.ErrAlreadyEnrolled):
			skipped++
		case errors.Is(err, service.ErrNotOwner), errors.Is(err, service.ErrNotFound):
			log.Fatal().Err(err).Int64("subject_id", subjectID).Msg("Cannot seed this subject")
		case err != nil:
			fmt.Printf("Error enrolling %s <%s>: %v\n", req.StudentName, req.StudentEmail, err)
		default:
			enrolled++
		}
	}

	fmt.Printf("\nSeed completed! Enrolled %d, already present %d, total rows %d.\n", enrolled, skipped, len(rows))
}

func readRoster(path string) ([]model.EnrollStudentRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		if rows, err = ingest.ReadWorkbookRows(data); err != nil {
			return nil, err
		}
	} else {
		rows = ingest.ReadRows(data)
	}

	out := make([]model.EnrollStudentRequest, 0, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		name, email := strings.TrimSpace(row[0]), strings.TrimSpace(row[1])
		if !strings.Contains(email, "@") {
			// header or malformed row
			continue
		}
		out = append(out, model.EnrollStudentRequest{StudentName: name, StudentEmail: email})
	}
	return out, nil
}

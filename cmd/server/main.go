package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-distributor/internal/config"
	"github.com/stemsi/exstem-distributor/internal/database"
	"github.com/stemsi/exstem-distributor/internal/handler"
	"github.com/stemsi/exstem-distributor/internal/logger"
	"github.com/stemsi/exstem-distributor/internal/metrics"
	"github.com/stemsi/exstem-distributor/internal/middleware"
	"github.com/stemsi/exstem-distributor/internal/repository"
	"github.com/stemsi/exstem-distributor/internal/router"
	"github.com/stemsi/exstem-distributor/internal/service"
	"github.com/stemsi/exstem-distributor/internal/validator"
	"github.com/stemsi/exstem-distributor/internal/worker"
)

// stores bundles the persistence backend selected by STORE_DRIVER.
type stores struct {
	papers      service.PaperStore
	subjects    service.SubjectStore
	submissions interface {
		service.SubmissionStore
		worker.AnswerStore
	}
	// pool is nil for the in-memory driver.
	pool *pgxpool.Pool
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		log.Warn().Msg("Using in-memory store; data is lost on restart")
		mem := repository.NewMemoryStore()
		return &stores{papers: mem.Papers, subjects: mem.Subjects, submissions: mem.Submissions}, nil
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return &stores{
		papers:      repository.NewPaperRepository(pool),
		subjects:    repository.NewSubjectRepository(pool),
		submissions: repository.NewSubmissionRepository(pool),
		pool:        pool,
	}, nil
}

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("store", cfg.StoreDriver).
		Str("storage", cfg.StorageDriver).
		Msg("Starting ExStem Distributor")

	validator.Setup()
	metrics.Init()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Persistence ───────────────────────────────────────────────────
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	if st.pool != nil {
		defer st.pool.Close()
	}

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Document Archive ──────────────────────────────────────────────
	archive, err := service.NewArchive(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure document archive")
	}
	if m, ok := archive.(*service.MinioArchive); ok {
		if err := m.EnsureBucket(ctx); err != nil {
			log.Fatal().Err(err).Str("bucket", cfg.MinioBucket).Msg("Failed to prepare MinIO bucket")
		}
	}

	// ─── Initialize Services ──────────────────────────────────────────
	locker := service.NewRedisLocker(rdb, cfg.PaperLockTTL, log)
	answerQueue := worker.NewRedisAnswerQueue(rdb)

	authService := service.NewAuthService(cfg)
	paperService := service.NewPaperService(st.papers, archive, locker, log)
	subjectService := service.NewSubjectService(st.subjects, st.papers, st.submissions, log)
	distributionService := service.NewDistributionService(st.subjects, st.papers, st.submissions, cfg.DefaultTimeLimit, log)
	studentService := service.NewStudentService(st.submissions, answerQueue, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	var dbPinger handler.Pinger
	if st.pool != nil {
		dbPinger = st.pool
	}
	handlers := &router.Handlers{
		Auth:         handler.NewAuthHandler(),
		Paper:        handler.NewPaperHandler(paperService, cfg.MaxUploadBytes, log),
		Question:     handler.NewQuestionHandler(paperService, log),
		Subject:      handler.NewSubjectHandler(subjectService, log),
		Distribution: handler.NewDistributionHandler(distributionService, log),
		Student:      handler.NewStudentHandler(studentService, log),
		Tracker:      handler.NewTrackerWSHandler(rdb, subjectService, distributionService, log, cfg.AllowedOrigins),
		System:       handler.NewSystemHandler(rdb, dbPinger, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workerDone := make(chan struct{})

	answersWorker := worker.NewSubmissionAnswersWorker(st.submissions, rdb, log)
	go func() {
		defer close(workerDone)
		answersWorker.Start(workerCtx)
	}()

	limiterStop := make(chan struct{})
	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	limiter.StartCleanup(limiterStop)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, limiter, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	close(limiterStop)

	// 2. Stop the worker; it flushes its in-flight batch before returning.
	workerCancel()
	select {
	case <-workerDone:
	case <-time.After(10 * time.Second):
		log.Warn().Msg("Answer worker did not drain in time")
	}

	log.Info().Msg("Shutdown complete")
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}

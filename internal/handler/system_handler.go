package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-distributor/internal/config"
	"github.com/stemsi/exstem-distributor/internal/response"
)

const healthTimeout = 3 * time.Second

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler reports service health.
type SystemHandler struct {
	rdb       *redis.Client
	db        Pinger
	startTime time.Time
	log       zerolog.Logger
}

// NewSystemHandler creates a SystemHandler. db may be nil when the in-memory
// store is in use.
func NewSystemHandler(rdb *redis.Client, db Pinger, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		rdb:       rdb,
		db:        db,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

// Health godoc
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	checks := gin.H{}
	healthy := true

	if h.rdb != nil {
		if err := h.rdb.Ping(ctx).Err(); err != nil {
			h.log.Warn().Err(err).Msg("Redis health check failed")
			checks["redis"] = "down"
			healthy = false
		} else {
			checks["redis"] = "up"
			if n, err := h.rdb.LLen(ctx, config.WorkerKey.PersistAnswerSubmissionsQueue).Result(); err == nil {
				checks["queue_answers"] = n
			}
		}
	}

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			h.log.Warn().Err(err).Msg("Database health check failed")
			checks["database"] = "down"
			healthy = false
		} else {
			checks["database"] = "up"
		}
	}

	status, code := "ok", http.StatusOK
	if !healthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	response.Success(c, code, gin.H{
		"status": status,
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
		"checks": checks,
	})
}

package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-distributor/internal/config"
	"github.com/stemsi/exstem-distributor/internal/metrics"
	"github.com/stemsi/exstem-distributor/internal/middleware"
	"github.com/stemsi/exstem-distributor/internal/model"
	"github.com/stemsi/exstem-distributor/internal/service"
	ws "github.com/stemsi/exstem-distributor/internal/websocket"
)

const snapshotTimeout = 5 * time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// TrackerWSHandler streams a subject's tracker to its teacher.
type TrackerWSHandler struct {
	rdb                 *redis.Client
	subjectService      *service.SubjectService
	distributionService *service.DistributionService
	log                 zerolog.Logger
	upgrader            websocket.Upgrader
}

func NewTrackerWSHandler(
	rdb *redis.Client,
	subjectService *service.SubjectService,
	distributionService *service.DistributionService,
	log zerolog.Logger,
	allowedOrigins []string,
) *TrackerWSHandler {
	return &TrackerWSHandler{
		rdb:                 rdb,
		subjectService:      subjectService,
		distributionService: distributionService,
		log:                 log.With().Str("component", "tracker_ws_handler").Logger(),
		upgrader:            buildUpgrader(allowedOrigins),
	}
}

// Stream godoc
// WS /ws/v1/teacher/subjects/:id/tracker?token=
// Sends a snapshot on connect, then forwards every submission_received event
// published for the subject. A client "refresh" action resends the snapshot.
func (h *TrackerWSHandler) Stream(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}

	// Ownership is checked before the upgrade so failures get a JSON error.
	subject, err := h.subjectService.Owned(c.Request.Context(), middleware.CurrentEmail(c), id)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	metrics.TrackerSubscribers.Inc()
	defer metrics.TrackerSubscribers.Dec()

	wsLog := h.log.With().Int64("subject_id", subject.ID).Str("teacher", middleware.CurrentEmail(c)).Logger()
	wsLog.Info().Msg("Teacher attached to tracker stream")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	ws.KeepAlive(conn)
	actions := h.readActions(ctx, cancel, conn, wsLog)

	if err := h.sendSnapshot(ctx, conn, subject); err != nil {
		wsLog.Warn().Err(err).Msg("Initial snapshot failed")
		return
	}

	pubsub := h.rdb.Subscribe(ctx, config.CacheKey.SubjectTrackerChannel(subject.Name))
	defer pubsub.Close()
	events := pubsub.Channel()

	ping := time.NewTicker(ws.PingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			wsLog.Info().Msg("Teacher detached from tracker stream")
			return

		case msg, ok := <-events:
			if !ok {
				return
			}
			// Payloads are already encoded TrackerEvents.
			if err := ws.WriteRaw(conn, []byte(msg.Payload)); err != nil {
				wsLog.Debug().Err(err).Msg("Forward failed")
				return
			}

		case action := <-actions:
			var err error
			switch action {
			case ws.ActionRefresh:
				err = h.sendSnapshot(ctx, conn, subject)
			case ws.ActionPing:
				err = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			default:
				err = ws.WriteError(conn, "unknown action: "+string(action))
			}
			if err != nil {
				return
			}

		case <-ping.C:
			if err := ws.WritePing(conn); err != nil {
				return
			}
		}
	}
}

// readActions runs the connection's single reader. It cancels ctx once the
// peer goes away.
func (h *TrackerWSHandler) readActions(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, log zerolog.Logger) <-chan ws.Action {
	actions := make(chan ws.Action, 4)
	go func() {
		defer cancel()
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Msg("Unexpected close")
				}
				return
			}
			select {
			case actions <- msg.Action:
			case <-ctx.Done():
				return
			}
		}
	}()
	return actions
}

func (h *TrackerWSHandler) sendSnapshot(ctx context.Context, conn *websocket.Conn, subject *model.Subject) error {
	fetchCtx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()

	view, err := h.distributionService.TrackSubject(fetchCtx, subject)
	if err != nil {
		h.log.Error().Err(err).Int64("subject_id", subject.ID).Msg("Tracker snapshot failed")
		return ws.WriteError(conn, "snapshot unavailable")
	}
	return ws.WriteTyped(conn, ws.SnapshotResponse{Event: ws.EventSnapshot, Data: view})
}

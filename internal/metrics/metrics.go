// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	PapersProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "papers_processed_total",
			Help: "Exam documents ingested, by file extension",
		},
		[]string{"format"},
	)

	SubmissionsDistributed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "submissions_distributed_total",
			Help: "Submissions created by exam distribution",
		},
	)

	// AnswersPersisted counts answer sheets by how they left the queue:
	// batch, single or dropped.
	AnswersPersisted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "answer_sheets_persisted_total",
			Help: "Answer sheets drained from the persistence queue",
		},
		[]string{"mode"},
	)

	TrackerSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracker_subscribers",
			Help: "Open tracker WebSocket connections",
		},
	)
)

var registerOnce sync.Once

// Init registers every collector with the default registry. Safe to call
// more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			PapersProcessed,
			SubmissionsDistributed,
			AnswersPersisted,
			TrackerSubscribers,
		)
	})
}

func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		RequestCounter.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		RequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

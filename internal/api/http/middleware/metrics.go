package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Metrics records per-request Prometheus observations: latency, status
// code distribution, and payload sizes. Domain-specific counters (proof
// verification outcomes, cache hit rate, nullifier registrations) live in
// internal/metrics and are recorded directly by the services that produce
// them, not here.
type Metrics struct {
	logger          *zap.Logger
	requestCounter  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestSize     *prometheus.SummaryVec
	responseSize    *prometheus.SummaryVec
}

// NewMetrics builds the request metrics middleware, registering its
// collectors with the default Prometheus registry.
func NewMetrics(logger *zap.Logger) *Metrics {
	m := &Metrics{logger: logger}

	m.requestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zeroid",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of API requests.",
		},
		[]string{"method", "path", "status"},
	)

	m.requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "zeroid",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "API request duration in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "path"},
	)

	m.requestSize = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace:  "zeroid",
			Subsystem:  "api",
			Name:       "request_size_bytes",
			Help:       "API request size in bytes.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"method", "path"},
	)

	m.responseSize = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace:  "zeroid",
			Subsystem:  "api",
			Name:       "response_size_bytes",
			Help:       "API response size in bytes.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"method", "path"},
	)

	return m
}

// Middleware returns the gin handler.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method

		requestSize := c.Request.ContentLength
		if requestSize > 0 {
			m.requestSize.WithLabelValues(method, path).Observe(float64(requestSize))
		}

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		responseSize := c.Writer.Size()

		m.requestCounter.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
		if responseSize > 0 {
			m.responseSize.WithLabelValues(method, path).Observe(float64(responseSize))
		}

		m.logger.Debug("request metrics collected",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("duration", duration),
		)
	}
}

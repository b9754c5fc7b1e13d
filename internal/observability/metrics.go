package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pitchey_http_requests_total",
			Help: "Total number of HTTP requests processed by the API.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pitchey_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	authResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pitchey_auth_resolutions_total",
			Help: "Identity resolution attempts per strategy and outcome.",
		},
		[]string{"strategy", "outcome"},
	)
	sessionCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pitchey_session_cache_total",
			Help: "Session cache lookups by result.",
		},
		[]string{"result"},
	)
	readDegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pitchey_read_degraded_total",
			Help: "Read operations that returned an empty result because the database failed.",
		},
		[]string{"operation"},
	)
	wsActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pitchey_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pitchey_ws_events_total",
			Help: "Total number of websocket events.",
		},
		[]string{"event"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pitchey_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		authResolutionsTotal,
		sessionCacheTotal,
		readDegradedTotal,
		wsActiveConnections,
		wsEventsTotal,
		amqpPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// Auth resolution outcomes.
const (
	AuthHit   = "hit"
	AuthMiss  = "miss"
	AuthError = "error"
)

func IncAuthResolution(strategy, outcome string) {
	authResolutionsTotal.WithLabelValues(strategy, outcome).Inc()
}

func IncSessionCache(result string) {
	sessionCacheTotal.WithLabelValues(result).Inc()
}

func IncReadDegraded(operation string) {
	readDegradedTotal.WithLabelValues(operation).Inc()
}

func IncWSActive() {
	wsActiveConnections.Inc()
}

func DecWSActive() {
	wsActiveConnections.Dec()
}

func IncWSEvent(event string) {
	wsEventsTotal.WithLabelValues(event).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}

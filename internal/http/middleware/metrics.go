package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// status is left out to bound histogram cardinality
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	httpRespSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "Size of HTTP responses in bytes.",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		},
		[]string{"method", "path"},
	)

	wsUpgrades = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_websocket_sessions_total",
			Help: "WebSocket upgrade requests by final status.",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpRespSize, wsUpgrades)
}

// unmatchedPath labels requests that hit no route; raw paths of 404s would
// make the label set unbounded.
const unmatchedPath = "unmatched"

// Metrics instruments requests with Prometheus, labelled by the registered
// route.
//
// Upgraded WebSocket requests stay in flight for the life of the socket, so
// they are counted in http_websocket_sessions_total and kept out of the
// latency and size histograms.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		upgrade := isWebSocketUpgrade(c)
		if !upgrade {
			httpInflight.Inc()
			defer httpInflight.Dec()
		}

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = unmatchedPath
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())
		httpReqs.WithLabelValues(method, path, status).Inc()

		if upgrade {
			wsUpgrades.WithLabelValues(status).Inc()
			return
		}
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		if size := c.Writer.Size(); size >= 0 {
			httpRespSize.WithLabelValues(method, path).Observe(float64(size))
		}
	}
}

func isWebSocketUpgrade(c *gin.Context) bool {
	return headerContainsToken(c.GetHeader("Connection"), "upgrade") &&
		headerContainsToken(c.GetHeader("Upgrade"), "websocket")
}

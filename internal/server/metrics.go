package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/MeKo-Tech/notepeel/internal/document"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notepeel_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notepeel_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Analysis metrics
	analysisRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notepeel_analysis_requests_total",
			Help: "Total number of analysis requests",
		},
		[]string{"transport", "status"}, // transport: http, websocket
	)

	analysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notepeel_analysis_duration_seconds",
			Help:    "Time spent decoding and analysing one document",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"transport"},
	)

	analysisLines = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "notepeel_analysis_lines",
			Help:    "Number of normalized lines per analysed document",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	classifiedLinesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notepeel_classified_lines_total",
			Help: "Total number of classified lines by kind",
		},
		[]string{"kind"},
	)

	// Rate limiting metrics
	rateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notepeel_rate_limit_hits_total",
			Help: "Total number of rate limit hits",
		},
		[]string{"type"}, // type: minute, hour, requests, data
	)

	// File upload metrics
	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "notepeel_upload_size_bytes",
			Help:    "Size of uploaded files in bytes",
			Buckets: []float64{1024, 10 * 1024, 100 * 1024, 1024 * 1024, 10 * 1024 * 1024, 50 * 1024 * 1024},
		},
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notepeel_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notepeel_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // direction: sent, received
	)
)

// observeDocument records per-document analysis metrics.
func observeDocument(doc *document.StructuredDocument) {
	analysisLines.Observe(float64(doc.Metadata.TotalLines))
	for kind, n := range doc.CountByKind() {
		classifiedLinesTotal.WithLabelValues(kind.String()).Add(float64(n))
	}
}

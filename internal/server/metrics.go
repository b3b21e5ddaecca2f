package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quadwarp_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quadwarp_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Warp metrics
	warpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quadwarp_warp_requests_total",
			Help: "Total number of warp requests",
		},
		[]string{"type", "status"}, // type: http, session
	)

	blitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quadwarp_blit_duration_seconds",
			Help:    "Time spent warping one destination",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"type"},
	)

	blitPixelsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quadwarp_blit_pixels_total",
			Help: "Destination pixels processed by the blit engine",
		},
		[]string{"result"}, // result: written, skipped
	)

	// Rate limiting metrics
	rateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quadwarp_rate_limit_hits_total",
			Help: "Total number of rate limit hits",
		},
		[]string{"type"}, // type: minute, hour
	)

	// File upload metrics
	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quadwarp_upload_size_bytes",
			Help:    "Size of uploaded images in bytes",
			Buckets: []float64{1024, 10 * 1024, 100 * 1024, 1024 * 1024, 10 * 1024 * 1024, 50 * 1024 * 1024, 100 * 1024 * 1024},
		},
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quadwarp_websocket_active_connections",
			Help: "Number of active drag sessions",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quadwarp_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // direction: sent, received
	)
)

func observeBlit(kind string, seconds float64, written, skipped int) {
	blitDuration.WithLabelValues(kind).Observe(seconds)
	blitPixelsTotal.WithLabelValues("written").Add(float64(written))
	blitPixelsTotal.WithLabelValues("skipped").Add(float64(skipped))
}

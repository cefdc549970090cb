package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline
	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pricing_pipeline_duration_seconds",
			Help:    "Duration of the startup pipeline (clean, features, train, compare)",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_pipeline_runs_total",
			Help: "Pipeline runs by outcome",
		},
		[]string{"status"}, // "success", "error"
	)

	CleanListings = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pricing_clean_listings",
			Help: "Number of listings in the serving dataset",
		},
	)

	ModelR2 = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pricing_model_r2",
			Help: "Held-out R² per model",
		},
		[]string{"model"},
	)

	ModelReady = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pricing_model_ready",
			Help: "1 once the serving context is published",
		},
	)

	// Serving
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_predictions_total",
			Help: "Predictions served by comparison label",
		},
		[]string{"comparison"},
	)

	// HTTP
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pricing_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)
)

// RecordPipeline records one pipeline run.
func RecordPipeline(duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	PipelineRuns.WithLabelValues(status).Inc()
	PipelineDuration.Observe(duration.Seconds())
}

// RecordHTTPRequest records one handled request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	HTTPRequestDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
	HTTPRequestsTotal.WithLabelValues(method, route, code).Inc()
}

// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendintel_http_requests_total",
			Help: "Total number of HTTP requests by route, method and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trendintel_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// AI analysis, labelled by mode: claude, openai, ollama, mock or fallback.
	AnalysisTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendintel_ai_analysis_total",
			Help: "Trend analyses performed, by mode",
		},
		[]string{"mode"},
	)

	GenerationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendintel_ai_generation_failures_total",
			Help: "AI generation calls that fell back to mock data",
		},
		[]string{"task"},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trendintel_ai_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Scraping
	ScrapedPosts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendintel_scraped_posts_total",
			Help: "New social posts stored by the scraper",
		},
		[]string{"platform"},
	)

	ScrapeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendintel_scrape_errors_total",
			Help: "Failed platform scrapes",
		},
		[]string{"platform"},
	)

	// Jobs
	JobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendintel_job_runs_total",
			Help: "Scheduled and manual job runs by job and outcome",
		},
		[]string{"job", "outcome"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trendintel_job_duration_seconds",
			Help:    "Duration of background jobs",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300, 900},
		},
		[]string{"job"},
	)

	TrendsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendintel_trends_submitted_total",
			Help: "Trend items created, by origin",
		},
		[]string{"origin"},
	)
)

// RecordHTTP records one finished request.
func RecordHTTP(method, route string, status int, d time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordJob records a job run and its duration.
func RecordJob(job string, err error, d time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	JobRuns.WithLabelValues(job, outcome).Inc()
	JobDuration.WithLabelValues(job).Observe(d.Seconds())
}

// Package metrics exposes Prometheus instrumentation for the server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracelight_http_requests_total",
		Help: "Total number of HTTP requests processed",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tracelight_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	EventsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracelight_events_ingested_total",
		Help: "Total number of webhook events ingested",
	}, []string{"outcome"})

	ReportJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracelight_report_jobs_total",
		Help: "Total number of report jobs by terminal status",
	}, []string{"status"})
)

// Handler returns the /metrics scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	MatchingAnalyses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_analyses_total",
			Help: "Analyses run, by detected intent",
		},
		[]string{"intent"},
	)

	MatchingRankedPartners = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_ranked_partners",
			Help:    "Number of partners above the threshold per analysis",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 20, 50},
		},
	)

	TaxIDLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taxid_lookups_total",
			Help: "Tax ID verifications, by result source",
		},
		[]string{"source"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests served, by route and status",
		},
		[]string{"route", "status"},
	)
)

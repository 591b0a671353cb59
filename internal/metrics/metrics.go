// Package metrics defines the Prometheus metrics exported by pitchprep.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Generation outcomes.
const (
	OutcomeSuccess           = "success"
	OutcomeProfileIncomplete = "profile_incomplete"
	OutcomeGenerationFailed  = "generation_failed"
	OutcomePersistenceFailed = "persistence_failed"
	OutcomeError             = "error"
)

// Research lookup results.
const (
	ResearchHit      = "hit"
	ResearchMiss     = "miss"
	ResearchDegraded = "degraded"
)

var (
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pitchprep_generations_total",
			Help: "Total number of pitch generation requests by outcome",
		},
		[]string{"outcome"},
	)

	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pitchprep_generation_duration_seconds",
			Help:    "End to end duration of pitch generation requests in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
	)

	MatchScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pitchprep_match_score",
			Help:    "Distribution of computed match scores",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		},
	)

	ResearchLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pitchprep_research_lookups_total",
			Help: "Employer context lookups by result",
		},
		[]string{"result"},
	)

	RecordsCleared = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pitchprep_records_cleared_total",
			Help: "Total number of pitch records removed by match data resets",
		},
	)

	ContextRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pitchprep_context_refreshes_total",
			Help: "Scheduled employer context refreshes by result",
		},
		[]string{"result"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pitchprep_http_requests_total",
			Help: "HTTP requests by route pattern and status code",
		},
		[]string{"route", "code"},
	)

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pitchprep_rate_limited_total",
			Help: "Requests rejected by the rate limiter by path",
		},
		[]string{"path"},
	)
)

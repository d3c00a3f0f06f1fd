// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Source fetch metrics
var (
	// FetchesTotal tracks adapter fetches by platform and outcome (success, error, unsupported, throttled)
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creatorpulse_fetches_total",
			Help: "Total source fetches by platform and outcome",
		},
		[]string{"platform", "outcome"},
	)

	// FetchDuration tracks adapter latency in seconds
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "creatorpulse_fetch_duration_seconds",
			Help:    "Source fetch duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"platform"},
	)
)

// Analysis metrics
var (
	// ScorerBreakerStateChanges tracks remote scorer circuit breaker transitions
	ScorerBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creatorpulse_scorer_breaker_state_changes_total",
			Help: "Remote scorer circuit breaker transitions by new state",
		},
		[]string{"state"},
	)

	// CommentsClassified tracks classified comments by sentiment bucket
	CommentsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creatorpulse_comments_classified_total",
			Help: "Total classified comments by sentiment bucket",
		},
		[]string{"bucket"},
	)

	// CreatorAnalyses tracks finished creator analyses by recommendation category
	CreatorAnalyses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creatorpulse_creator_analyses_total",
			Help: "Total creator analyses by recommendation category",
		},
		[]string{"category"},
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creatorpulse_http_requests_total",
			Help: "Total HTTP requests by route pattern, method and status",
		},
		[]string{"route", "method", "status"},
	)
)

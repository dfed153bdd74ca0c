// Package metrics exposes Prometheus instrumentation for the playlist engine.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
)

// Generation outcomes.
const (
	OutcomeSuccess        = "success"
	OutcomeNoCandidates   = "no_candidates"
	OutcomeNoQualifying   = "no_qualifying_tracks"
	OutcomeError          = "error"
	OutcomeAnalysisFailed = "analysis_fallback"
)

var (
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookbeats_generations_total",
			Help: "Playlist generations by outcome",
		},
		[]string{"outcome"},
	)

	CandidatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookbeats_candidates_total",
			Help: "Candidate tracks returned per search strategy",
		},
		[]string{"strategy"},
	)

	SubQueryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookbeats_subquery_failures_total",
			Help: "Failed catalog sub-queries per search strategy",
		},
		[]string{"strategy"},
	)

	RejectedTracks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookbeats_rejected_tracks_total",
			Help: "Tracks dropped by the filter or scorer, by reason",
		},
		[]string{"reason"},
	)

	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookbeats_catalog_requests_total",
			Help: "Outbound catalog API requests by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)

	// 0=closed, 1=half-open, 2=open
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bookbeats_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	PreviewJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookbeats_preview_jobs_total",
			Help: "Preview loudness jobs by result",
		},
		[]string{"result"},
	)
)

// RecordCatalogRequest counts one catalog call. status 0 means a transport error.
func RecordCatalogRequest(endpoint string, status int) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	CatalogRequests.WithLabelValues(endpoint, label).Inc()
}

// RecordRejections adds filter/scorer rejection counts keyed by reason.
func RecordRejections(byReason map[string]int) {
	for reason, n := range byReason {
		if n > 0 {
			RejectedTracks.WithLabelValues(reason).Add(float64(n))
		}
	}
}

// RecordBreakerState publishes a gobreaker state transition.
func RecordBreakerState(name string, state gobreaker.State) {
	var v float64
	switch state {
	case gobreaker.StateHalfOpen:
		v = 1
	case gobreaker.StateOpen:
		v = 2
	}
	CircuitBreakerState.WithLabelValues(name).Set(v)
}

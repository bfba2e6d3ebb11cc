// Package metrics holds the Prometheus collectors for the identification pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Request outcomes for IdentifyRequestsTotal.
const (
	OutcomeRejected      = "rejected"
	OutcomeNotIdentified = "not_identified"
	OutcomeIdentified    = "identified"
	OutcomeError         = "error"
)

var (
	// IdentifyRequestsTotal counts POST /api/identify requests by outcome.
	IdentifyRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scene_identify_requests_total",
			Help: "Total number of identify requests by outcome.",
		},
		[]string{"outcome"},
	)

	// VisionCallsTotal counts vision model calls per provider and status.
	VisionCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scene_vision_calls_total",
			Help: "Total number of vision model calls.",
		},
		[]string{"provider", "status"},
	)

	VisionCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scene_vision_call_duration_seconds",
			Help:    "Latency of vision model calls.",
			Buckets: []float64{0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"provider"},
	)

	// SearchCallsTotal counts search calls; status is success, error or skipped.
	SearchCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scene_search_calls_total",
			Help: "Total number of streaming link searches.",
		},
		[]string{"status"},
	)

	StreamingLinksReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scene_streaming_links_returned",
			Help:    "Number of deduplicated streaming links per search.",
			Buckets: []float64{0, 1, 2, 3, 5, 8},
		},
	)
)

func init() {
	prometheus.MustRegister(
		IdentifyRequestsTotal,
		VisionCallsTotal,
		VisionCallDuration,
		SearchCallsTotal,
		StreamingLinksReturned,
	)
}

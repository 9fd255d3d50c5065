package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scanRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "topicscanner",
			Name:      "scan_runs_total",
			Help:      "Scan requests by outcome (completed or coalesced)",
		},
		[]string{"result"},
	)

	sourceItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "topicscanner",
			Name:      "source_items_total",
			Help:      "Candidates emitted and newly inserted per source",
		},
		[]string{"source", "kind"},
	)

	sourceErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "topicscanner",
			Name:      "source_errors_total",
			Help:      "Source runs that ended with an error",
		},
		[]string{"source"},
	)

	sourceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "topicscanner",
			Name:      "source_duration_seconds",
			Help:      "Duration of one source adapter run in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8), // 0.25s to ~32s
		},
		[]string{"source"},
	)

	scanInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "topicscanner",
			Name:      "scan_in_flight",
			Help:      "1 while a scan is running",
		},
	)

	draftsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "topicscanner",
			Name:      "drafts_total",
			Help:      "Draft generation attempts by status",
		},
		[]string{"status"},
	)
)

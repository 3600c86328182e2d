package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess            = "success"
	outcomeNoInput            = "no_input"
	outcomeInvalidFormat      = "invalid_format"
	outcomeExclusionFailure   = "error_exclusion_source"
	outcomeLookupFailure      = "error_lookup"
	collaboratorExclusionName = "exclusion_source"
)

var (
	compatibilityChecksCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "client_tools",
			Name:      "compatibility_checks_total",
			Help:      "Total compatibility checks by outcome.",
		},
		[]string{"outcome"},
	)

	partsExcludedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "client_tools",
			Name:      "parts_excluded_total",
			Help:      "Unique valid part numbers dropped by the exclusion list.",
		},
	)

	exclusionLoadDurationHist = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "client_tools",
			Name:      "exclusion_load_duration_seconds",
			Help:      "Duration of loading the exclusion list.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	lookupDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "client_tools",
			Name:      "lookup_duration_seconds",
			Help:      "Duration of compatible-parts lookups per part.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"lookup"},
	)
)

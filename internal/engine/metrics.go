package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	indicatorsComputed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "osmquality_indicators_computed_total",
		Help: "Indicators computed from scratch, by indicator and layer.",
	}, []string{"indicator", "layer"})

	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "osmquality_indicator_cache_hits_total",
		Help: "Stored-region indicator requests served from the result store.",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "osmquality_indicator_cache_misses_total",
		Help: "Stored-region indicator requests that required computation.",
	})

	precomputeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "osmquality_precompute_failures_total",
		Help: "Bulk precomputation tasks that ended in an error.",
	})
)

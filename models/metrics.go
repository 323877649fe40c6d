package models

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "session_count",
		Help: "The number of sessions.",
	})

	sessionCountTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "session_count_total",
		Help: "The total number of sessions.",
	})

	sessionEntityCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "session_entity_count",
		Help: "The number of entities indexed across all sessions.",
	})

	regionQueryCandidates = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "region_query_candidates",
		Help:    "The number of broad-phase candidates returned by a region query.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	regionQueryResults = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "region_query_results",
		Help:    "The number of entities returned by a region query.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
)

func instrumentIncreaseSessionGauge() {
	sessionCount.Inc()
}

func instrumentDecreaseSessionGauge() {
	sessionCount.Dec()
}

func instrumentCountSession() {
	sessionCountTotal.Inc()
}

func instrumentAddEntity() {
	sessionEntityCount.Inc()
}

func instrumentRemoveEntities(n int) {
	sessionEntityCount.Sub(float64(n))
}

func instrumentRegionQuery(candidates, results int) {
	regionQueryCandidates.Observe(float64(candidates))
	regionQueryResults.Observe(float64(results))
}

package pool

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	poolLabel = "pool"
)

var (
	poolAvailable = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pool_available",
		Help: "The number of instances held in a pool free list.",
	}, []string{poolLabel})

	poolInUse = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pool_in_use",
		Help: "The number of instances spawned from a pool and not despawned yet.",
	}, []string{poolLabel})

	poolCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pool_created_total",
		Help: "The total number of instances created by a pool factory.",
	}, []string{poolLabel})

	poolSpawnTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pool_spawn_total",
		Help: "The total number of instances spawned from a pool.",
	}, []string{poolLabel})
)

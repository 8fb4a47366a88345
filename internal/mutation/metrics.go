package mutation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mutationsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "instafeed_mutations_processed_total",
		Help: "The total number of mutations sent to the store",
	}, []string{"operation", "status"})

	mutationsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "instafeed_mutations_rejected_total",
		Help: "The total number of mutations rejected before reaching the store",
	}, []string{"operation", "reason"})

	mutationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "instafeed_mutation_latency_seconds",
		Help:    "Histogram of store mutation latency in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"operation"})
)

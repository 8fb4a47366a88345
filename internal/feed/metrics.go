package feed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	snapshotsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "instafeed_feed_snapshots_received_total",
		Help: "The total number of snapshots pushed by the store",
	})

	subscriptionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "instafeed_feed_subscription_failures_total",
		Help: "The total number of failed feed subscriptions",
	})

	activeSubscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "instafeed_feed_active_subscriptions",
		Help: "The number of open feed subscriptions",
	})

	defaultsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "instafeed_feed_defaults_applied_total",
		Help: "The total number of missing fields replaced with defaults during normalization",
	}, []string{"field"})
)

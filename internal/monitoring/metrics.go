// Package monitoring exposes the engine's Prometheus metrics. All metrics
// are package-level and registered through promauto at init.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scanOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketgate_scan_outcomes_total",
			Help: "Scan outcomes by kind",
		},
		[]string{"outcome", "mode"},
	)

	offlineQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ticketgate_offline_queue_depth",
			Help: "Check-ins recorded offline and not yet reconciled",
		},
	)

	reconcileConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticketgate_reconcile_conflicts_total",
			Help: "Queued check-ins that lost to another device during reconcile",
		},
	)

	commitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ticketgate_commit_duration_seconds",
			Help:    "Duration of conditional commits against the check-in store",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		},
	)
)

func RecordScanOutcome(outcome string, offline bool) {
	mode := "online"
	if offline {
		mode = "offline"
	}
	scanOutcomes.WithLabelValues(outcome, mode).Inc()
}

func SetOfflineQueueDepth(n int) {
	offlineQueueDepth.Set(float64(n))
}

func RecordReconcileConflict() {
	reconcileConflicts.Inc()
}

func ObserveCommitDuration(seconds float64) {
	commitDuration.Observe(seconds)
}

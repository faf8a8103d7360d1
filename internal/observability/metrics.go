// Package observability exposes prometheus counters for migration runs.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Run outcomes.
const (
	RunClean   = "clean"
	RunPartial = "partial"
	RunAborted = "aborted"
)

var (
	recordsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "liftlog",
		Subsystem: "migration",
		Name:      "records_total",
		Help:      "Local records sent to the remote store, by kind and outcome.",
	}, []string{"kind", "outcome"})
	runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "liftlog",
		Subsystem: "migration",
		Name:      "runs_total",
		Help:      "Migration attempts, by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(recordsTotal, runsTotal)
}

// RecordTransfer counts one record of the given kind.
func RecordTransfer(kind string, ok bool) {
	outcome := "migrated"
	if !ok {
		outcome = "failed"
	}
	recordsTotal.WithLabelValues(kind, outcome).Inc()
}

func RecordRun(outcome string) {
	runsTotal.WithLabelValues(outcome).Inc()
}

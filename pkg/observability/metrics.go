// Package observability wires application metrics into prometheus.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Persistence outcome label values
const (
	PersistOutcomeSuccess = "success"
	PersistOutcomeFailure = "failure"
	PersistOutcomeTimeout = "timeout"
)

// Metrics holds the application's prometheus collectors
type Metrics struct {
	CommitsTotal     *prometheus.CounterVec
	PersistenceTotal *prometheus.CounterVec
	CoalescedEdits   prometheus.Counter
	GraphsDeleted    prometheus.Counter
}

// NewMetrics creates and registers the application metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CommitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plangraph",
			Name:      "commits_total",
			Help:      "Committed graph versions by source.",
		}, []string{"source"}),
		PersistenceTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plangraph",
			Name:      "persistence_total",
			Help:      "Background persistence attempts by outcome.",
		}, []string{"outcome"}),
		CoalescedEdits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plangraph",
			Name:      "coalesced_edits_total",
			Help:      "Edits absorbed into an already-pending commit.",
		}),
		GraphsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plangraph",
			Name:      "graphs_deleted_total",
			Help:      "Deleted graph version chains.",
		}),
	}
	reg.MustRegister(m.CommitsTotal, m.PersistenceTotal, m.CoalescedEdits, m.GraphsDeleted)
	return m
}

// Package metrics exposes prometheus instruments for the reconciliation core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Metrics counts inventory ledger activity and reconciliation outcomes.
type Metrics struct {
	LedgerDeltas            *prometheus.CounterVec
	NegativeBalances        prometheus.Counter
	ReconciliationFailures  *prometheus.CounterVec
	JobStatusAutoTransition *prometheus.CounterVec
}

// New registers the instruments with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LedgerDeltas: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "printforge_ledger_deltas_total",
			Help: "Filament mass deltas applied, by direction.",
		}, []string{"direction"}),
		NegativeBalances: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "printforge_negative_balances_total",
			Help: "Ledger writes that left a filament balance negative.",
		}),
		ReconciliationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "printforge_reconciliation_failures_total",
			Help: "Piece reconciliation failures, by failed ledger leg.",
		}, []string{"leg"}),
		JobStatusAutoTransition: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "printforge_job_auto_transitions_total",
			Help: "Automatic job status transitions, by target status.",
		}, []string{"to"}),
	}

	reg.MustRegister(
		m.LedgerDeltas,
		m.NegativeBalances,
		m.ReconciliationFailures,
		m.JobStatusAutoTransition,
	)
	return m
}

func newRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

func newFromRegistry(reg *prometheus.Registry) *Metrics {
	return New(reg)
}

var Module = fx.Module("metrics",
	fx.Provide(
		newRegistry,
		newFromRegistry,
	),
)

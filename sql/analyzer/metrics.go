package analyzer

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "dips"

// Outcomes of the search of a join graph.
const (
	graphPruned   = "pruned"
	graphNotTree  = "not_tree"
	graphSkipped  = "skipped"
	graphDisabled = "disabled"
)

// Phases of the pruning of a join graph.
const (
	phaseBottomUp = "bottom_up"
	phaseTopDown  = "top_down"
)

// Results of pruning a plan.
const (
	planChanged   = "changed"
	planUnchanged = "unchanged"
)

// Metrics holds the counters updated by the pruning rule.
type Metrics struct {
	// JoinGraphs counts the join regions found in plans, by outcome.
	JoinGraphs *prometheus.CounterVec
	// PrunedChunks counts the chunks pruned, by phase.
	PrunedChunks *prometheus.CounterVec
	// Plans counts the plans pruned, by whether any new chunk was pruned.
	Plans *prometheus.CounterVec
}

// NewMetrics returns unregistered metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		JoinGraphs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "join_graphs_total",
			Help:      "Number of join regions found in plans, by outcome.",
		}, []string{"outcome"}),
		PrunedChunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pruned_chunks_total",
			Help:      "Number of table chunks pruned, by propagation phase.",
		}, []string{"phase"}),
		Plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "plans_total",
			Help:      "Number of plans pruned, by whether they changed.",
		}, []string{"result"}),
	}
}

// Register registers all the metrics with the given registerer.
func (m *Metrics) Register(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.JoinGraphs, m.PrunedChunks, m.Plans} {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) joinGraph(outcome string) {
	if m != nil {
		m.JoinGraphs.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) prunedChunks(phase string, n uint64) {
	if m != nil && n > 0 {
		m.PrunedChunks.WithLabelValues(phase).Add(float64(n))
	}
}

func (m *Metrics) plan(changed bool) {
	if m == nil {
		return
	}

	result := planUnchanged
	if changed {
		result = planChanged
	}
	m.Plans.WithLabelValues(result).Inc()
}

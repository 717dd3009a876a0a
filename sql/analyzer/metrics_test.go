package analyzer

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	require := require.New(t)

	m := NewMetrics()
	registry := prometheus.NewRegistry()
	require.NoError(m.Register(registry))
	require.Error(m.Register(registry))

	m.joinGraph(graphPruned)
	m.joinGraph(graphPruned)
	m.joinGraph(graphNotTree)
	m.prunedChunks(phaseBottomUp, 3)
	m.prunedChunks(phaseTopDown, 0)
	m.plan(true)
	m.plan(false)
	m.plan(false)

	require.Equal(2.0, testutil.ToFloat64(m.JoinGraphs.WithLabelValues(graphPruned)))
	require.Equal(1.0, testutil.ToFloat64(m.JoinGraphs.WithLabelValues(graphNotTree)))
	require.Equal(3.0, testutil.ToFloat64(m.PrunedChunks.WithLabelValues(phaseBottomUp)))
	require.Equal(1.0, testutil.ToFloat64(m.Plans.WithLabelValues(planChanged)))
	require.Equal(2.0, testutil.ToFloat64(m.Plans.WithLabelValues(planUnchanged)))

	count, err := testutil.GatherAndCount(registry, "dips_join_graphs_total", "dips_pruned_chunks_total", "dips_plans_total")
	require.NoError(err)
	require.Equal(5, count)

	var nilMetrics *Metrics
	require.NotPanics(func() {
		nilMetrics.joinGraph(graphSkipped)
		nilMetrics.prunedChunks(phaseTopDown, 1)
		nilMetrics.plan(true)
	})
}

package analyzer

import (
	"context"
	"fmt"
	"testing"

	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/stretchr/testify/require"

	"gopkg.in/src-d/go-dips.v0/memory"
	"gopkg.in/src-d/go-dips.v0/sql"
	"gopkg.in/src-d/go-dips.v0/sql/plan"
)

func finishedSpan(t *testing.T, tracer *mocktracer.MockTracer, name string) *mocktracer.MockSpan {
	t.Helper()

	for _, s := range tracer.FinishedSpans() {
		if s.OperationName == name {
			return s
		}
	}

	require.FailNow(t, "span not finished", name)
	return nil
}

func TestBatchEvalPruning(t *testing.T) {
	require := require.New(t)

	tracer := mocktracer.New()
	ctx := sql.NewContext(context.TODO(), sql.WithTracer(tracer))

	a := plan.NewResolvedTable(intTable(t, "a", 2, []string{"x"}, values(1, 2, 3, 4, 10, 11)...))
	b := plan.NewResolvedTable(intTable(t, "b", 2, []string{"x"}, values(3, 5, 20, 30)...))
	node := plan.NewInnerJoin(a, b, eq(gf(0, "a", "x"), gf(1, "b", "x")))
	require.Equal(uint64(0), prunedChunkCount(node))

	batch := &Batch{
		Desc:       "pruning",
		Iterations: 10,
		Rules:      []Rule{{"dips_pruning", dipsPruning}},
	}

	result, err := batch.Eval(ctx, newTestAnalyzer(t, DefaultConfig()), node)
	require.NoError(err)
	require.Equal(node, result)
	require.Equal(uint64(3), prunedChunkCount(result))

	span := finishedSpan(t, tracer, "batch")
	require.Equal("pruning", span.Tag("batch"))
	require.Equal(1, span.Tag("passes"))
	require.Equal(uint64(3), span.Tag("pruned_chunks"))

	pruning := finishedSpan(t, tracer, "dips_pruning")
	require.Equal(true, pruning.Tag("changed"))
	require.Equal(span.SpanContext.SpanID, pruning.ParentID)
}

func TestBatchEvalMaxIterations(t *testing.T) {
	require := require.New(t)

	tracer := mocktracer.New()
	ctx := sql.NewContext(context.TODO(), sql.WithTracer(tracer))

	i := 0
	batch := &Batch{
		Desc:       "renames",
		Iterations: 3,
		Rules: []Rule{{"rename", func(*sql.Context, *Analyzer, sql.Node) (sql.Node, error) {
			i++
			return plan.NewResolvedTable(memory.NewTable(fmt.Sprintf("table%d", i), nil)), nil
		}}},
	}

	result, err := batch.Eval(ctx, newTestAnalyzer(t, DefaultConfig()), plan.NewResolvedTable(memory.NewTable("t", nil)))
	require.True(ErrMaxAnalysisIters.Is(err))
	require.Equal("table3", result.(*plan.ResolvedTable).Name())
	require.Equal(3, finishedSpan(t, tracer, "batch").Tag("passes"))
}

func TestBatchEvalEmpty(t *testing.T) {
	require := require.New(t)

	tracer := mocktracer.New()
	ctx := sql.NewContext(context.TODO(), sql.WithTracer(tracer))
	node := plan.NewResolvedTable(memory.NewTable("t", nil))

	result, err := (&Batch{Desc: "empty", Iterations: 5}).Eval(ctx, nil, node)
	require.NoError(err)
	require.Equal(node, result)
	require.Empty(tracer.FinishedSpans())
}

func TestNewlyPruned(t *testing.T) {
	require := require.New(t)
	require.Equal(uint64(2), newlyPruned(1, 3))
	require.Equal(uint64(0), newlyPruned(3, 3))
	require.Equal(uint64(0), newlyPruned(3, 1))
}

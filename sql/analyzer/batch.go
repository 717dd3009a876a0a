package analyzer

import (
	"reflect"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"

	"gopkg.in/src-d/go-dips.v0/sql"
	"gopkg.in/src-d/go-dips.v0/sql/plan"
)

// RuleFunc is the function to be applied in a rule.
type RuleFunc func(*sql.Context, *Analyzer, sql.Node) (sql.Node, error)

// Rule to transform nodes.
type Rule struct {
	// Name of the rule.
	Name string
	// Apply transforms a node.
	Apply RuleFunc
}

// Batch executes a set of rules until the plan stops changing, at most a
// specific number of times. Pruned chunks are not part of the plan nodes, so
// pruning alone never makes a batch run again. When the limit is reached,
// the actual node and ErrMaxAnalysisIters are returned.
type Batch struct {
	Desc       string
	Iterations int
	Rules      []Rule
}

// Eval executes the rules of the batch on n. The batch is traced as a span
// tagged with the passes made and the chunks pruned in the plan.
func (b *Batch) Eval(ctx *sql.Context, a *Analyzer, n sql.Node) (sql.Node, error) {
	if b.Iterations == 0 || len(b.Rules) == 0 {
		return n, nil
	}

	span, ctx := ctx.Span("batch", opentracing.Tags{"batch": b.Desc})
	defer span.Finish()

	before := prunedChunkCount(n)
	cur, passes, err := b.eval(ctx, a, n)
	if cur != nil {
		after := prunedChunkCount(cur)
		span.SetTag("pruned_chunks", after)
		a.LogFields(logrus.Fields{
			"batch":    b.Desc,
			"query_id": ctx.QueryID().String(),
			"passes":   passes,
		}, "batch done, %d chunks pruned in the plan, %d new", after, newlyPruned(before, after))
	}
	span.SetTag("passes", passes)

	return cur, err
}

func (b *Batch) eval(ctx *sql.Context, a *Analyzer, n sql.Node) (sql.Node, int, error) {
	prev := n
	cur, err := b.evalOnce(ctx, a, n)
	if err != nil {
		return nil, 1, err
	}

	if b.Iterations == 1 {
		return cur, 1, nil
	}

	i := 1
	for !nodesEqual(prev, cur) {
		a.Log("nodes not equal, analyzing again")
		prev = cur
		cur, err = b.evalOnce(ctx, a, cur)
		i++
		if err != nil {
			return nil, i, err
		}

		if i >= b.Iterations {
			return cur, i, ErrMaxAnalysisIters.New(b.Iterations)
		}
	}

	return cur, i, nil
}

func (b *Batch) evalOnce(ctx *sql.Context, a *Analyzer, n sql.Node) (sql.Node, error) {
	result := n
	for _, rule := range b.Rules {
		a.Log("evaluating rule %s", rule.Name)

		before := prunedChunkCount(result)
		var err error
		result, err = rule.Apply(ctx, a, result)
		if err != nil {
			return nil, err
		}

		if pruned := newlyPruned(before, prunedChunkCount(result)); pruned > 0 {
			a.LogFields(logrus.Fields{
				"batch": b.Desc,
				"rule":  rule.Name,
			}, "rule pruned %d chunks", pruned)
		}
	}

	return result, nil
}

// prunedChunkCount returns the number of chunks pruned in all the tables of
// the plan.
func prunedChunkCount(n sql.Node) uint64 {
	var count uint64
	for _, t := range plan.ResolvedTables(n) {
		count += t.PrunedChunks().GetCardinality()
	}
	return count
}

// newlyPruned is zero when a rule replaced the pruned chunks with fewer ones.
func newlyPruned(before, after uint64) uint64 {
	if after < before {
		return 0
	}
	return after - before
}

func nodesEqual(a, b sql.Node) bool {
	if e, ok := a.(equaler); ok {
		return e.Equal(b)
	}

	if e, ok := b.(equaler); ok {
		return e.Equal(a)
	}

	return reflect.DeepEqual(a, b)
}

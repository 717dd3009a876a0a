package analyzer

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/sirupsen/logrus"
	errors "gopkg.in/src-d/go-errors.v1"

	"gopkg.in/src-d/go-dips.v0/sql"
	"gopkg.in/src-d/go-dips.v0/sql/pruning"
)

// ErrDipsPruning is returned when the chunk statistics of a table can't be
// read while pruning its chunks.
var ErrDipsPruning = errors.NewKind("unable to prune chunks of table %s")

// dipsPruning finds the trees of inner joins in the plan and marks as pruned
// the chunks of their tables that can't produce any row of the join,
// according to the value ranges of the join columns in every chunk. The plan
// is returned as is; only the pruned chunks of its tables change.
func dipsPruning(ctx *sql.Context, a *Analyzer, n sql.Node) (sql.Node, error) {
	if _, err := a.PruneChunks(ctx, n); err != nil {
		return nil, err
	}

	return n, nil
}

// PruneChunks prunes the chunks of the tables in the join graphs of n and
// reports whether any chunk was pruned that wasn't before. Unresolved plans
// and disabled pruning leave n unchanged.
func (a *Analyzer) PruneChunks(ctx *sql.Context, n sql.Node) (bool, error) {
	if !n.Resolved() {
		return false, nil
	}

	if !a.Config.Enabled {
		a.Log("dips pruning is disabled, skipping")
		a.Metrics.joinGraph(graphDisabled)
		return false, nil
	}

	span, ctx := ctx.Span("dips_pruning")
	defer span.Finish()

	selector := a.RootSelector
	if selector == nil {
		selector = RootSelectorFor(a.Config.RootStrategy)
	}

	p := &chunkPruner{
		ctx:          ctx,
		a:            a,
		selector:     selector,
		anyPredicate: a.Config.PruneOnAnyPredicate,
	}

	if err := p.visit(n); err != nil {
		return false, err
	}

	span.SetTag("tables", p.tables)
	span.SetTag("changed", p.changed)
	a.Log("dips pruning done, %d tables in join graphs, changed: %t", p.tables, p.changed)
	a.Metrics.plan(p.changed)

	return p.changed, nil
}

type chunkPruner struct {
	ctx          *sql.Context
	a            *Analyzer
	selector     RootSelector
	anyPredicate bool

	tables  int
	changed bool
}

// visit prunes the join graph rooted at n, if any. Otherwise, it looks for
// join graphs in the children of n.
func (p *chunkPruner) visit(n sql.Node) error {
	if isJoin(n) {
		g, ok := buildJoinGraph(n)
		switch {
		case !ok:
			p.a.Log("join is not made only of tables, looking for join graphs below it")
			p.a.Metrics.joinGraph(graphSkipped)
		case !g.IsTree():
			p.a.Log("join graph of %d tables is not a tree, looking for join graphs below it", g.Len())
			p.a.Metrics.joinGraph(graphNotTree)
		default:
			return p.prune(g)
		}
	}

	for _, child := range n.Children() {
		if err := p.visit(child); err != nil {
			return err
		}
	}

	return nil
}

func (p *chunkPruner) prune(g *JoinGraph) error {
	root, err := p.selector.SelectRoot(p.ctx, g)
	if err != nil {
		return ErrDipsPruning.Wrap(err, g.Node(0).Table.Name())
	}

	if root == nil {
		root = g.Node(0)
	}

	g.SetRoot(root)
	p.tables += g.Len()
	p.a.LogFields(logrus.Fields{
		"query_id": p.ctx.QueryID().String(),
		"root":     root.Table.Name(),
		"tables":   g.Len(),
	}, "pruning join graph\n%s", g)

	if err := p.bottomUp(g, root); err != nil {
		return err
	}

	if err := p.topDown(g, root); err != nil {
		return err
	}

	p.a.Metrics.joinGraph(graphPruned)
	return nil
}

// bottomUp prunes every subtree of n first, and then prunes each child of n
// using n and n using the child.
func (p *chunkPruner) bottomUp(g *JoinGraph, n *JoinGraphNode) error {
	for _, id := range n.Children {
		child := g.Node(id)
		if err := p.bottomUp(g, child); err != nil {
			return err
		}

		if err := p.pruneUsing(child, n, phaseBottomUp); err != nil {
			return err
		}

		if err := p.pruneUsing(n, child, phaseBottomUp); err != nil {
			return err
		}
	}

	return nil
}

// topDown prunes each child of n using n, and then its subtree.
func (p *chunkPruner) topDown(g *JoinGraph, n *JoinGraphNode) error {
	for _, id := range n.Children {
		child := g.Node(id)
		if err := p.pruneUsing(child, n, phaseTopDown); err != nil {
			return err
		}

		if err := p.topDown(g, child); err != nil {
			return err
		}
	}

	return nil
}

// pruneUsing adds to the pruned chunks of target the ones that can't join
// with the surviving chunks of source.
func (p *chunkPruner) pruneUsing(target, source *JoinGraphNode, phase string) error {
	edge, ok := target.Edge(source.ID)
	if !ok {
		return nil
	}

	var prunable *roaring.Bitmap
	for _, pred := range edge.Predicates {
		targetCol, err := target.Table.ChunkColumn(p.ctx, pred.Column)
		if err != nil {
			return ErrDipsPruning.Wrap(err, target.Table.Name())
		}

		sourceCol, err := source.Table.ChunkColumn(p.ctx, pred.NeighborColumn)
		if err != nil {
			return ErrDipsPruning.Wrap(err, source.Table.Name())
		}

		found := pruning.Prunable(targetCol, sourceCol)
		switch {
		case prunable == nil:
			prunable = found
		case p.anyPredicate:
			prunable.Or(found)
		default:
			prunable.And(found)
		}
	}

	if prunable == nil || prunable.IsEmpty() {
		return nil
	}

	pruned := pruning.BitmapOf(target.Table.PrunedChunkIDs()...)
	added := roaring.AndNot(prunable, pruned)
	if added.IsEmpty() {
		return nil
	}

	pruned.Or(added)
	target.Table.SetPrunedChunkIDs(pruning.ChunkIDs(pruned))
	p.changed = true
	p.a.Metrics.prunedChunks(phase, added.GetCardinality())

	p.a.LogFields(logrus.Fields{
		"query_id": p.ctx.QueryID().String(),
		"table":    target.Table.Name(),
		"using":    source.Table.Name(),
		"phase":    phase,
		"pruned":   pruning.ChunkIDs(added),
	}, "pruned %d chunks", added.GetCardinality())

	return nil
}

package analyzer

import (
	"gopkg.in/src-d/go-dips.v0/sql"
	"gopkg.in/src-d/go-dips.v0/sql/expression"
	"gopkg.in/src-d/go-dips.v0/sql/plan"
)

// aliasedTable is a resolved table known by its alias inside a join.
type aliasedTable struct {
	*plan.ResolvedTable
	alias string
}

func (t *aliasedTable) Name() string { return t.alias }

// joinRegion holds the tables and the conditions of a tree of joins.
type joinRegion struct {
	tables   map[string]PrunableTable
	order    []PrunableTable
	resolved map[*plan.ResolvedTable]struct{}
	conds    []sql.Expression
}

// buildJoinGraph builds the join graph of the tree of joins rooted at n. It
// fails if n is not a join, if any leaf of the tree is not a table, if two
// tables have the same name or if the same table node appears twice.
func buildJoinGraph(n sql.Node) (*JoinGraph, bool) {
	if !isJoin(n) {
		return nil, false
	}

	r := &joinRegion{
		tables:   make(map[string]PrunableTable),
		resolved: make(map[*plan.ResolvedTable]struct{}),
	}

	if !r.collect(n) || len(r.order) < 2 {
		return nil, false
	}

	g := NewJoinGraph()
	for _, t := range r.order {
		g.NodeForTable(t)
	}

	for _, cond := range r.conds {
		r.addPredicate(g, cond)
	}

	return g, true
}

func isJoin(n sql.Node) bool {
	switch n.(type) {
	case *plan.InnerJoin, *plan.CrossJoin:
		return true
	default:
		return false
	}
}

func (r *joinRegion) collect(n sql.Node) bool {
	switch n := n.(type) {
	case *plan.InnerJoin:
		r.conds = append(r.conds, expression.SplitConjunction(n.Cond)...)
		return r.collect(n.Left) && r.collect(n.Right)
	case *plan.CrossJoin:
		return r.collect(n.Left) && r.collect(n.Right)
	case *plan.TableAlias:
		t, ok := n.Child.(*plan.ResolvedTable)
		if !ok {
			return false
		}
		return r.add(t, &aliasedTable{t, n.Name()})
	case *plan.ResolvedTable:
		return r.add(n, n)
	default:
		return false
	}
}

func (r *joinRegion) add(rt *plan.ResolvedTable, t PrunableTable) bool {
	if _, ok := r.tables[t.Name()]; ok {
		return false
	}

	if _, ok := r.resolved[rt]; ok {
		return false
	}

	r.tables[t.Name()] = t
	r.resolved[rt] = struct{}{}
	r.order = append(r.order, t)
	return true
}

// addPredicate adds cond to the graph if it's an equality between columns of
// two different tables of the region.
func (r *joinRegion) addPredicate(g *JoinGraph, cond sql.Expression) {
	eq, ok := cond.(*expression.Equals)
	if !ok {
		return
	}

	left, ok := r.column(eq.Left())
	if !ok {
		return
	}

	right, ok := r.column(eq.Right())
	if !ok {
		return
	}

	if left.table == right.table {
		return
	}

	g.AddPredicate(
		g.NodeForTable(left.table),
		g.NodeForTable(right.table),
		left.name,
		right.name,
	)
}

type regionColumn struct {
	table PrunableTable
	name  string
}

func (r *joinRegion) column(e sql.Expression) (regionColumn, bool) {
	gf, ok := e.(*expression.GetField)
	if !ok {
		return regionColumn{}, false
	}

	t, ok := r.tables[gf.Table()]
	if !ok || t.Schema().IndexOfColumn(gf.Name()) < 0 {
		return regionColumn{}, false
	}

	return regionColumn{t, gf.Name()}, true
}

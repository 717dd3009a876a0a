package analyzer

import (
	"gopkg.in/src-d/go-dips.v0/sql"
	"gopkg.in/src-d/go-dips.v0/sql/expression"
	"gopkg.in/src-d/go-dips.v0/sql/plan"
)

// replaceCrossJoins replaces the cross joins right below a filter with inner
// joins, moving to them the conjuncts of the filter that compare a column of
// each side of the join. The filter is removed if all its conjuncts are
// moved.
func replaceCrossJoins(ctx *sql.Context, a *Analyzer, n sql.Node) (sql.Node, error) {
	if !n.Resolved() {
		return n, nil
	}

	span, _ := ctx.Span("replace_cross_joins")
	defer span.Finish()

	return plan.TransformUp(n, func(n sql.Node) (sql.Node, error) {
		f, ok := n.(*plan.Filter)
		if !ok {
			return n, nil
		}

		conjuncts := expression.SplitConjunction(f.Expression)
		moved := make(map[int]struct{}, len(conjuncts))
		child, err := pushJoinConditions(f.Child, 0, conjuncts, moved)
		if err != nil {
			return nil, err
		}

		if len(moved) == 0 {
			return n, nil
		}

		a.Log("moved %d of %d filter conditions to joins", len(moved), len(conjuncts))
		if len(moved) == len(conjuncts) {
			return child, nil
		}

		remaining := make([]sql.Expression, 0, len(conjuncts)-len(moved))
		for i, c := range conjuncts {
			if _, ok := moved[i]; !ok {
				remaining = append(remaining, c)
			}
		}

		return plan.NewFilter(expression.JoinAnd(remaining...), child), nil
	})
}

// pushJoinConditions moves conditions into the joins of the tree rooted at n.
// The row of n starts at the given offset of the row the conditions are
// evaluated against. Only trees made of joins are visited.
func pushJoinConditions(
	n sql.Node,
	offset int,
	conjuncts []sql.Expression,
	moved map[int]struct{},
) (sql.Node, error) {
	var left, right sql.Node
	switch j := n.(type) {
	case *plan.CrossJoin:
		left, right = j.Left, j.Right
	case *plan.InnerJoin:
		left, right = j.Left, j.Right
	default:
		return n, nil
	}

	leftSize := len(left.Schema())
	newLeft, err := pushJoinConditions(left, offset, conjuncts, moved)
	if err != nil {
		return nil, err
	}

	newRight, err := pushJoinConditions(right, offset+leftSize, conjuncts, moved)
	if err != nil {
		return nil, err
	}

	if _, ok := n.(*plan.CrossJoin); ok {
		size := leftSize + len(right.Schema())
		var conds []sql.Expression
		for i, c := range conjuncts {
			if _, ok := moved[i]; ok || !coversJoin(c, offset, leftSize, size) {
				continue
			}

			cond, err := shiftFields(c, -offset)
			if err != nil {
				return nil, err
			}

			moved[i] = struct{}{}
			conds = append(conds, cond)
		}

		if len(conds) > 0 {
			return plan.NewInnerJoin(newLeft, newRight, expression.JoinAnd(conds...)), nil
		}
	}

	if newLeft == left && newRight == right {
		return n, nil
	}

	return n.WithChildren(newLeft, newRight)
}

// coversJoin returns whether the expression compares a column of the left
// side of a join with a column of the right side. The join row starts at
// offset; its first leftSize columns are the ones of the left side.
func coversJoin(e sql.Expression, offset, leftSize, size int) bool {
	c, ok := e.(expression.Comparer)
	if !ok {
		return false
	}

	l, ok := c.Left().(*expression.GetField)
	if !ok {
		return false
	}

	r, ok := c.Right().(*expression.GetField)
	if !ok {
		return false
	}

	side := func(idx int) int {
		idx -= offset
		switch {
		case idx < 0 || idx >= size:
			return -1
		case idx < leftSize:
			return 0
		default:
			return 1
		}
	}

	ls, rs := side(l.Index()), side(r.Index())
	return ls >= 0 && rs >= 0 && ls != rs
}

func shiftFields(e sql.Expression, delta int) (sql.Expression, error) {
	return expression.TransformUp(e, func(e sql.Expression) (sql.Expression, error) {
		if gf, ok := e.(*expression.GetField); ok {
			return gf.WithIndex(gf.Index() + delta), nil
		}
		return e, nil
	})
}

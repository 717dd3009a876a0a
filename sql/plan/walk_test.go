package plan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"gopkg.in/src-d/go-dips.v0/sql"
	"gopkg.in/src-d/go-dips.v0/sql/expression"
)

func TestInspect(t *testing.T) {
	require := require.New(t)

	a := NewResolvedTable(newChunkedTable(t, "a", 2))
	b := NewResolvedTable(newChunkedTable(t, "b", 2))
	c := NewResolvedTable(newChunkedTable(t, "c", 2))
	join := NewInnerJoin(
		NewCrossJoin(a, NewTableAlias("bb", b)),
		c,
		expression.NewEquals(idField("a", 0), idField("c", 4)),
	)
	plan := NewFilter(expression.NewLiteral(true, sql.Boolean), join)

	var nodes []sql.Node
	Inspect(plan, func(n sql.Node) bool {
		if n != nil {
			nodes = append(nodes, n)
		}
		_, isCross := n.(*CrossJoin)
		return !isCross
	})
	require.Equal([]sql.Node{plan, join, join.Left, c}, nodes)

	require.Equal([]*ResolvedTable{a, b, c}, ResolvedTables(plan))

	var exprs []string
	InspectExpressions(plan, func(e sql.Expression) bool {
		exprs = append(exprs, e.String())
		return true
	})
	require.Equal([]string{"true", "a.id = c.id", "a.id", "c.id"}, exprs)
}

func TestTransformUp(t *testing.T) {
	require := require.New(t)

	a := NewResolvedTable(newChunkedTable(t, "a", 2))
	b := NewResolvedTable(newChunkedTable(t, "b", 2))
	plan := NewDistinct(NewCrossJoin(a, b))

	result, err := TransformUp(plan, func(n sql.Node) (sql.Node, error) {
		if j, ok := n.(*CrossJoin); ok {
			return NewInnerJoin(j.Left, j.Right, expression.NewLiteral(true, sql.Boolean)), nil
		}
		return n, nil
	})
	require.NoError(err)

	d, ok := result.(*Distinct)
	require.True(ok)
	require.IsType(&InnerJoin{}, d.Child)
	require.NotSame(plan, d)

	same, err := TransformUp(plan, func(n sql.Node) (sql.Node, error) { return n, nil })
	require.NoError(err)
	require.Same(plan, same)
}

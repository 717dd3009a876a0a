package plan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"gopkg.in/src-d/go-dips.v0/sql"
	"gopkg.in/src-d/go-dips.v0/sql/expression"
)

func TestFilter(t *testing.T) {
	require := require.New(t)

	table := NewResolvedTable(newChunkedTable(t, "t", 2, 1, 5, 3, 7))
	f := NewFilter(
		expression.NewGreaterThan(idField("t", 0), expression.NewLiteral(int64(2), sql.Int64)),
		table,
	)

	require.True(f.Resolved())
	require.Equal([]int64{5, 3, 7}, collectIDs(t, f, 0))
	require.Equal("Filter(t.id > 2)\n└── Table(t)", f.String())

	n, err := f.WithExpressions(expression.NewLessThan(idField("t", 0), expression.NewLiteral(int64(4), sql.Int64)))
	require.NoError(err)
	require.Equal([]int64{1, 3}, collectIDs(t, n, 0))
}

func TestFilterNull(t *testing.T) {
	require := require.New(t)

	table := NewResolvedTable(newChunkedTable(t, "t", 2, 1, 5))
	f := NewFilter(
		expression.NewEquals(idField("t", 0), expression.NewLiteral(nil, sql.Int64)),
		table,
	)

	require.Empty(collectIDs(t, f, 0))
}

func TestProject(t *testing.T) {
	require := require.New(t)

	table := NewResolvedTable(newChunkedTable(t, "t", 2, 1, 2))
	p := NewProject([]sql.Expression{
		expression.NewGetFieldWithTable(1, sql.Text, "t", "name", true),
		idField("t", 0),
	}, table)

	require.Equal(sql.Schema{
		{Name: "name", Type: sql.Text, Nullable: true, Source: "t"},
		{Name: "id", Type: sql.Int64, Source: "t"},
	}, p.Schema())

	rows, err := sql.NodeToRows(sql.NewEmptyContext(), p)
	require.NoError(err)
	require.Equal([]sql.Row{{"t", int64(1)}, {"t", int64(2)}}, rows)
	require.Equal("Project(t.name, t.id)\n└── Table(t)", p.String())
}

func TestTableAlias(t *testing.T) {
	require := require.New(t)

	table := NewResolvedTable(newChunkedTable(t, "t", 2, 1, 2))
	alias := NewTableAlias("a", table)

	require.Equal("a", alias.Name())
	require.Equal("a", alias.Schema()[0].Source)
	require.Equal("t", table.Schema()[0].Source)
	require.Equal([]int64{1, 2}, collectIDs(t, alias, 0))
	require.Equal("TableAlias(a)\n└── Table(t)", alias.String())
}

func TestDistinct(t *testing.T) {
	require := require.New(t)

	table := NewResolvedTable(newChunkedTable(t, "t", 2, 1, 2, 1, 3, 2))
	d := NewDistinct(table)

	require.Equal([]int64{1, 2, 3}, collectIDs(t, d, 0))
	require.Equal("Distinct\n└── Table(t)", d.String())
}

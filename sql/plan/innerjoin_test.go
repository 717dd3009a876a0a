package plan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"gopkg.in/src-d/go-dips.v0/sql"
	"gopkg.in/src-d/go-dips.v0/sql/expression"
)

func TestInnerJoin(t *testing.T) {
	require := require.New(t)

	left := NewResolvedTable(newChunkedTable(t, "l", 2, 1, 2, 3, 4))
	right := NewResolvedTable(newChunkedTable(t, "r", 2, 3, 4, 5, 4))

	j := NewInnerJoin(left, right, expression.NewEquals(idField("l", 0), idField("r", 2)))
	require.True(j.Resolved())
	require.Len(j.Schema(), 4)
	require.Equal("r", j.Schema()[2].Source)

	rows, err := sql.NodeToRows(sql.NewEmptyContext(), j)
	require.NoError(err)
	require.Equal([]sql.Row{
		{int64(3), "l", int64(3), "r"},
		{int64(4), "l", int64(4), "r"},
		{int64(4), "l", int64(4), "r"},
	}, rows)
}

func TestInnerJoinWithPrunedTable(t *testing.T) {
	require := require.New(t)

	left := NewResolvedTable(newChunkedTable(t, "l", 2, 1, 2, 3, 4))
	right := NewResolvedTable(newChunkedTable(t, "r", 2, 3, 4, 5, 4))
	left.SetPrunedChunkIDs([]sql.ChunkID{0})
	right.SetPrunedChunkIDs([]sql.ChunkID{1})

	j := NewInnerJoin(left, right, expression.NewEquals(idField("l", 0), idField("r", 2)))
	require.Equal([]int64{3, 4}, collectIDs(t, j, 0))
}

func TestInnerJoinString(t *testing.T) {
	require := require.New(t)

	left := NewResolvedTable(newChunkedTable(t, "l", 2))
	right := NewResolvedTable(newChunkedTable(t, "r", 2))
	j := NewInnerJoin(left, right, expression.NewEquals(idField("l", 0), idField("r", 2)))

	require.Equal("InnerJoin(l.id = r.id)\n├── Table(l)\n└── Table(r)", j.String())

	n, err := j.WithChildren(right, left)
	require.NoError(err)
	require.Equal(right, n.(*InnerJoin).Left)

	_, err = j.WithChildren(left)
	require.True(sql.ErrInvalidChildrenNumber.Is(err))
}

func TestCrossJoin(t *testing.T) {
	require := require.New(t)

	left := NewResolvedTable(newChunkedTable(t, "l", 2, 1, 2))
	right := NewResolvedTable(newChunkedTable(t, "r", 2, 3, 4, 5))

	j := NewCrossJoin(left, right)
	require.True(j.Resolved())
	require.Len(j.Schema(), 4)

	rows, err := sql.NodeToRows(sql.NewEmptyContext(), j)
	require.NoError(err)
	require.Len(rows, 6)
	require.Equal(sql.Row{int64(1), "l", int64(3), "r"}, rows[0])
	require.Equal(sql.Row{int64(2), "l", int64(5), "r"}, rows[5])

	require.Equal("CrossJoin\n├── Table(l)\n└── Table(r)", j.String())
}

package pruning

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"gopkg.in/src-d/go-dips.v0/memory"
	"gopkg.in/src-d/go-dips.v0/sql"
	"gopkg.in/src-d/go-dips.v0/sql/expression"
)

func TestPrunableDispatch(t *testing.T) {
	intCol := NewColumn("a", "x", sql.Int64)
	intCol.AddChunk(0, sql.ValueRange{Low: int64(1), High: int64(5)})
	intCol.AddChunk(1, sql.ValueRange{Low: int64(8), High: int64(10)})

	int32Col := NewColumn("b", "y", sql.Int32)
	int32Col.AddChunk(0, sql.ValueRange{Low: int32(9), High: int32(12)})

	floatCol := NewColumn("c", "z", sql.Float64)
	floatCol.AddChunk(0, sql.ValueRange{Low: 5.5, High: 7.5})

	textCol := NewColumn("d", "w", sql.Text)
	textCol.AddChunk(0, sql.ValueRange{Low: "1", High: "5"})

	boolCol := NewColumn("e", "v", sql.Boolean)
	boolCol.AddChunk(0, sql.ValueRange{Low: false, High: false})

	testCases := []struct {
		name          string
		base, partner *Column
		expected      []sql.ChunkID
	}{
		{"int with int32", intCol, int32Col, []sql.ChunkID{0}},
		{"int32 with int", int32Col, intCol, []sql.ChunkID{}},
		{"int with float", intCol, floatCol, []sql.ChunkID{}},
		{"float with int", floatCol, intCol, []sql.ChunkID{}},
		{"int with text", intCol, textCol, []sql.ChunkID{}},
		{"text with int", textCol, intCol, []sql.ChunkID{}},
		{"bool with bool", boolCol, boolCol, []sql.ChunkID{}},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, ChunkIDs(Prunable(tt.base, tt.partner)))
		})
	}
}

func TestPrunableUnknownStatistics(t *testing.T) {
	require := require.New(t)

	base := NewColumn("a", "x", sql.Text)
	base.AddChunk(0, sql.ValueRange{Low: "a", High: "c"})
	base.AddChunk(1, sql.ValueRange{Low: "x", High: "z"})
	base.AddChunk(2, sql.ValueRange{Low: nil, High: "z"})
	base.AddChunk(3, sql.ValueRange{Low: "z", High: "a"})

	partner := NewColumn("b", "y", sql.Text)
	partner.AddChunk(0, sql.ValueRange{Low: "m", High: "n"})

	require.Equal([]sql.ChunkID{0, 1}, ChunkIDs(Prunable(base, partner)))

	partner.AddUnknownChunk(1)
	require.Empty(ChunkIDs(Prunable(base, partner)))
	require.Equal(2, partner.Len())
	require.Equal([]sql.ChunkID{0, 1}, partner.ChunkIDs())
}

// plainTable is a table that doesn't report chunk statistics.
type plainTable struct {
	*memory.Table
}

// ChunkCount shadows the one of the embedded table.
func (plainTable) ChunkCount() {}

func TestReadColumn(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()

	table := memory.NewChunkedTable("t", sql.Schema{
		{Name: "id", Type: sql.Int64, Source: "t"},
	}, 2)
	for _, id := range []int64{1, 2, 3, 4, 5} {
		require.NoError(table.Insert(ctx, sql.NewRow(id)))
	}

	c, err := ReadColumn(ctx, table, "id", BitmapOf(1))
	require.NoError(err)
	require.Equal("t", c.Table)
	require.Equal("id", c.Name)
	require.Equal(sql.Int64, c.Type)
	require.Equal([]sql.ChunkID{0, 2}, c.ChunkIDs())

	partner := NewColumn("u", "id", sql.Int64)
	partner.AddChunk(0, sql.ValueRange{Low: int64(4), High: int64(9)})
	require.Equal([]sql.ChunkID{0}, ChunkIDs(Prunable(c, partner)))

	_, err = ReadColumn(ctx, table, "foo", nil)
	require.True(sql.ErrColumnNotFound.Is(err))
}

func TestReadColumnWithoutStatistics(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()

	table := memory.NewChunkedTable("t", sql.Schema{
		{Name: "id", Type: sql.Int64, Source: "t"},
	}, 2)
	for _, id := range []int64{1, 2, 3} {
		require.NoError(table.Insert(ctx, sql.NewRow(id)))
	}

	plain := plainTable{table}
	_, ok := interface{}(plain).(sql.ChunkedTable)
	require.False(ok)

	c, err := ReadColumn(ctx, plain, "id", nil)
	require.NoError(err)
	require.Equal([]sql.ChunkID{0, 1}, c.ChunkIDs())

	partner := NewColumn("u", "id", sql.Int64)
	partner.AddChunk(0, sql.ValueRange{Low: int64(100), High: int64(200)})
	require.Empty(ChunkIDs(Prunable(c, partner)))
}

func TestPrunableMatchesEquality(t *testing.T) {
	ctx := sql.NewEmptyContext()

	column := func(name string, typ sql.Type, vs ...interface{}) *Column {
		table := memory.NewChunkedTable(name, sql.Schema{{Name: "x", Type: typ, Source: name}}, len(vs))
		for _, v := range vs {
			require.NoError(t, table.Insert(ctx, sql.NewRow(v)))
		}

		c, err := ReadColumn(ctx, table, "x", nil)
		require.NoError(t, err)
		return c
	}

	testCases := []struct {
		name  string
		left  *Column
		right *Column
		l, r  interface{}
	}{
		{
			"int with float",
			column("a", sql.Int64, int64(3)),
			column("b", sql.Float64, 3.5),
			int64(3), 3.5,
		},
		{
			"float with NaN",
			column("a", sql.Float64, float64(0)),
			column("b", sql.Float64, float64(1), math.NaN(), float64(5), float64(0)),
			float64(0), float64(0),
		},
		{
			"NaN with NaN",
			column("a", sql.Float64, math.NaN()),
			column("b", sql.Float64, float64(7), math.NaN()),
			math.NaN(), math.NaN(),
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			equals := expression.NewEquals(
				expression.NewGetField(0, tt.left.Type, "x", false),
				expression.NewGetField(1, tt.right.Type, "x", false),
			)
			matches, err := equals.Eval(ctx, sql.NewRow(tt.l, tt.r))
			require.NoError(err)
			require.Equal(true, matches)

			require.Empty(ChunkIDs(Prunable(tt.left, tt.right)))
			require.Empty(ChunkIDs(Prunable(tt.right, tt.left)))
		})
	}
}

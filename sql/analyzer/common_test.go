package analyzer

import (
	"fmt"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errors "gopkg.in/src-d/go-errors.v1"

	"gopkg.in/src-d/go-dips.v0/memory"
	"gopkg.in/src-d/go-dips.v0/sql"
	"gopkg.in/src-d/go-dips.v0/sql/expression"
	"gopkg.in/src-d/go-dips.v0/sql/plan"
)

func gt(left, right sql.Expression) sql.Expression {
	return expression.NewGreaterThan(left, right)
}

func and(left, right sql.Expression) sql.Expression {
	return expression.NewAnd(left, right)
}

func eq(left, right sql.Expression) sql.Expression {
	return expression.NewEquals(left, right)
}

func lit(n int64) sql.Expression {
	return expression.NewLiteral(n, sql.Int64)
}

func gf(idx int, table, name string) *expression.GetField {
	return expression.NewGetFieldWithTable(idx, sql.Int64, table, name, false)
}

// intTable returns a table of integer columns, with chunkSize rows per chunk.
func intTable(t *testing.T, name string, chunkSize int, columns []string, rows ...[]int64) *memory.Table {
	t.Helper()

	schema := make(sql.Schema, len(columns))
	for i, c := range columns {
		schema[i] = &sql.Column{Name: c, Type: sql.Int64, Source: name}
	}

	table := memory.NewChunkedTable(name, schema, chunkSize)
	for _, r := range rows {
		row := make(sql.Row, len(r))
		for i, v := range r {
			row[i] = v
		}
		require.NoError(t, table.Insert(sql.NewEmptyContext(), row))
	}

	return table
}

// values returns single column rows with the given values.
func values(vs ...int64) [][]int64 {
	rows := make([][]int64, len(vs))
	for i, v := range vs {
		rows[i] = []int64{v}
	}
	return rows
}

func newTestAnalyzer(t *testing.T, c Config) *Analyzer {
	t.Helper()

	a, err := NewBuilder().WithConfig(c).Build()
	require.NoError(t, err)
	return a
}

// requireChunks checks the pruned chunks of a table. No expected chunks
// means none must be pruned.
func requireChunks(t *testing.T, expected []sql.ChunkID, table *plan.ResolvedTable) {
	t.Helper()

	if len(expected) == 0 {
		require.Empty(t, table.PrunedChunkIDs(), table.Name())
		return
	}
	require.Equal(t, expected, table.PrunedChunkIDs(), table.Name())
}

func rows(t *testing.T, n sql.Node) []sql.Row {
	t.Helper()

	rows, err := sql.NodeToRows(sql.NewEmptyContext(), n)
	require.NoError(t, err)
	return rows
}

func getRule(name string) Rule {
	for _, rules := range [][]Rule{OnceBeforeDefault, OnceAfterDefault} {
		for _, rule := range rules {
			if rule.Name == name {
				return rule
			}
		}
	}

	panic("missing rule")
}

// Common test struct for analyzer transformation tests. Name and node are required, other fields are optional.
// The expected node is optional: if omitted, the tests asserts that input == output. The optional err field is the
// kind of error expected, if any.
type analyzerFnTestCase struct {
	name     string
	node     sql.Node
	expected sql.Node
	err      *errors.Kind
}

func runTestCases(t *testing.T, testCases []analyzerFnTestCase, f Rule) {
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAnalyzer(t, DefaultConfig())
			result, err := f.Apply(sql.NewEmptyContext(), a, tt.node)
			if tt.err != nil {
				require.Error(t, err)
				require.True(t, tt.err.Is(err))
				return
			}
			require.NoError(t, err)

			expected := tt.expected
			if expected == nil {
				expected = tt.node
			}

			assertNodesEqualWithDiff(t, expected, result)
		})
	}
}

// assertNodesEqualWithDiff asserts the two nodes given to be equal and prints any diff according to their String
// methods.
func assertNodesEqualWithDiff(t *testing.T, expected, actual sql.Node) {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected.String()),
		B:        difflib.SplitLines(actual.String()),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  1,
	})
	require.NoError(t, err)

	if len(diff) > 0 {
		fmt.Println(diff)
	}

	assert.Equal(t, expected, actual)
}

// columnTable returns a table with a single column x of the given type, with
// chunkSize rows per chunk.
func columnTable(t *testing.T, name string, typ sql.Type, chunkSize int, vs ...interface{}) *memory.Table {
	t.Helper()

	table := memory.NewChunkedTable(name, sql.Schema{{Name: "x", Type: typ, Source: name}}, chunkSize)
	for _, v := range vs {
		require.NoError(t, table.Insert(sql.NewEmptyContext(), sql.NewRow(v)))
	}

	return table
}

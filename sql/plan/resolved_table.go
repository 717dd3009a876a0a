package plan

import (
	"fmt"
	"io"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	opentracing "github.com/opentracing/opentracing-go"

	"gopkg.in/src-d/go-dips.v0/sql"
	"gopkg.in/src-d/go-dips.v0/sql/pruning"
)

// ResolvedTable represents a resolved SQL Table. It carries the set of chunks
// of the table that can be skipped when the table is scanned.
type ResolvedTable struct {
	sql.Table

	mu     sync.RWMutex
	pruned *roaring.Bitmap
}

var _ sql.Node = (*ResolvedTable)(nil)

// NewResolvedTable creates a new instance of ResolvedTable.
func NewResolvedTable(table sql.Table) *ResolvedTable {
	return &ResolvedTable{Table: table, pruned: roaring.New()}
}

// Resolved implements the Resolvable interface.
func (*ResolvedTable) Resolved() bool {
	return true
}

// Children implements the Node interface.
func (*ResolvedTable) Children() []sql.Node { return nil }

// RowIter implements the RowIter interface. Rows of pruned chunks are not
// returned.
func (t *ResolvedTable) RowIter(ctx *sql.Context) (sql.RowIter, error) {
	pruned := t.PrunedChunks()
	span, ctx := ctx.Span("plan.ResolvedTable", opentracing.Tags{
		"table":  t.Name(),
		"pruned": pruned.GetCardinality(),
	})

	partitions, err := t.Table.Partitions(ctx)
	if err != nil {
		span.Finish()
		return nil, err
	}

	skip := func(chunk sql.ChunkID) bool {
		return pruned.Contains(uint32(chunk))
	}

	return sql.NewSpanIter(span, sql.NewChunkedTableIter(ctx, t.Table, partitions, skip)), nil
}

// WithChildren implements the Node interface.
func (t *ResolvedTable) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvalidChildrenNumber.New(t, len(children), 0)
	}

	return t, nil
}

func (t *ResolvedTable) String() string {
	return printTree(t)
}

func (t *ResolvedTable) describe() string {
	ids := t.PrunedChunkIDs()
	if len(ids) == 0 {
		return fmt.Sprintf("Table(%s)", t.Name())
	}
	return fmt.Sprintf("Table(%s, pruned: %v)", t.Name(), ids)
}

// PrunedChunks returns a copy of the set of pruned chunks.
func (t *ResolvedTable) PrunedChunks() *roaring.Bitmap {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pruned.Clone()
}

// PrunedChunkIDs returns the ids of the pruned chunks in ascending order.
func (t *ResolvedTable) PrunedChunkIDs() []sql.ChunkID {
	return pruning.ChunkIDs(t.PrunedChunks())
}

// SetPrunedChunkIDs replaces the set of pruned chunks.
func (t *ResolvedTable) SetPrunedChunkIDs(ids []sql.ChunkID) {
	pruned := pruning.BitmapOf(ids...)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.pruned = pruned
}

// ChunkColumn returns the value ranges of the column for every chunk of the
// table that is not pruned.
func (t *ResolvedTable) ChunkColumn(ctx *sql.Context, column string) (*pruning.Column, error) {
	return pruning.ReadColumn(ctx, t.Table, column, t.PrunedChunks())
}

// ChunkCount returns the number of chunks of the table, pruned or not.
func (t *ResolvedTable) ChunkCount(ctx *sql.Context) (int, error) {
	if chunked, ok := t.Table.(sql.ChunkedTable); ok {
		return chunked.ChunkCount(ctx)
	}

	partitions, err := t.Table.Partitions(ctx)
	if err != nil {
		return 0, err
	}

	var count int
	for {
		_, err := partitions.Next()
		if err == io.EOF {
			return count, partitions.Close()
		}

		if err != nil {
			_ = partitions.Close()
			return 0, err
		}
		count++
	}
}

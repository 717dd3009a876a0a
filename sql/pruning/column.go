package pruning

import (
	"cmp"
	"io"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/spf13/cast"

	"gopkg.in/src-d/go-dips.v0/sql"
)

// Column holds the untyped value ranges of a table column for every chunk of
// the table that is not pruned.
type Column struct {
	Table   string
	Name    string
	Type    sql.Type
	ranges  map[sql.ChunkID][]sql.ValueRange
	unknown map[sql.ChunkID]struct{}
}

// NewColumn returns a column without chunks.
func NewColumn(table, name string, typ sql.Type) *Column {
	return &Column{
		Table:   table,
		Name:    name,
		Type:    typ,
		ranges:  make(map[sql.ChunkID][]sql.ValueRange),
		unknown: make(map[sql.ChunkID]struct{}),
	}
}

// AddChunk sets the ranges of the given chunk.
func (c *Column) AddChunk(id sql.ChunkID, ranges ...sql.ValueRange) {
	delete(c.unknown, id)
	c.ranges[id] = ranges
}

// AddUnknownChunk adds a chunk whose statistics are unknown. It's considered
// to contain any value.
func (c *Column) AddUnknownChunk(id sql.ChunkID) {
	delete(c.ranges, id)
	c.unknown[id] = struct{}{}
}

// Len returns the number of chunks of the column.
func (c *Column) Len() int {
	return len(c.ranges) + len(c.unknown)
}

// ChunkIDs returns the ids of the chunks of the column in ascending order.
func (c *Column) ChunkIDs() []sql.ChunkID {
	ids := make([]sql.ChunkID, 0, c.Len())
	for id := range c.ranges {
		ids = append(ids, id)
	}
	for id := range c.unknown {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Prunable returns the chunks of base that can't join with any chunk of
// partner on base = partner. The column types are resolved once: integer
// columns compare as int64, float columns as float64 and text columns as
// strings. Columns of different kinds never prune anything: equality between
// them converts one side to the type of the other, and ranges of the
// original values don't bound the converted ones.
func Prunable(base, partner *Column) *roaring.Bitmap {
	kind, ok := comparableKind(base.Type.Kind(), partner.Type.Kind())
	if !ok {
		return roaring.New()
	}

	switch kind {
	case sql.IntegerKind:
		return PrunableChunks(typedRanges(base, cast.ToInt64E), typedRanges(partner, cast.ToInt64E))
	case sql.FloatKind:
		return PrunableChunks(typedRanges(base, cast.ToFloat64E), typedRanges(partner, cast.ToFloat64E))
	default:
		return PrunableChunks(typedRanges(base, cast.ToStringE), typedRanges(partner, cast.ToStringE))
	}
}

func comparableKind(a, b sql.Kind) (sql.Kind, bool) {
	switch {
	case a == b && (a.IsNumeric() || a == sql.TextKind):
		return a, true
	default:
		return sql.UnknownKind, false
	}
}

// typedRanges converts the ranges of the column to T. Bounds that can't be
// converted, are NULL, NaN or are out of order make the range cover
// everything.
func typedRanges[T cmp.Ordered](c *Column, convert func(interface{}) (T, error)) ChunkRanges[T] {
	result := make(ChunkRanges[T], c.Len())
	for id := range c.unknown {
		result[id] = []Range[T]{FullRange[T]()}
	}

	for id, ranges := range c.ranges {
		typed := make([]Range[T], len(ranges))
		for i, r := range ranges {
			typed[i] = typedRange(r, convert)
		}
		result[id] = typed
	}

	return result
}

func typedRange[T cmp.Ordered](r sql.ValueRange, convert func(interface{}) (T, error)) Range[T] {
	if r.Low == nil || r.High == nil {
		return FullRange[T]()
	}

	low, err := convert(r.Low)
	if err != nil {
		return FullRange[T]()
	}

	high, err := convert(r.High)
	if err != nil || isNaN(low) || isNaN(high) || high < low {
		return FullRange[T]()
	}

	return NewRange(low, high)
}

// isNaN reports whether v is a floating point NaN, the only value that isn't
// equal to itself.
func isNaN[T cmp.Ordered](v T) bool {
	return v != v
}

// ReadColumn reads the ranges of the column for every chunk of the table
// that is not in skip. Tables that don't report chunk statistics are read
// as a single chunk of unknown values.
func ReadColumn(ctx *sql.Context, t sql.Table, column string, skip *roaring.Bitmap) (*Column, error) {
	idx := t.Schema().IndexOfColumn(column)
	if idx < 0 {
		return nil, sql.ErrColumnNotFound.New(column, t.Name())
	}

	c := NewColumn(t.Name(), t.Schema()[idx].Name, t.Schema()[idx].Type)
	chunked, ok := t.(sql.ChunkedTable)
	if !ok {
		count, err := partitionCount(ctx, t)
		if err != nil {
			return nil, err
		}

		for i := 0; i < count; i++ {
			if !isSkipped(skip, sql.ChunkID(i)) {
				c.AddUnknownChunk(sql.ChunkID(i))
			}
		}
		return c, nil
	}

	count, err := chunked.ChunkCount(ctx)
	if err != nil {
		return nil, err
	}

	for i := 0; i < count; i++ {
		id := sql.ChunkID(i)
		if isSkipped(skip, id) {
			continue
		}

		ranges, known, err := chunked.ChunkValueRanges(ctx, id, column)
		if err != nil {
			return nil, err
		}

		if !known {
			c.AddUnknownChunk(id)
			continue
		}

		c.AddChunk(id, ranges...)
	}

	return c, nil
}

func isSkipped(skip *roaring.Bitmap, id sql.ChunkID) bool {
	return skip != nil && skip.Contains(uint32(id))
}

func partitionCount(ctx *sql.Context, t sql.Table) (int, error) {
	iter, err := t.Partitions(ctx)
	if err != nil {
		return 0, err
	}

	var count int
	for {
		_, err := iter.Next()
		if err == io.EOF {
			break
		}

		if err != nil {
			_ = iter.Close()
			return 0, err
		}
		count++
	}

	return count, iter.Close()
}

package sql

// ChunkID identifies a chunk of a table. The chunk with id i is the i-th
// partition returned by the table's Partitions iterator.
type ChunkID uint32

// ValueRange is the closed interval of values observed for a column inside a
// chunk. Low and High are values of the column type.
type ValueRange struct {
	Low  interface{}
	High interface{}
}

// ChunkedTable is a table whose partitions are chunks that can report value
// statistics for their columns. Reading statistics must not have side effects.
type ChunkedTable interface {
	Table
	// ChunkCount returns the number of chunks of the table.
	ChunkCount(*Context) (int, error)
	// ChunkValueRanges returns the disjoint value ranges of the column inside
	// the chunk. A chunk without values has no ranges. If the statistics are
	// unknown, the boolean result is false.
	ChunkValueRanges(ctx *Context, chunk ChunkID, column string) ([]ValueRange, bool, error)
}

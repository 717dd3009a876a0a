package memory

import (
	"io"
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/spf13/cast"
	errors "gopkg.in/src-d/go-errors.v1"

	"gopkg.in/src-d/go-dips.v0/sql"
)

// ErrPartitionNotFound is thrown when a partition key doesn't name a chunk of
// the table.
var ErrPartitionNotFound = errors.NewKind("partition not found %q")

// DefaultChunkSize is the number of rows of every chunk of a table created
// without an explicit chunk size.
const DefaultChunkSize = 65535

// Table represents an in-memory database table. Rows are appended to chunks
// of a fixed number of rows, and every chunk is a partition of the table.
type Table struct {
	name        string
	schema      sql.Schema
	chunkSize   int
	rangeSplits int

	mu     sync.RWMutex
	chunks [][]sql.Row
	stats  map[statsKey][]sql.ValueRange
}

type statsKey struct {
	chunk  sql.ChunkID
	column int
}

var _ sql.Table = (*Table)(nil)
var _ sql.ChunkedTable = (*Table)(nil)

// NewTable creates a new Table with the given name and schema.
func NewTable(name string, schema sql.Schema) *Table {
	return NewChunkedTable(name, schema, DefaultChunkSize)
}

// NewChunkedTable creates a new Table with the given name, schema and number
// of rows per chunk.
func NewChunkedTable(name string, schema sql.Schema, chunkSize int) *Table {
	if chunkSize < 1 {
		chunkSize = 1
	}

	return &Table{
		name:        name,
		schema:      schema,
		chunkSize:   chunkSize,
		rangeSplits: 1,
		stats:       make(map[statsKey][]sql.ValueRange),
	}
}

// WithRangeSplits makes the table report up to n disjoint ranges per chunk
// for numeric columns. Ranges are cut at the widest gaps between the values
// of the chunk.
func (t *Table) WithRangeSplits(n int) *Table {
	if n < 1 {
		n = 1
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.rangeSplits = n
	t.stats = make(map[statsKey][]sql.ValueRange)
	return t
}

// Name implements the sql.Table interface.
func (t *Table) Name() string {
	return t.name
}

// Schema implements the sql.Table interface.
func (t *Table) Schema() sql.Schema {
	return t.schema
}

func (t *Table) String() string {
	return t.name
}

// ChunkSize returns the maximum number of rows of a chunk.
func (t *Table) ChunkSize() int {
	return t.chunkSize
}

// Insert appends a new row to the last chunk of the table, starting a new
// chunk when it's full.
func (t *Table) Insert(ctx *sql.Context, row sql.Row) error {
	if err := t.schema.CheckRow(row); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	last := len(t.chunks) - 1
	if last < 0 || len(t.chunks[last]) >= t.chunkSize {
		t.chunks = append(t.chunks, make([]sql.Row, 0, t.chunkSize))
		last++
	}

	t.chunks[last] = append(t.chunks[last], row)
	for k := range t.stats {
		if k.chunk == sql.ChunkID(last) {
			delete(t.stats, k)
		}
	}

	return nil
}

// Partitions implements the sql.Table interface.
func (t *Table) Partitions(ctx *sql.Context) (sql.PartitionIter, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	keys := make([][]byte, len(t.chunks))
	for i := range t.chunks {
		keys[i] = []byte(strconv.Itoa(i))
	}

	return &partitionIter{keys: keys}, nil
}

// PartitionRows implements the sql.Table interface.
func (t *Table) PartitionRows(ctx *sql.Context, partition sql.Partition) (sql.RowIter, error) {
	chunk, err := strconv.Atoi(string(partition.Key()))
	if err != nil {
		return nil, ErrPartitionNotFound.New(partition.Key())
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if chunk < 0 || chunk >= len(t.chunks) {
		return nil, ErrPartitionNotFound.New(partition.Key())
	}

	// Rows may be appended while the chunk is being read, so a copy is
	// iterated instead.
	rows := make([]sql.Row, len(t.chunks[chunk]))
	copy(rows, t.chunks[chunk])

	return &tableIter{rows: rows}, nil
}

// ChunkCount implements the sql.ChunkedTable interface.
func (t *Table) ChunkCount(ctx *sql.Context) (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.chunks), nil
}

// ChunkValueRanges implements the sql.ChunkedTable interface. NULL values are
// not part of any range.
func (t *Table) ChunkValueRanges(
	ctx *sql.Context,
	chunk sql.ChunkID,
	column string,
) ([]sql.ValueRange, bool, error) {
	idx := t.schema.IndexOfColumn(column)
	if idx < 0 {
		return nil, false, sql.ErrColumnNotFound.New(column, t.name)
	}

	key := statsKey{chunk, idx}

	t.mu.RLock()
	if int(chunk) >= len(t.chunks) {
		t.mu.RUnlock()
		return nil, false, sql.ErrInvalidChunk.New(t.name, chunk)
	}

	if ranges, ok := t.stats[key]; ok {
		t.mu.RUnlock()
		return ranges, true, nil
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()

	if ranges, ok := t.stats[key]; ok {
		return ranges, true, nil
	}

	ranges, err := chunkRanges(t.chunks[chunk], idx, t.schema[idx].Type, t.rangeSplits)
	if err != nil {
		return nil, false, err
	}

	t.stats[key] = ranges
	return ranges, true, nil
}

func chunkRanges(rows []sql.Row, idx int, typ sql.Type, splits int) ([]sql.ValueRange, error) {
	var values []interface{}
	var nan interface{}
	for _, row := range rows {
		switch v := row[idx]; {
		case v == nil:
		case isNaN(v):
			nan = v
		default:
			values = append(values, v)
		}
	}

	// NaN is out of the order of the other values, so it gets a range of its
	// own.
	var nanRanges []sql.ValueRange
	if nan != nil {
		nanRanges = []sql.ValueRange{{Low: nan, High: nan}}
	}

	if len(values) == 0 {
		return nanRanges, nil
	}

	var sortErr error
	sort.SliceStable(values, func(i, j int) bool {
		cmp, err := typ.Compare(values[i], values[j])
		if err != nil && sortErr == nil {
			sortErr = err
		}
		return cmp < 0
	})

	if sortErr != nil {
		return nil, sortErr
	}

	if splits < 2 || !typ.Kind().IsNumeric() {
		return append([]sql.ValueRange{{Low: values[0], High: values[len(values)-1]}}, nanRanges...), nil
	}

	cuts, err := widestGaps(values, splits-1)
	if err != nil {
		return nil, err
	}

	var ranges []sql.ValueRange
	start := 0
	for _, cut := range cuts {
		ranges = append(ranges, sql.ValueRange{Low: values[start], High: values[cut]})
		start = cut + 1
	}

	ranges = append(ranges, sql.ValueRange{Low: values[start], High: values[len(values)-1]})
	return append(ranges, nanRanges...), nil
}

func isNaN(v interface{}) bool {
	switch v := v.(type) {
	case float64:
		return math.IsNaN(v)
	case float32:
		return math.IsNaN(float64(v))
	default:
		return false
	}
}

// widestGaps returns, in ascending order, the positions i of the n widest
// gaps between values[i] and values[i+1]. Gaps between equal values are never
// chosen.
func widestGaps(values []interface{}, n int) ([]int, error) {
	type gap struct {
		pos   int
		width float64
	}

	var gaps []gap
	for i := 0; i+1 < len(values); i++ {
		a, err := cast.ToFloat64E(values[i])
		if err != nil {
			return nil, err
		}

		b, err := cast.ToFloat64E(values[i+1])
		if err != nil {
			return nil, err
		}

		if b > a {
			gaps = append(gaps, gap{i, b - a})
		}
	}

	sort.SliceStable(gaps, func(i, j int) bool {
		return gaps[i].width > gaps[j].width
	})

	if len(gaps) > n {
		gaps = gaps[:n]
	}

	cuts := make([]int, len(gaps))
	for i, g := range gaps {
		cuts[i] = g.pos
	}
	sort.Ints(cuts)

	return cuts, nil
}

// Partition is a chunk of a memory table.
type Partition struct {
	key []byte
}

// NewPartition returns the partition with the given key.
func NewPartition(key []byte) *Partition {
	return &Partition{key: key}
}

// Key implements the sql.Partition interface.
func (p *Partition) Key() []byte { return p.key }

type partitionIter struct {
	keys [][]byte
	pos  int
}

func (p *partitionIter) Next() (sql.Partition, error) {
	if p.pos >= len(p.keys) {
		return nil, io.EOF
	}

	key := p.keys[p.pos]
	p.pos++
	return &Partition{key}, nil
}

func (p *partitionIter) Close() error { return nil }

type tableIter struct {
	rows []sql.Row
	pos  int
}

var _ sql.RowIter = (*tableIter)(nil)

func (i *tableIter) Next() (sql.Row, error) {
	if i.pos >= len(i.rows) {
		return nil, io.EOF
	}

	row := i.rows[i.pos]
	i.pos++
	return row.Copy(), nil
}

func (i *tableIter) Close() error {
	return nil
}

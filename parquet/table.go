// Package parquet implements sql.ChunkedTable over parquet files. Every row
// group of a file is a chunk of the table, and the row group column
// statistics are the value ranges of the chunk.
package parquet

import (
	"io"
	"os"
	"strconv"

	pq "github.com/parquet-go/parquet-go"
	errors "gopkg.in/src-d/go-errors.v1"

	"gopkg.in/src-d/go-dips.v0/sql"
)

var (
	// ErrUnsupportedColumn is returned when a parquet column can't be mapped
	// to a SQL type.
	ErrUnsupportedColumn = errors.NewKind("column %s of table %s has unsupported type %s")

	// ErrPartitionNotFound is returned when a partition key doesn't name a
	// row group of the file.
	ErrPartitionNotFound = errors.NewKind("partition not found %q")

	// ErrMalformedRow is returned when a row read from the file doesn't
	// have a value per column.
	ErrMalformedRow = errors.NewKind("row of table %s has %d values, expected %d")
)

const rowBufferSize = 128

// Table is a read-only table backed by a parquet file. Only flat schemas are
// supported.
type Table struct {
	name   string
	schema sql.Schema
	file   *pq.File
	closer io.Closer
}

var _ sql.ChunkedTable = (*Table)(nil)

// Open opens the parquet file at path as a table with the given name. The
// table must be closed after use.
func Open(name, path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	t, err := NewTable(name, f, stat.Size())
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	t.closer = f
	return t, nil
}

// NewTable reads the metadata of the parquet file in r and returns a table
// over it.
func NewTable(name string, r io.ReaderAt, size int64) (*Table, error) {
	file, err := pq.OpenFile(r, size)
	if err != nil {
		return nil, err
	}

	schema, err := tableSchema(name, file.Schema())
	if err != nil {
		return nil, err
	}

	return &Table{name: name, schema: schema, file: file}, nil
}

func tableSchema(name string, s *pq.Schema) (sql.Schema, error) {
	var schema sql.Schema
	for _, field := range s.Fields() {
		if !field.Leaf() || field.Repeated() {
			return nil, ErrUnsupportedColumn.New(field.Name(), name, "group")
		}

		typ, ok := sqlType(field.Type().Kind())
		if !ok {
			return nil, ErrUnsupportedColumn.New(field.Name(), name, field.Type())
		}

		schema = append(schema, &sql.Column{
			Name:     field.Name(),
			Type:     typ,
			Nullable: field.Optional(),
			Source:   name,
		})
	}

	return schema, nil
}

func sqlType(kind pq.Kind) (sql.Type, bool) {
	switch kind {
	case pq.Boolean:
		return sql.Boolean, true
	case pq.Int32:
		return sql.Int32, true
	case pq.Int64:
		return sql.Int64, true
	case pq.Float:
		return sql.Float32, true
	case pq.Double:
		return sql.Float64, true
	case pq.ByteArray, pq.FixedLenByteArray:
		return sql.Text, true
	default:
		return nil, false
	}
}

// value converts a parquet value of a column to the Go value of its SQL type.
func value(v pq.Value) interface{} {
	if v.IsNull() {
		return nil
	}

	switch v.Kind() {
	case pq.Boolean:
		return v.Boolean()
	case pq.Int32:
		return v.Int32()
	case pq.Int64:
		return v.Int64()
	case pq.Float:
		return v.Float()
	case pq.Double:
		return v.Double()
	case pq.ByteArray, pq.FixedLenByteArray:
		return string(v.ByteArray())
	default:
		return nil
	}
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

// NumRows returns the number of rows of the file.
func (t *Table) NumRows() int64 {
	return t.file.NumRows()
}

// Close closes the underlying file if the table was opened with Open.
func (t *Table) Close() error {
	if t.closer == nil {
		return nil
	}

	return t.closer.Close()
}

// Partitions implements the sql.Table interface.
func (t *Table) Partitions(ctx *sql.Context) (sql.PartitionIter, error) {
	return &partitionIter{count: len(t.file.RowGroups())}, nil
}

// PartitionRows implements the sql.Table interface.
func (t *Table) PartitionRows(ctx *sql.Context, partition sql.Partition) (sql.RowIter, error) {
	groups := t.file.RowGroups()
	idx, err := strconv.Atoi(string(partition.Key()))
	if err != nil || idx < 0 || idx >= len(groups) {
		return nil, ErrPartitionNotFound.New(partition.Key())
	}

	return &rowGroupIter{
		table: t,
		rows:  groups[idx].Rows(),
		buf:   make([]pq.Row, rowBufferSize),
	}, nil
}

// ChunkCount implements the sql.ChunkedTable interface.
func (t *Table) ChunkCount(ctx *sql.Context) (int, error) {
	return len(t.file.RowGroups()), nil
}

// ChunkValueRanges implements the sql.ChunkedTable interface. The range of a
// chunk is the min and max of its column chunk. Column chunks without
// statistics are reported as unknown.
func (t *Table) ChunkValueRanges(
	ctx *sql.Context,
	chunk sql.ChunkID,
	column string,
) ([]sql.ValueRange, bool, error) {
	idx := t.schema.IndexOfColumn(column)
	if idx < 0 {
		return nil, false, sql.ErrColumnNotFound.New(column, t.name)
	}

	groups := t.file.RowGroups()
	if int(chunk) >= len(groups) {
		return nil, false, sql.ErrInvalidChunk.New(t.name, chunk)
	}

	rg := groups[chunk]
	if rg.NumRows() == 0 {
		return nil, true, nil
	}

	cc, ok := rg.ColumnChunks()[idx].(*pq.FileColumnChunk)
	if !ok {
		return nil, false, nil
	}

	// Writers leave the bounds of chunks with only NULL values unset.
	low, high, ok := cc.Bounds()
	if !ok || low.IsNull() || high.IsNull() {
		return nil, false, nil
	}

	return []sql.ValueRange{{Low: value(low), High: value(high)}}, true, nil
}

// Partition is a row group of a parquet file.
type Partition struct {
	key []byte
}

// Key implements the sql.Partition interface.
func (p *Partition) Key() []byte { return p.key }

type partitionIter struct {
	count int
	pos   int
}

func (i *partitionIter) Next() (sql.Partition, error) {
	if i.pos >= i.count {
		return nil, io.EOF
	}

	key := []byte(strconv.Itoa(i.pos))
	i.pos++
	return &Partition{key}, nil
}

func (i *partitionIter) Close() error { return nil }

type rowGroupIter struct {
	table *Table
	rows  pq.Rows
	buf   []pq.Row
	n     int
	pos   int
	eof   bool
}

var _ sql.RowIter = (*rowGroupIter)(nil)

func (i *rowGroupIter) Next() (sql.Row, error) {
	for i.pos >= i.n {
		if i.eof {
			return nil, io.EOF
		}

		n, err := i.rows.ReadRows(i.buf)
		if err == io.EOF {
			i.eof = true
		} else if err != nil {
			return nil, err
		}

		i.n, i.pos = n, 0
	}

	values := i.buf[i.pos]
	i.pos++

	if len(values) != len(i.table.schema) {
		return nil, ErrMalformedRow.New(i.table.name, len(values), len(i.table.schema))
	}

	row := make(sql.Row, len(values))
	for j, v := range values {
		row[j] = value(v)
	}

	return row, nil
}

func (i *rowGroupIter) Close() error {
	return i.rows.Close()
}

package sql

import (
	"context"
	"io"
)

// TableRowIter iterates over the rows of all the partitions of a table,
// skipping the chunks it's told to skip.
type TableRowIter struct {
	ctx        *Context
	table      Table
	partitions PartitionIter
	partition  Partition
	chunk      ChunkID
	read       int
	skip       func(ChunkID) bool
	rows       RowIter
}

// NewTableIter returns an iterator over all the rows of the table.
func NewTableIter(ctx *Context, table Table, partitions PartitionIter) *TableRowIter {
	return NewChunkedTableIter(ctx, table, partitions, nil)
}

// NewChunkedTableIter returns an iterator over the rows of the table whose
// chunk is not skipped. The i-th partition returned by partitions is the
// chunk with id i.
func NewChunkedTableIter(
	ctx *Context,
	table Table,
	partitions PartitionIter,
	skip func(ChunkID) bool,
) *TableRowIter {
	return &TableRowIter{ctx: ctx, table: table, partitions: partitions, skip: skip}
}

func (i *TableRowIter) Next() (Row, error) {
	select {
	case <-i.ctx.Done():
		return nil, context.Canceled
	default:
	}

	for i.partition == nil {
		partition, err := i.partitions.Next()
		if err != nil {
			if err == io.EOF {
				if e := i.partitions.Close(); e != nil {
					return nil, e
				}
			}

			return nil, err
		}

		i.chunk = ChunkID(i.read)
		i.read++
		if i.skip != nil && i.skip(i.chunk) {
			continue
		}

		i.partition = partition
	}

	if i.rows == nil {
		rows, err := i.table.PartitionRows(i.ctx, i.partition)
		if err != nil {
			return nil, err
		}

		i.rows = rows
	}

	row, err := i.rows.Next()
	if err != nil && err == io.EOF {
		if err = i.rows.Close(); err != nil {
			return nil, err
		}

		i.partition = nil
		i.rows = nil
		return i.Next()
	}

	return row, err
}

func (i *TableRowIter) Close() error {
	if i.rows != nil {
		if err := i.rows.Close(); err != nil {
			_ = i.partitions.Close()
			return err
		}
	}
	return i.partitions.Close()
}

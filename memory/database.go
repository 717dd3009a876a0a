package memory

import (
	"gopkg.in/src-d/go-dips.v0/sql"
)

// Database is an in-memory database.
type Database struct {
	name   string
	tables map[string]sql.Table
}

var _ sql.Database = (*Database)(nil)

// NewDatabase creates a new database with the given name.
func NewDatabase(name string) *Database {
	return &Database{
		name:   name,
		tables: map[string]sql.Table{},
	}
}

// Name returns the database name.
func (d *Database) Name() string {
	return d.name
}

// Tables returns all tables in the database.
func (d *Database) Tables() map[string]sql.Table {
	return d.tables
}

// AddTable adds a new table to the database.
func (d *Database) AddTable(name string, t sql.Table) {
	d.tables[name] = t
}

// Table returns the table with the given name.
func (d *Database) Table(name string) (sql.Table, error) {
	t, ok := d.tables[name]
	if !ok {
		return nil, sql.ErrTableNotFound.New(name)
	}

	return t, nil
}

// CreateTable creates a table with the given name, schema and number of rows
// per chunk.
func (d *Database) CreateTable(ctx *sql.Context, name string, schema sql.Schema, chunkSize int) (*Table, error) {
	if _, ok := d.tables[name]; ok {
		return nil, sql.ErrTableAlreadyExists.New(name)
	}

	t := NewChunkedTable(name, schema, chunkSize)
	d.tables[name] = t
	return t, nil
}

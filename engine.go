// Package dips runs plans of inner equi-joins over chunked tables, pruning
// the chunks of every table that can't produce a row of the join before any
// of them is read.
package dips

import (
	"gopkg.in/src-d/go-dips.v0/sql"
	"gopkg.in/src-d/go-dips.v0/sql/analyzer"
)

// Engine analyzes and executes plans.
type Engine struct {
	Databases []sql.Database
	Analyzer  *analyzer.Analyzer
}

// New creates a new Engine with the given analyzer.
func New(a *analyzer.Analyzer) *Engine {
	return &Engine{Analyzer: a}
}

// NewDefault creates a new Engine with the default analyzer, configured from
// the environment.
func NewDefault() (*Engine, error) {
	a, err := analyzer.NewDefault()
	if err != nil {
		return nil, err
	}

	return New(a), nil
}

// AddDatabase adds the given database to the engine.
func (e *Engine) AddDatabase(db sql.Database) {
	e.Databases = append(e.Databases, db)
}

// Table returns the table with the given name of the given database.
func (e *Engine) Table(db, name string) (sql.Table, error) {
	for _, d := range e.Databases {
		if d.Name() != db {
			continue
		}

		if t, ok := d.Tables()[name]; ok {
			return t, nil
		}
		break
	}

	return nil, sql.ErrTableNotFound.New(name)
}

// Query analyzes the plan and returns the iterator over its rows.
func (e *Engine) Query(
	ctx *sql.Context,
	n sql.Node,
) (sql.Schema, sql.RowIter, error) {
	analyzed, err := e.Analyzer.Analyze(ctx, n)
	if err != nil {
		return nil, nil, err
	}

	span, ctx := ctx.Span("query")
	iter, err := analyzed.RowIter(ctx)
	if err != nil {
		span.Finish()
		return nil, nil, err
	}

	return analyzed.Schema(), sql.NewSpanIter(span, iter), nil
}

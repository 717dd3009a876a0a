package plan

import (
	"fmt"

	"github.com/mitchellh/hashstructure"

	"gopkg.in/src-d/go-dips.v0/sql"
)

// Distinct is a node that ensures all rows that come from it are unique.
type Distinct struct {
	UnaryNode
}

// NewDistinct creates a new Distinct node.
func NewDistinct(child sql.Node) *Distinct {
	return &Distinct{
		UnaryNode: UnaryNode{Child: child},
	}
}

// RowIter implements the Node interface.
func (d *Distinct) RowIter(ctx *sql.Context) (sql.RowIter, error) {
	span, ctx := ctx.Span("plan.Distinct")

	it, err := d.Child.RowIter(ctx)
	if err != nil {
		span.Finish()
		return nil, err
	}

	return sql.NewSpanIter(span, newDistinctIter(it)), nil
}

// WithChildren implements the Node interface.
func (d *Distinct) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvalidChildrenNumber.New(d, len(children), 1)
	}

	return NewDistinct(children[0]), nil
}

func (d *Distinct) String() string {
	return printTree(d)
}

func (d *Distinct) describe() string {
	return "Distinct"
}

// distinctIter keeps track of the hashes of all rows that have been emitted.
// It does not emit any rows whose hashes have been seen already.
type distinctIter struct {
	childIter sql.RowIter
	seen      map[uint64]struct{}
}

func newDistinctIter(child sql.RowIter) *distinctIter {
	return &distinctIter{
		childIter: child,
		seen:      make(map[uint64]struct{}),
	}
}

func (di *distinctIter) Next() (sql.Row, error) {
	for {
		row, err := di.childIter.Next()
		if err != nil {
			return nil, err
		}

		hash, err := hashRow(row)
		if err != nil {
			return nil, err
		}

		if _, ok := di.seen[hash]; ok {
			continue
		}

		di.seen[hash] = struct{}{}
		return row, nil
	}
}

func (di *distinctIter) Close() error {
	return di.childIter.Close()
}

func hashRow(row sql.Row) (uint64, error) {
	hash, err := hashstructure.Hash(row, nil)
	if err != nil {
		return 0, fmt.Errorf("unable to hash row: %s", err)
	}
	return hash, nil
}

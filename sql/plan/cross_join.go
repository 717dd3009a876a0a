package plan

import (
	"io"

	opentracing "github.com/opentracing/opentracing-go"

	"gopkg.in/src-d/go-dips.v0/sql"
)

// CrossJoin is a cross join between two tables.
type CrossJoin struct {
	BinaryNode
}

// NewCrossJoin creates a new cross join node from two tables.
func NewCrossJoin(left sql.Node, right sql.Node) *CrossJoin {
	return &CrossJoin{
		BinaryNode: BinaryNode{
			Left:  left,
			Right: right,
		},
	}
}

// Schema implements the Node interface.
func (p *CrossJoin) Schema() sql.Schema {
	return append(append(sql.Schema{}, p.Left.Schema()...), p.Right.Schema()...)
}

// RowIter implements the Node interface.
func (p *CrossJoin) RowIter(ctx *sql.Context) (sql.RowIter, error) {
	span, ctx := ctx.Span("plan.CrossJoin", opentracing.Tags{
		"left":  nameOf(p.Left),
		"right": nameOf(p.Right),
	})

	li, err := p.Left.RowIter(ctx)
	if err != nil {
		span.Finish()
		return nil, err
	}

	return sql.NewSpanIter(span, &crossJoinIterator{
		l:  li,
		rp: p.Right,
		s:  ctx,
	}), nil
}

// WithChildren implements the Node interface.
func (p *CrossJoin) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvalidChildrenNumber.New(p, len(children), 2)
	}

	return NewCrossJoin(children[0], children[1]), nil
}

func (p *CrossJoin) String() string {
	return printTree(p)
}

func (p *CrossJoin) describe() string {
	return "CrossJoin"
}

type crossJoinIterator struct {
	l  sql.RowIter
	rp rowIterProvider
	r  sql.RowIter
	s  *sql.Context

	leftRow sql.Row
}

func (i *crossJoinIterator) Next() (sql.Row, error) {
	for {
		if i.leftRow == nil {
			r, err := i.l.Next()
			if err != nil {
				return nil, err
			}

			i.leftRow = r
		}

		if i.r == nil {
			iter, err := i.rp.RowIter(i.s)
			if err != nil {
				return nil, err
			}

			i.r = iter
		}

		rightRow, err := i.r.Next()
		if err == io.EOF {
			if err := i.r.Close(); err != nil {
				return nil, err
			}

			i.r = nil
			i.leftRow = nil
			continue
		}

		if err != nil {
			return nil, err
		}

		return i.leftRow.Append(rightRow), nil
	}
}

func (i *crossJoinIterator) Close() (err error) {
	if i.l != nil {
		err = i.l.Close()
	}

	if i.r != nil {
		if err == nil {
			err = i.r.Close()
		} else {
			_ = i.r.Close()
		}
	}

	return err
}

package plan

import (
	"fmt"
	"io"

	opentracing "github.com/opentracing/opentracing-go"

	"gopkg.in/src-d/go-dips.v0/sql"
)

// InnerJoin is an inner join between two nodes.
type InnerJoin struct {
	BinaryNode
	Cond sql.Expression
}

// NewInnerJoin creates a new inner join node from two nodes.
func NewInnerJoin(left, right sql.Node, cond sql.Expression) *InnerJoin {
	return &InnerJoin{
		BinaryNode: BinaryNode{
			Left:  left,
			Right: right,
		},
		Cond: cond,
	}
}

// Schema implements the Node interface.
func (j *InnerJoin) Schema() sql.Schema {
	return append(append(sql.Schema{}, j.Left.Schema()...), j.Right.Schema()...)
}

// Resolved implements the Resolvable interface.
func (j *InnerJoin) Resolved() bool {
	return j.Left.Resolved() && j.Right.Resolved() && j.Cond.Resolved()
}

// RowIter implements the Node interface. The right side is iterated once
// for every row of the left side.
func (j *InnerJoin) RowIter(ctx *sql.Context) (sql.RowIter, error) {
	span, ctx := ctx.Span("plan.InnerJoin", opentracing.Tags{
		"left":  nameOf(j.Left),
		"right": nameOf(j.Right),
	})

	l, err := j.Left.RowIter(ctx)
	if err != nil {
		span.Finish()
		return nil, err
	}

	return sql.NewSpanIter(span, &innerJoinIter{
		l:    l,
		rp:   j.Right,
		ctx:  ctx,
		cond: j.Cond,
	}), nil
}

// WithChildren implements the Node interface.
func (j *InnerJoin) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvalidChildrenNumber.New(j, len(children), 2)
	}

	return NewInnerJoin(children[0], children[1], j.Cond), nil
}

// Expressions implements the Expressioner interface.
func (j *InnerJoin) Expressions() []sql.Expression {
	return []sql.Expression{j.Cond}
}

// WithExpressions implements the Expressioner interface.
func (j *InnerJoin) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	if len(exprs) != 1 {
		return nil, sql.ErrInvalidChildrenNumber.New(j, len(exprs), 1)
	}

	return NewInnerJoin(j.Left, j.Right, exprs[0]), nil
}

func (j *InnerJoin) String() string {
	return printTree(j)
}

func (j *InnerJoin) describe() string {
	return fmt.Sprintf("InnerJoin(%s)", j.Cond)
}

type rowIterProvider interface {
	RowIter(*sql.Context) (sql.RowIter, error)
}

type innerJoinIter struct {
	l    sql.RowIter
	rp   rowIterProvider
	r    sql.RowIter
	ctx  *sql.Context
	cond sql.Expression

	leftRow sql.Row
}

func (i *innerJoinIter) Next() (sql.Row, error) {
	for {
		if i.leftRow == nil {
			r, err := i.l.Next()
			if err != nil {
				return nil, err
			}

			i.leftRow = r
		}

		if i.r == nil {
			iter, err := i.rp.RowIter(i.ctx)
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

		row := i.leftRow.Append(rightRow)
		ok, err := evalCondition(i.ctx, i.cond, row)
		if err != nil {
			return nil, err
		}

		if ok {
			return row, nil
		}
	}
}

func (i *innerJoinIter) Close() (err error) {
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

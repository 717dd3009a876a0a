package plan

import (
	"fmt"
	"strings"

	"github.com/mitchellh/hashstructure"
	opentracing "github.com/opentracing/opentracing-go"

	"gopkg.in/src-d/go-dips.v0/sql"
)

// SetOperationMode defines how duplicated rows are handled by a set
// operation.
type SetOperationMode byte

const (
	// SetOperationDistinct returns every matching row once.
	SetOperationDistinct SetOperationMode = iota
	// SetOperationAll returns a matching row as many times as it appears on
	// both sides.
	SetOperationAll
)

func (m SetOperationMode) String() string {
	switch m {
	case SetOperationAll:
		return "All"
	default:
		return "Distinct"
	}
}

// Intersect returns the rows of the left node that also appear in the right
// node. Both nodes must have the same schema. If join predicates are given,
// a left row matches a right row when all the predicates are true for the
// row made of both; otherwise rows must be equal.
type Intersect struct {
	BinaryNode
	Mode           SetOperationMode
	JoinPredicates []sql.Expression
}

// NewIntersect creates a new Intersect node.
func NewIntersect(
	mode SetOperationMode,
	left, right sql.Node,
	joinPredicates ...sql.Expression,
) *Intersect {
	return &Intersect{
		BinaryNode:     BinaryNode{Left: left, Right: right},
		Mode:           mode,
		JoinPredicates: joinPredicates,
	}
}

// Schema implements the Node interface.
func (i *Intersect) Schema() sql.Schema {
	return i.Left.Schema()
}

// Resolved implements the Resolvable interface.
func (i *Intersect) Resolved() bool {
	return i.Left.Resolved() && i.Right.Resolved() &&
		expressionsResolved(i.JoinPredicates...)
}

// RowIter implements the Node interface.
func (i *Intersect) RowIter(ctx *sql.Context) (sql.RowIter, error) {
	span, ctx := ctx.Span("plan.Intersect", opentracing.Tags{
		"mode": i.Mode.String(),
	})

	right, err := i.Right.RowIter(ctx)
	if err != nil {
		span.Finish()
		return nil, err
	}

	rightRows, err := sql.RowIterToRows(right)
	if err != nil {
		span.Finish()
		return nil, err
	}

	left, err := i.Left.RowIter(ctx)
	if err != nil {
		span.Finish()
		return nil, err
	}

	iter := &intersectIter{
		ctx:        ctx,
		left:       left,
		right:      rightRows,
		used:       make([]bool, len(rightRows)),
		predicates: i.JoinPredicates,
		mode:       i.Mode,
		seen:       make(map[uint64]struct{}),
	}

	return sql.NewSpanIter(span, iter), nil
}

// WithChildren implements the Node interface.
func (i *Intersect) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvalidChildrenNumber.New(i, len(children), 2)
	}

	return NewIntersect(i.Mode, children[0], children[1], i.JoinPredicates...), nil
}

// Expressions implements the Expressioner interface.
func (i *Intersect) Expressions() []sql.Expression {
	return i.JoinPredicates
}

// WithExpressions implements the Expressioner interface.
func (i *Intersect) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	if len(exprs) != len(i.JoinPredicates) {
		return nil, sql.ErrInvalidChildrenNumber.New(i, len(exprs), len(i.JoinPredicates))
	}

	return NewIntersect(i.Mode, i.Left, i.Right, exprs...), nil
}

func (i *Intersect) String() string {
	return printTree(i)
}

func (i *Intersect) describe() string {
	if len(i.JoinPredicates) == 0 {
		return fmt.Sprintf("Intersect(mode: %s)", i.Mode)
	}
	return fmt.Sprintf("Intersect(mode: %s, on: %s)", i.Mode, strings.Join(i.predicates(), " AND "))
}

func (i *Intersect) predicates() []string {
	preds := make([]string, len(i.JoinPredicates))
	for j, p := range i.JoinPredicates {
		preds[j] = p.String()
	}
	return preds
}

// Equal returns whether both nodes have the same mode and predicates over
// the very same inputs.
func (i *Intersect) Equal(other sql.Node) bool {
	o, ok := other.(*Intersect)
	if !ok {
		return false
	}

	if i.Mode != o.Mode || i.Left != o.Left || i.Right != o.Right {
		return false
	}

	a, b := i.predicates(), o.predicates()
	if len(a) != len(b) {
		return false
	}

	for j := range a {
		if a[j] != b[j] {
			return false
		}
	}

	return true
}

// Hash returns a hash of the description of the node and its inputs. Equal
// nodes have equal hashes.
func (i *Intersect) Hash() (uint64, error) {
	return hashstructure.Hash(struct {
		Mode       SetOperationMode
		Predicates []string
		Left       string
		Right      string
	}{i.Mode, i.predicates(), i.Left.String(), i.Right.String()}, nil)
}

type intersectIter struct {
	ctx        *sql.Context
	left       sql.RowIter
	right      []sql.Row
	used       []bool
	predicates []sql.Expression
	mode       SetOperationMode
	seen       map[uint64]struct{}
}

func (i *intersectIter) Next() (sql.Row, error) {
	for {
		row, err := i.left.Next()
		if err != nil {
			return nil, err
		}

		if i.mode == SetOperationDistinct {
			hash, err := hashRow(row)
			if err != nil {
				return nil, err
			}

			if _, ok := i.seen[hash]; ok {
				continue
			}

			i.seen[hash] = struct{}{}
		}

		ok, err := i.match(row)
		if err != nil {
			return nil, err
		}

		if ok {
			return row, nil
		}
	}
}

// match returns whether some right row matches the given one. With
// SetOperationAll, a right row can only be matched once.
func (i *intersectIter) match(row sql.Row) (bool, error) {
	for j, right := range i.right {
		if i.mode == SetOperationAll && i.used[j] {
			continue
		}

		ok, err := i.matches(row, right)
		if err != nil {
			return false, err
		}

		if ok {
			i.used[j] = true
			return true, nil
		}
	}

	return false, nil
}

func (i *intersectIter) matches(left, right sql.Row) (bool, error) {
	if len(i.predicates) == 0 {
		l, err := hashRow(left)
		if err != nil {
			return false, err
		}

		r, err := hashRow(right)
		if err != nil {
			return false, err
		}

		return l == r, nil
	}

	row := left.Append(right)
	for _, p := range i.predicates {
		ok, err := evalCondition(i.ctx, p, row)
		if err != nil || !ok {
			return false, err
		}
	}

	return true, nil
}

func (i *intersectIter) Close() error {
	return i.left.Close()
}

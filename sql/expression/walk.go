package expression

import "gopkg.in/src-d/go-dips.v0/sql"

// Inspect traverses the expression in depth-first order: it starts by calling
// f(expr); if f returns true, Inspect invokes f recursively for each of the
// children of expr.
func Inspect(expr sql.Expression, f func(sql.Expression) bool) {
	if expr == nil || !f(expr) {
		return
	}

	for _, child := range expr.Children() {
		Inspect(child, f)
	}
}

// GetFields returns all the fields referenced by the expression, in
// depth-first order.
func GetFields(expr sql.Expression) []*GetField {
	var fields []*GetField
	Inspect(expr, func(e sql.Expression) bool {
		if gf, ok := e.(*GetField); ok {
			fields = append(fields, gf)
		}
		return true
	})
	return fields
}

// TransformFunc is a function that given an expression will return that
// expression as is or transformed along with an error, if any.
type TransformFunc func(sql.Expression) (sql.Expression, error)

// TransformUp applies a transformation function to the given expression from
// the bottom up.
func TransformUp(e sql.Expression, f TransformFunc) (sql.Expression, error) {
	children := e.Children()
	if len(children) == 0 {
		return f(e)
	}

	newChildren := make([]sql.Expression, len(children))
	for i, c := range children {
		c, err := TransformUp(c, f)
		if err != nil {
			return nil, err
		}
		newChildren[i] = c
	}

	e, err := e.WithChildren(newChildren...)
	if err != nil {
		return nil, err
	}

	return f(e)
}

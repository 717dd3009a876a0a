package plan

import "gopkg.in/src-d/go-dips.v0/sql"

// TransformNodeFunc is a function that given a node will return that node
// as is or transformed along with an error, if any.
type TransformNodeFunc func(sql.Node) (sql.Node, error)

// TransformUp applies a transformation function to the given tree from the
// bottom up. Nodes whose children are not changed are not rebuilt.
func TransformUp(node sql.Node, f TransformNodeFunc) (sql.Node, error) {
	children := node.Children()
	if len(children) == 0 {
		return f(node)
	}

	newChildren := make([]sql.Node, len(children))
	var changed bool
	for i, c := range children {
		nc, err := TransformUp(c, f)
		if err != nil {
			return nil, err
		}

		newChildren[i] = nc
		if nc != c {
			changed = true
		}
	}

	if changed {
		var err error
		node, err = node.WithChildren(newChildren...)
		if err != nil {
			return nil, err
		}
	}

	return f(node)
}

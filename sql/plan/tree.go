package plan

import (
	"fmt"
	"strings"

	"github.com/xlab/treeprint"

	"gopkg.in/src-d/go-dips.v0/sql"
)

// describer is a node with a one-line description of itself, not including
// its children.
type describer interface {
	describe() string
}

// printTree renders the node and all its descendants as a tree.
func printTree(n sql.Node) string {
	return strings.TrimRight(asTree(n, nil).String(), "\n")
}

func asTree(n sql.Node, root treeprint.Tree) treeprint.Tree {
	txt := describeNode(n)
	var branch treeprint.Tree
	if root == nil {
		branch = treeprint.NewWithRoot(txt)
	} else {
		branch = root.AddBranch(txt)
	}

	for _, child := range n.Children() {
		asTree(child, branch)
	}
	return branch
}

func describeNode(n sql.Node) string {
	if d, ok := n.(describer); ok {
		return d.describe()
	}
	return fmt.Sprintf("%T", n)
}

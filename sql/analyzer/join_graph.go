package analyzer

import (
	"fmt"
	"strings"

	"github.com/xlab/treeprint"
	errors "gopkg.in/src-d/go-errors.v1"

	"gopkg.in/src-d/go-dips.v0/sql"
	"gopkg.in/src-d/go-dips.v0/sql/pruning"
)

var (
	// ErrJoinGraphNotTree is the reason of the panic when a join graph that
	// is empty or not a tree is rooted.
	ErrJoinGraphNotTree = errors.NewKind("join graph is empty or not a tree")
	// ErrUnknownJoinGraphNode is the reason of the panic when a join graph is
	// rooted at a node of another graph.
	ErrUnknownJoinGraphNode = errors.NewKind("node of table %s is not part of the join graph")
)

// PrunableTable is a table of the plan whose chunks can be pruned.
type PrunableTable interface {
	sql.Nameable
	Schema() sql.Schema
	// PrunedChunkIDs returns the pruned chunks in ascending order.
	PrunedChunkIDs() []sql.ChunkID
	// SetPrunedChunkIDs replaces the pruned chunks.
	SetPrunedChunkIDs([]sql.ChunkID)
	// ChunkColumn returns the ranges of the column for every chunk that is
	// not pruned.
	ChunkColumn(ctx *sql.Context, column string) (*pruning.Column, error)
}

// NodeID identifies a node inside its join graph.
type NodeID int

// NoParent is the parent of the root and of the nodes of a graph that has not
// been rooted.
const NoParent NodeID = -1

// JoinPredicate is an equality between a column of a table and a column of a
// neighbor table.
type JoinPredicate struct {
	Column         string
	NeighborColumn string
}

// JoinGraphEdge holds the predicates from a node to one of its neighbors.
// Every edge exists in both directions, with the columns swapped.
type JoinGraphEdge struct {
	Neighbor   NodeID
	Predicates []JoinPredicate
}

// JoinGraphNode is a table of a join graph.
type JoinGraphNode struct {
	ID    NodeID
	Table PrunableTable
	// Parent is the parent of the node once the graph is rooted.
	Parent NodeID
	// Children of the node once the graph is rooted, in visitation order.
	Children []NodeID

	edges     map[NodeID]*JoinGraphEdge
	neighbors []NodeID
}

// EdgeTo returns the edge from this node to the given neighbor, creating it
// if it doesn't exist.
func (n *JoinGraphNode) EdgeTo(neighbor NodeID) *JoinGraphEdge {
	if e, ok := n.edges[neighbor]; ok {
		return e
	}

	e := &JoinGraphEdge{Neighbor: neighbor}
	n.edges[neighbor] = e
	n.neighbors = append(n.neighbors, neighbor)
	return e
}

// Edge returns the edge from this node to the given neighbor, if any.
func (n *JoinGraphNode) Edge(neighbor NodeID) (*JoinGraphEdge, bool) {
	e, ok := n.edges[neighbor]
	return e, ok
}

// Neighbors returns the neighbors of the node in the order their edges were
// created.
func (n *JoinGraphNode) Neighbors() []NodeID {
	return n.neighbors
}

func (n *JoinGraphNode) String() string {
	return n.Table.Name()
}

// JoinGraph is the graph of the tables of a join, connected by the equality
// predicates between them. It's built for a single analysis and discarded
// afterwards.
type JoinGraph struct {
	nodes   []*JoinGraphNode
	byTable map[PrunableTable]NodeID
	root    NodeID
}

// NewJoinGraph returns an empty join graph.
func NewJoinGraph() *JoinGraph {
	return &JoinGraph{
		byTable: make(map[PrunableTable]NodeID),
		root:    NoParent,
	}
}

// NodeForTable returns the node of the given table, adding it to the graph if
// it's not there yet. Tables are compared by identity.
func (g *JoinGraph) NodeForTable(t PrunableTable) *JoinGraphNode {
	if id, ok := g.byTable[t]; ok {
		return g.nodes[id]
	}

	n := &JoinGraphNode{
		ID:     NodeID(len(g.nodes)),
		Table:  t,
		Parent: NoParent,
		edges:  make(map[NodeID]*JoinGraphEdge),
	}
	g.nodes = append(g.nodes, n)
	g.byTable[t] = n.ID
	return n
}

// IsEmpty returns whether the graph has no nodes.
func (g *JoinGraph) IsEmpty() bool { return len(g.nodes) == 0 }

// Len returns the number of nodes of the graph.
func (g *JoinGraph) Len() int { return len(g.nodes) }

// Node returns the node with the given id, or nil if there is none.
func (g *JoinGraph) Node(id NodeID) *JoinGraphNode {
	if id < 0 || int(id) >= len(g.nodes) {
		return nil
	}
	return g.nodes[id]
}

// Nodes returns all the nodes in the order they were added.
func (g *JoinGraph) Nodes() []*JoinGraphNode {
	return g.nodes
}

// Root returns the root of the graph, if it has been rooted.
func (g *JoinGraph) Root() (*JoinGraphNode, bool) {
	if g.root == NoParent {
		return nil, false
	}
	return g.nodes[g.root], true
}

// AddPredicate adds the predicate a.colA = b.colB to the edges between a and
// b. A predicate that is already there is not added again.
func (g *JoinGraph) AddPredicate(a, b *JoinGraphNode, colA, colB string) {
	addPredicate(a.EdgeTo(b.ID), JoinPredicate{colA, colB})
	addPredicate(b.EdgeTo(a.ID), JoinPredicate{colB, colA})
}

func addPredicate(e *JoinGraphEdge, p JoinPredicate) {
	for _, existing := range e.Predicates {
		if existing == p {
			return
		}
	}
	e.Predicates = append(e.Predicates, p)
}

func (g *JoinGraph) contains(n *JoinGraphNode) bool {
	return n != nil && g.Node(n.ID) == n
}

// IsTree returns whether the graph is connected and has no cycles. Graphs
// with less than two nodes are trees.
func (g *JoinGraph) IsTree() bool {
	if len(g.nodes) < 2 {
		return true
	}

	type visit struct {
		node, parent NodeID
	}

	visited := make([]bool, len(g.nodes))
	visited[0] = true
	reached := 1
	stack := []visit{{0, NoParent}}

	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, neighbor := range g.nodes[v.node].neighbors {
			if neighbor == v.parent {
				continue
			}

			if visited[neighbor] {
				return false
			}

			visited[neighbor] = true
			reached++
			stack = append(stack, visit{neighbor, v.node})
		}
	}

	return reached == len(g.nodes)
}

// SetRoot roots the graph at the given node, computing the parent and the
// children of every node from scratch. It panics if the graph is empty, is
// not a tree or doesn't contain the node.
func (g *JoinGraph) SetRoot(root *JoinGraphNode) {
	if g.IsEmpty() || !g.IsTree() {
		panic(ErrJoinGraphNotTree.New())
	}

	if !g.contains(root) {
		name := "<nil>"
		if root != nil {
			name = root.Table.Name()
		}
		panic(ErrUnknownJoinGraphNode.New(name))
	}

	for _, n := range g.nodes {
		n.Parent = NoParent
		n.Children = nil
	}

	visited := make([]bool, len(g.nodes))
	visited[root.ID] = true
	stack := []NodeID{root.ID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := g.nodes[id]
		for _, neighbor := range n.neighbors {
			if visited[neighbor] {
				continue
			}

			visited[neighbor] = true
			g.nodes[neighbor].Parent = id
			n.Children = append(n.Children, neighbor)
			stack = append(stack, neighbor)
		}
	}

	g.root = root.ID
}

func (g *JoinGraph) String() string {
	root, ok := g.Root()
	if !ok {
		tree := treeprint.NewWithRoot("JoinGraph")
		for _, n := range g.nodes {
			for _, neighbor := range n.neighbors {
				if neighbor > n.ID {
					tree.AddNode(edgeString(n, g.nodes[neighbor], n.edges[neighbor]))
				}
			}
		}
		return strings.TrimRight(tree.String(), "\n")
	}

	tree := treeprint.NewWithRoot(root.Table.Name())
	g.printChildren(tree, root)
	return strings.TrimRight(tree.String(), "\n")
}

func (g *JoinGraph) printChildren(tree treeprint.Tree, n *JoinGraphNode) {
	for _, id := range n.Children {
		child := g.nodes[id]
		branch := tree.AddBranch(edgeString(child, n, child.edges[n.ID]))
		g.printChildren(branch, child)
	}
}

func edgeString(n, neighbor *JoinGraphNode, e *JoinGraphEdge) string {
	preds := make([]string, len(e.Predicates))
	for i, p := range e.Predicates {
		preds[i] = fmt.Sprintf(
			"%s.%s = %s.%s",
			n.Table.Name(), p.Column,
			neighbor.Table.Name(), p.NeighborColumn,
		)
	}
	return fmt.Sprintf("%s (%s)", n.Table.Name(), strings.Join(preds, " AND "))
}

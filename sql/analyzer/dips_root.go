package analyzer

import (
	"gopkg.in/src-d/go-dips.v0/sql"
)

// RootSelector chooses the node a join graph is rooted at before its chunks
// are pruned.
type RootSelector interface {
	SelectRoot(ctx *sql.Context, g *JoinGraph) (*JoinGraphNode, error)
}

// RootSelectorFunc is a function that can be used as a RootSelector.
type RootSelectorFunc func(ctx *sql.Context, g *JoinGraph) (*JoinGraphNode, error)

// SelectRoot implements the RootSelector interface.
func (f RootSelectorFunc) SelectRoot(ctx *sql.Context, g *JoinGraph) (*JoinGraphNode, error) {
	return f(ctx, g)
}

// RootSelectorFor returns the selector of the given strategy. Unknown
// strategies select the first node.
func RootSelectorFor(s RootStrategy) RootSelector {
	switch s {
	case RootFewestChunks:
		return RootSelectorFunc(func(ctx *sql.Context, g *JoinGraph) (*JoinGraphNode, error) {
			return selectByChunks(ctx, g, func(count, best int) bool { return count < best })
		})
	case RootMostChunks:
		return RootSelectorFunc(func(ctx *sql.Context, g *JoinGraph) (*JoinGraphNode, error) {
			return selectByChunks(ctx, g, func(count, best int) bool { return count > best })
		})
	default:
		return RootSelectorFunc(selectFirst)
	}
}

func selectFirst(_ *sql.Context, g *JoinGraph) (*JoinGraphNode, error) {
	return g.Node(0), nil
}

// selectByChunks returns the first node whose number of surviving chunks is
// better than the one of every node before it.
func selectByChunks(
	ctx *sql.Context,
	g *JoinGraph,
	better func(count, best int) bool,
) (*JoinGraphNode, error) {
	var root *JoinGraphNode
	var best int
	for _, n := range g.Nodes() {
		count, err := survivingChunks(ctx, n.Table)
		if err != nil {
			return nil, err
		}

		if root == nil || better(count, best) {
			root, best = n, count
		}
	}

	return root, nil
}

type chunkCounter interface {
	ChunkCount(ctx *sql.Context) (int, error)
}

// survivingChunks returns the number of chunks of the table that are not
// pruned.
func survivingChunks(ctx *sql.Context, t PrunableTable) (int, error) {
	if c, ok := t.(chunkCounter); ok {
		count, err := c.ChunkCount(ctx)
		if err != nil {
			return 0, err
		}

		// Pruned ids may point past the last chunk if the table shrunk.
		surviving := count
		for _, id := range t.PrunedChunkIDs() {
			if int(id) < count {
				surviving--
			}
		}
		return surviving, nil
	}

	schema := t.Schema()
	if len(schema) == 0 {
		return 0, nil
	}

	col, err := t.ChunkColumn(ctx, schema[0].Name)
	if err != nil {
		return 0, err
	}

	return col.Len(), nil
}

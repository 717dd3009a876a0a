package pruning

import (
	"testing"

	"github.com/stretchr/testify/require"

	"gopkg.in/src-d/go-dips.v0/sql"
)

func intRanges(ranges ...[2]int64) []Range[int64] {
	var result []Range[int64]
	for _, r := range ranges {
		result = append(result, NewRange(r[0], r[1]))
	}
	return result
}

func TestPrunableChunks(t *testing.T) {
	require := require.New(t)

	base := ChunkRanges[int64]{
		0: intRanges([2]int64{1, 5}),
		1: intRanges([2]int64{8, 10}),
		2: intRanges([2]int64{10, 12}),
	}
	partner := ChunkRanges[int64]{
		0: intRanges([2]int64{6, 7}),
		1: intRanges([2]int64{9, 11}),
		2: intRanges([2]int64{12, 16}),
	}

	require.Equal([]sql.ChunkID{0}, ChunkIDs(PrunableChunks(base, partner)))
	require.Equal([]sql.ChunkID{0}, ChunkIDs(PrunableChunks(partner, base)))
}

func TestPrunableChunksMultipleRanges(t *testing.T) {
	require := require.New(t)

	base := ChunkRanges[int64]{
		0: intRanges([2]int64{1, 2}, [2]int64{20, 22}),
		1: intRanges([2]int64{3, 4}, [2]int64{30, 31}),
	}
	partner := ChunkRanges[int64]{
		5: intRanges([2]int64{10, 21}),
	}

	require.Equal([]sql.ChunkID{1}, ChunkIDs(PrunableChunks(base, partner)))
}

func TestPrunableChunksEmpty(t *testing.T) {
	require := require.New(t)

	base := ChunkRanges[int64]{
		0: intRanges([2]int64{1, 5}),
		1: nil,
	}

	require.Equal([]sql.ChunkID{0, 1}, ChunkIDs(PrunableChunks(base, ChunkRanges[int64]{})))
	require.Empty(ChunkIDs(PrunableChunks(ChunkRanges[int64]{}, base)))
	require.Equal([]sql.ChunkID{1}, ChunkIDs(PrunableChunks(base, base)))
}

func TestPrunableChunksUnknown(t *testing.T) {
	require := require.New(t)

	base := ChunkRanges[string]{
		0: {NewRange("a", "c")},
		1: {FullRange[string]()},
	}
	partner := ChunkRanges[string]{
		0: {NewRange("x", "z")},
	}

	require.Equal([]sql.ChunkID{0}, ChunkIDs(PrunableChunks(base, partner)))

	partner[1] = []Range[string]{FullRange[string]()}
	require.Empty(ChunkIDs(PrunableChunks(base, partner)))
}

// Every chunk holding a value that has a match on the other side must
// survive.
func TestPrunableChunksKeepsMatches(t *testing.T) {
	require := require.New(t)

	left := [][]int64{{1, 3, 5}, {7, 9}, {11, 40}, {100}}
	right := [][]int64{{2, 4}, {9, 10}, {60, 70}}

	toRanges := func(chunks [][]int64) ChunkRanges[int64] {
		result := make(ChunkRanges[int64])
		for i, values := range chunks {
			low, high := values[0], values[0]
			for _, v := range values {
				low, high = min(low, v), max(high, v)
			}
			result[sql.ChunkID(i)] = []Range[int64]{NewRange(low, high)}
		}
		return result
	}

	pruned := PrunableChunks(toRanges(left), toRanges(right))
	for i, values := range left {
		for _, v := range values {
			for _, other := range right {
				for _, o := range other {
					if v == o {
						require.False(pruned.Contains(uint32(i)), "chunk %d has a match", i)
					}
				}
			}
		}
	}

	require.Equal([]sql.ChunkID{2, 3}, ChunkIDs(pruned))
}

func TestBitmapOf(t *testing.T) {
	require := require.New(t)

	b := BitmapOf(3, 1, 3)
	require.Equal(uint64(2), b.GetCardinality())
	require.Equal([]sql.ChunkID{1, 3}, ChunkIDs(b))
	require.Nil(ChunkIDs(nil))
}

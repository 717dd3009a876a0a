package pruning

import (
	"cmp"

	"github.com/RoaringBitmap/roaring/v2"

	"gopkg.in/src-d/go-dips.v0/sql"
)

// ChunkRanges maps the surviving chunks of a table to the value ranges of a
// column. Pruned chunks are not present. A chunk with no ranges holds no
// values for the column.
type ChunkRanges[T cmp.Ordered] map[sql.ChunkID][]Range[T]

// PrunableChunks returns the chunks of base that can't match any row of
// partner: those whose ranges don't intersect any range of any partner chunk.
// Chunks of base without ranges are always prunable.
func PrunableChunks[T cmp.Ordered](base, partner ChunkRanges[T]) *roaring.Bitmap {
	var partnerRanges []Range[T]
	for _, ranges := range partner {
		partnerRanges = append(partnerRanges, ranges...)
	}

	result := roaring.New()
	for id, ranges := range base {
		if !anyIntersects(ranges, partnerRanges) {
			result.Add(uint32(id))
		}
	}

	return result
}

func anyIntersects[T cmp.Ordered](ranges, others []Range[T]) bool {
	for _, r := range ranges {
		for _, o := range others {
			if Intersects(r, o) {
				return true
			}
		}
	}
	return false
}

// ChunkIDs returns the ids in the bitmap in ascending order.
func ChunkIDs(b *roaring.Bitmap) []sql.ChunkID {
	if b == nil {
		return nil
	}

	ids := make([]sql.ChunkID, 0, b.GetCardinality())
	it := b.Iterator()
	for it.HasNext() {
		ids = append(ids, sql.ChunkID(it.Next()))
	}
	return ids
}

// BitmapOf returns a bitmap holding the given chunk ids.
func BitmapOf(ids ...sql.ChunkID) *roaring.Bitmap {
	b := roaring.New()
	for _, id := range ids {
		b.Add(uint32(id))
	}
	return b
}

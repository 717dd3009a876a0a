// Package pruning computes which chunks of a table can't contribute rows to an
// equi-join, using only the value ranges every chunk reports for the join
// columns.
package pruning

import (
	"cmp"
	"fmt"
)

// Range is the closed interval [Low, High] of the values of a column observed
// inside a chunk. Low must not be greater than High.
type Range[T cmp.Ordered] struct {
	Low  T
	High T
	full bool
}

// NewRange returns the closed interval [low, high].
func NewRange[T cmp.Ordered](low, high T) Range[T] {
	return Range[T]{Low: low, High: high}
}

// FullRange returns a range that covers every value of T. It's used for
// chunks whose statistics are unknown.
func FullRange[T cmp.Ordered]() Range[T] {
	return Range[T]{full: true}
}

// IsFull returns whether the range covers every value.
func (r Range[T]) IsFull() bool { return r.full }

func (r Range[T]) String() string {
	if r.full {
		return "[*]"
	}
	return fmt.Sprintf("[%v, %v]", r.Low, r.High)
}

// Intersects returns whether the two closed intervals share at least one
// value. Touching boundaries intersect.
func Intersects[T cmp.Ordered](a, b Range[T]) bool {
	if a.full || b.full {
		return true
	}
	return !(a.High < b.Low || b.High < a.Low)
}

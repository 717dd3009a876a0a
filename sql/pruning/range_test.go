package pruning

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIntersectsInt(t *testing.T) {
	testCases := []struct {
		name     string
		a, b     Range[int64]
		expected bool
	}{
		{"disjoint", NewRange[int64](1, 2), NewRange[int64](3, 4), false},
		{"contained", NewRange[int64](1, 8), NewRange[int64](3, 6), true},
		{"touching", NewRange[int64](1, 8), NewRange[int64](0, 1), true},
		{"single value", NewRange[int64](5, 5), NewRange[int64](5, 5), true},
		{"adjacent", NewRange[int64](1, 4), NewRange[int64](5, 9), false},
		{"full", NewRange[int64](1, 2), FullRange[int64](), true},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			require.Equal(tt.expected, Intersects(tt.a, tt.b))
			require.Equal(tt.expected, Intersects(tt.b, tt.a))
		})
	}
}

func TestIntersectsFloat(t *testing.T) {
	require := require.New(t)

	require.False(Intersects(NewRange(1.4, 2.3), NewRange(3.3, 4.5)))
	require.False(Intersects(NewRange(3.3, 4.5), NewRange(1.4, 2.3)))
	require.True(Intersects(NewRange(2.1, 8.4), NewRange(3.4, 6.9)))
	require.True(Intersects(NewRange(3.4, 6.9), NewRange(2.1, 8.4)))
	require.True(Intersects(NewRange(1.0, 8.0), NewRange(0.0, 1.0)))
	require.True(Intersects(NewRange(0.0, 1.0), NewRange(1.0, 8.0)))
}

func TestIntersectsString(t *testing.T) {
	require := require.New(t)

	require.False(Intersects(NewRange("aa", "bb"), NewRange("cc", "dd")))
	require.False(Intersects(NewRange("cc", "dd"), NewRange("aa", "bb")))
	require.True(Intersects(NewRange("aa", "gg"), NewRange("cc", "ee")))
	require.True(Intersects(NewRange("cc", "ee"), NewRange("aa", "gg")))
	require.True(Intersects(NewRange("cc", "ff"), NewRange("aa", "cc")))
	require.True(Intersects(NewRange("aa", "cc"), NewRange("cc", "ff")))
}

func TestRangeString(t *testing.T) {
	require := require.New(t)
	require.Equal("[1, 5]", NewRange(1, 5).String())
	require.Equal("[*]", FullRange[string]().String())
	require.True(FullRange[string]().IsFull())
	require.False(NewRange(1, 5).IsFull())
}

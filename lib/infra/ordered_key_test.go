package infra

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNaturalOrder(t *testing.T) {
	cmp := NaturalOrder[int]()
	require.Equal(t, int64(0), cmp(3, 3))
	require.Equal(t, int64(-1), cmp(1, 3))
	require.Equal(t, int64(1), cmp(5, 3))

	strCmp := NaturalOrder[string]()
	require.Equal(t, int64(-1), strCmp("abc", "abd"))
	require.Equal(t, int64(0), strCmp("", ""))

	fCmp := NaturalOrder[float64]()
	require.Equal(t, int64(1), fCmp(math.Inf(1), math.MaxFloat64))
}

func TestReverseOrder(t *testing.T) {
	cmp := ReverseOrder[uint8]()
	require.Equal(t, int64(1), cmp(1, 3))
	require.Equal(t, int64(-1), cmp(5, 3))
	require.Equal(t, int64(0), cmp(7, 7))
}

func TestSign(t *testing.T) {
	testcases := []struct {
		in, want int64
	}{
		{math.MinInt64, -1},
		{-42, -1},
		{0, 0},
		{1, 1},
		{math.MaxInt64, 1},
	}
	for _, tc := range testcases {
		require.Equal(t, tc.want, Sign(tc.in))
	}
}

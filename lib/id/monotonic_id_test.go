package id

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMonotonicNonZeroID(t *testing.T) {
	gen := MonotonicNonZeroID()
	prev := uint64(0)
	for i := 0; i < 1000; i++ {
		n := gen()
		require.Greater(t, n, prev)
		prev = n
	}
	require.Equal(t, uint64(1), MonotonicNonZeroID()(), "generators do not share a sequence")
}

func TestMonotonicNonZeroIDConcurrent(t *testing.T) {
	gen := MonotonicNonZeroID()
	var (
		wg   sync.WaitGroup
		lock sync.Mutex
		seen = make(map[uint64]struct{}, 4000)
	)
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids := make([]uint64, 0, 1000)
			for i := 0; i < 1000; i++ {
				ids = append(ids, gen())
			}
			lock.Lock()
			defer lock.Unlock()
			for _, n := range ids {
				seen[n] = struct{}{}
			}
		}()
	}
	wg.Wait()
	require.Len(t, seen, 4000)
}

func TestMonotonicNonZeroIDOverflow(t *testing.T) {
	src := &monotonicNonZeroID{val: math.MaxUint64 - 1}
	require.Equal(t, uint64(math.MaxUint64), src.next())
	// Wraps to zero and skips it.
	require.Equal(t, uint64(1), src.next())
}

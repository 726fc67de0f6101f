package id

import (
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/cpu"
)

// Gen hands out task ids.
type Gen func() uint64

const cacheLinePadSize = unsafe.Sizeof(cpu.CacheLinePad{})

// monotonicNonZeroID counts up from 1 and skips 0 on wrap around.
// The counter sits alone on its cache line.
type monotonicNonZeroID struct {
	_   [cacheLinePadSize - unsafe.Sizeof(*new(uint64))]byte
	val uint64
	_   [cacheLinePadSize - unsafe.Sizeof(*new(uint64))]byte
}

func (id *monotonicNonZeroID) next() uint64 {
	var v uint64
	if v = atomic.AddUint64(&id.val, 1); v == 0 {
		v = atomic.AddUint64(&id.val, 1)
	}
	return v
}

// MonotonicNonZeroID returns a generator whose ids start at 1 and only
// grow. It is safe for concurrent use.
func MonotonicNonZeroID() Gen {
	src := &monotonicNonZeroID{}
	return src.next
}

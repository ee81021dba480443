// Package mempool keeps size-classed pools of []float32 buffers so the
// 65536-wide feature rows are not reallocated for every prediction.
package mempool

import (
	"sync"
)

var float32Pools sync.Map // key: size class (int), value: *sync.Pool

// sizeClass rounds n up to the next multiple of 1024, with 1024 as the floor.
func sizeClass(n int) int {
	if n <= 1024 {
		return 1024
	}
	const step = 1024
	r := (n + step - 1) / step
	return r * step
}

func poolFor(cls int) *sync.Pool {
	pAny, _ := float32Pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]float32, cls) }})
	p, _ := pAny.(*sync.Pool)
	return p
}

// GetFloat32 retrieves a []float32 buffer of length n from the pool. The
// contents are whatever the previous user left; use GetZeroedFloat32 when the
// caller accumulates into the buffer. Return it via PutFloat32.
func GetFloat32(n int) []float32 {
	if n < 0 {
		n = 0
	}
	cls := sizeClass(n)
	p := poolFor(cls)
	if p == nil {
		return make([]float32, cls)[:n]
	}
	buf, ok := p.Get().([]float32)
	if !ok || cap(buf) < cls {
		buf = make([]float32, cls)
	}
	return buf[:n]
}

// GetZeroedFloat32 is GetFloat32 with the first n elements cleared.
func GetZeroedFloat32(n int) []float32 {
	buf := GetFloat32(n)
	clear(buf)
	return buf
}

// PutFloat32 returns a buffer to the pool. It is safe to pass a nil slice.
func PutFloat32(buf []float32) {
	if buf == nil {
		return
	}
	cls := sizeClass(cap(buf))
	if cls != cap(buf) {
		// Not one of ours; keeping it would hand out short buffers.
		return
	}
	p := poolFor(cls)
	if p == nil {
		return
	}
	p.Put(buf[:cap(buf)]) //nolint:staticcheck // SA6002: slice header allocation is acceptable here
}

// Package arena provides the allocator for the encoder's output buffer.
//
// Unlike a decoder's arena (which must hand out pointer-free, self-
// describing chunks so the garbage collector can trace through them), the
// encoder only ever needs contiguous []byte regions, so this arena is built
// directly on top of growable Go slices rather than raw unsafe chunk
// headers.
//
// Allocation is fallible: setting FailAfter lets tests simulate the arena
// running out of memory on a specific allocation, which is how property 7
// (OOM fidelity) in the encoder's test suite is exercised without actually
// exhausting the host's memory.
package arena

import "github.com/wireproto/wireenc/internal/dbg"

// minBlock is the smallest size RoundUpPow2 returns.
const minBlock = 128

// Arena hands out one freshly allocated byte block per Alloc call and
// keeps every block until Free.
//
// A zero Arena has FailAfter 0 and so fails its first allocation; New
// returns an Arena that never fails.
type Arena struct {
	blocks [][]byte

	// FailAfter, if non-negative, is the number of allocations that
	// succeed before one fails: the allocation with 0-based index
	// FailAfter (counted since the last Free) is rejected. Used only by
	// tests; New sets it to -1, meaning "never fail".
	FailAfter int

	allocs int
}

// New returns a ready-to-use Arena that never fails allocation.
func New() *Arena {
	return &Arena{FailAfter: -1}
}

// Alloc returns a fresh, zeroed block of exactly n bytes, or ok=false if
// the allocation was rejected (only possible via FailAfter fault
// injection).
func (a *Arena) Alloc(n int) (block []byte, ok bool) {
	if a.FailAfter >= 0 && a.allocs == a.FailAfter {
		a.allocs++
		dbg.Log("alloc", "fault-injected failure at allocation %d", a.allocs)
		return nil, false
	}
	a.allocs++

	block = make([]byte, n)
	a.blocks = append(a.blocks, block)
	dbg.Log("alloc", "%d bytes, block #%d", n, len(a.blocks))
	return block, true
}

// Free drops every block this arena has allocated, allowing them to be
// garbage collected. The arena itself remains usable afterward.
func (a *Arena) Free() {
	a.blocks = nil
	a.allocs = 0
}

// RoundUpPow2 returns the smallest power of two, starting at 128, that is
// at least n. This is the growth curve the buffer manager uses so that
// repeated growth amortizes to O(1) per byte written.
func RoundUpPow2(n int) int {
	ret := minBlock
	for ret < n {
		ret *= 2
	}
	return ret
}

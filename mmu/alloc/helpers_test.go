package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// newAllocator creates an allocator and fails the test on error.
func newAllocator(t testing.TB, total int, s Strategy) *Allocator {
	t.Helper()
	a, err := New(total, s)
	require.NoError(t, err)
	return a
}

// newFragmented builds a 50-unit space whose free ranges are
// [(0,9),(20,24),(30,49)], with allocations at [10,19] and [25,29].
//
// While only one free range exists every strategy places at the front, so the
// setup is identical for all strategies. The NextFit cursor is left at 30.
func newFragmented(t testing.TB, s Strategy) *Allocator {
	t.Helper()
	a := newAllocator(t, 50, s)

	var ids []ID
	for _, size := range []int{10, 10, 5, 5, 20} {
		p, err := a.Allocate(size)
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}
	// Free the 1st, 3rd and 5th allocation.
	for _, i := range []int{0, 2, 4} {
		require.NoError(t, a.Free(ids[i]))
	}

	require.Equal(t, []FreeRange{{0, 9}, {20, 24}, {30, 49}}, a.FreeRanges())
	assertInvariants(t, a)
	return a
}

// assertInvariants verifies coverage, coalescing and index consistency.
func assertInvariants(t testing.TB, a *Allocator) {
	t.Helper()
	require.NoError(t, a.Validate())

	covered := 0
	for _, b := range a.Snapshot() {
		covered += b.Size
	}
	require.Equal(t, a.Total(), covered, "blocks must cover the address space exactly")
}

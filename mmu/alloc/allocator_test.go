package alloc

import (
	"bytes"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		strategy Strategy
	}{
		{"zero total", 0, FirstFit},
		{"negative total", -10, BestFit},
		{"zero strategy", 100, 0},
		{"unknown strategy", 100, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := New(tt.total, tt.strategy)
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Nil(t, a)
		})
	}
}

func TestNew_SingleFreeRange(t *testing.T) {
	a := newAllocator(t, 1000, WorstFit)

	assert.Equal(t, 1000, a.Total())
	assert.Equal(t, WorstFit, a.Strategy())
	assert.Equal(t, []FreeRange{{0, 999}}, a.FreeRanges())
	assert.Empty(t, a.Allocations())
	assert.Equal(t, []Block{{Kind: KindFree, Base: 0, Limit: 999, Size: 1000}}, a.Snapshot())
	assertInvariants(t, a)
}

func TestAllocate_Sequential(t *testing.T) {
	a := newAllocator(t, 100, FirstFit)

	p1, err := a.Allocate(30)
	require.NoError(t, err)
	assert.Equal(t, Allocation{ID: 1, Size: 30, Base: 0, Limit: 29}, p1)

	p2, err := a.Allocate(70)
	require.NoError(t, err)
	assert.Equal(t, Allocation{ID: 2, Size: 70, Base: 30, Limit: 99}, p2)

	// Exhausted range is removed entirely.
	assert.Empty(t, a.FreeRanges())
	assertInvariants(t, a)
}

func TestAllocate_InvalidSize(t *testing.T) {
	a := newAllocator(t, 100, FirstFit)
	for _, size := range []int{0, -1, -100} {
		_, err := a.Allocate(size)
		assert.ErrorIs(t, err, ErrInvalidSize)
	}

	p, err := a.Allocate(1)
	require.NoError(t, err)
	assert.Equal(t, ID(1), p.ID, "rejected requests must not consume identifiers")
}

func TestAllocate_OutOfMemoryDoesNotMutate(t *testing.T) {
	for _, s := range Strategies {
		t.Run(s.String(), func(t *testing.T) {
			a := newFragmented(t, s)
			beforeFree := a.FreeRanges()
			beforeUsed := a.Allocations()
			beforeSnap := a.Snapshot()

			// 25 units are free in total but no single range holds 21.
			_, err := a.Allocate(21)
			require.ErrorIs(t, err, ErrOutOfMemory)

			assert.Equal(t, beforeFree, a.FreeRanges())
			assert.Equal(t, beforeUsed, a.Allocations())
			assert.Equal(t, beforeSnap, a.Snapshot())

			p, err := a.Allocate(1)
			require.NoError(t, err)
			assert.Equal(t, ID(6), p.ID, "failed request must not advance the counter")
		})
	}
}

func TestAllocate_LargerThanSpace(t *testing.T) {
	a := newAllocator(t, 10, NextFit)
	_, err := a.Allocate(11)
	assert.ErrorIs(t, err, ErrOutOfMemory)
	assert.Equal(t, []FreeRange{{0, 9}}, a.FreeRanges())
}

func TestIdentifiers_MonotonicAfterDeletes(t *testing.T) {
	a := newAllocator(t, 100, FirstFit)

	var last ID
	for range 5 {
		p, err := a.Allocate(10)
		require.NoError(t, err)
		assert.Greater(t, p.ID, last)
		last = p.ID
	}

	require.NoError(t, a.Free(5))
	require.NoError(t, a.Free(2))

	p, err := a.Allocate(10)
	require.NoError(t, err)
	assert.Equal(t, ID(6), p.ID, "identifiers are never reused")
	assert.Equal(t, 10, p.Base, "first fit reuses the lowest hole")

	_, ok := a.Lookup(2)
	assert.False(t, ok)
}

func TestFree_NotFound(t *testing.T) {
	a := newAllocator(t, 100, BestFit)
	p, err := a.Allocate(10)
	require.NoError(t, err)

	assert.ErrorIs(t, a.Free(99), ErrProcessNotFound)
	assert.ErrorIs(t, a.Free(0), ErrProcessNotFound)
	assert.ErrorIs(t, a.Free(-3), ErrProcessNotFound)

	require.NoError(t, a.Free(p.ID))
	assert.ErrorIs(t, a.Free(p.ID), ErrProcessNotFound, "double free")
	assertInvariants(t, a)
}

func TestFree_CoalescesNeighbours(t *testing.T) {
	a := newAllocator(t, 40, FirstFit)
	var ids []ID
	for range 4 {
		p, err := a.Allocate(10)
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	require.NoError(t, a.Free(ids[0]))
	require.NoError(t, a.Free(ids[2]))
	assert.Equal(t, []FreeRange{{0, 9}, {20, 29}}, a.FreeRanges())

	// Middle block joins both neighbours.
	require.NoError(t, a.Free(ids[1]))
	assert.Equal(t, []FreeRange{{0, 29}}, a.FreeRanges())

	require.NoError(t, a.Free(ids[3]))
	assert.Equal(t, []FreeRange{{0, 39}}, a.FreeRanges())
	assertInvariants(t, a)
}

func TestRoundTrip_RestoresFreeRanges(t *testing.T) {
	for _, s := range Strategies {
		t.Run(s.String(), func(t *testing.T) {
			a := newFragmented(t, s)
			before := a.FreeRanges()

			for _, size := range []int{1, 5, 10, 20} {
				p, err := a.Allocate(size)
				require.NoError(t, err)
				require.NoError(t, a.Free(p.ID))
				assert.Equal(t, before, a.FreeRanges(), "size %d", size)
			}
		})
	}
}

func TestTranslate_Bounds(t *testing.T) {
	a := newAllocator(t, 100, FirstFit)
	_, err := a.Allocate(40)
	require.NoError(t, err)
	p, err := a.Allocate(25)
	require.NoError(t, err)

	for v := range p.Size {
		phys, err := a.Translate(p.ID, v)
		require.NoError(t, err)
		assert.Equal(t, p.Base+v, phys)
		assert.True(t, p.Contains(phys))
	}

	_, err = a.Translate(p.ID, -1)
	assert.ErrorIs(t, err, ErrAddressOutOfRange)
	_, err = a.Translate(p.ID, p.Size)
	assert.ErrorIs(t, err, ErrAddressOutOfRange)
	_, err = a.Translate(p.ID, math.MaxInt)
	assert.ErrorIs(t, err, ErrAddressOutOfRange, "base+virtual must not wrap into range")
	_, err = a.Translate(42, 0)
	assert.ErrorIs(t, err, ErrProcessNotFound)
}

func TestSnapshot_OrderedAndComplete(t *testing.T) {
	a := newFragmented(t, FirstFit)

	want := []Block{
		{Kind: KindFree, Base: 0, Limit: 9, Size: 10},
		{Kind: KindAllocated, ID: 2, Base: 10, Limit: 19, Size: 10},
		{Kind: KindFree, Base: 20, Limit: 24, Size: 5},
		{Kind: KindAllocated, ID: 4, Base: 25, Limit: 29, Size: 5},
		{Kind: KindFree, Base: 30, Limit: 49, Size: 20},
	}
	assert.Equal(t, want, a.Snapshot())
	assert.Equal(t, "allocated", want[1].Kind.String())
	assert.Equal(t, "free", want[0].Kind.String())
}

func TestStats(t *testing.T) {
	a := newFragmented(t, BestFit)
	_, err := a.Allocate(100)
	require.Error(t, err)

	s := a.Stats()
	assert.Equal(t, 50, s.Total)
	assert.Equal(t, 15, s.Used)
	assert.Equal(t, 35, s.Free)
	assert.Equal(t, 2, s.Allocations)
	assert.Equal(t, 3, s.FreeRanges)
	assert.Equal(t, 20, s.LargestFree)
	assert.InDelta(t, 1-20.0/35.0, s.Fragmentation, 1e-9)
	assert.Equal(t, 6, s.AllocCalls)
	assert.Equal(t, 1, s.AllocFailures)
	assert.Equal(t, 3, s.FreeCalls)

	full := newAllocator(t, 10, FirstFit)
	_, err = full.Allocate(10)
	require.NoError(t, err)
	assert.Zero(t, full.Stats().Fragmentation)
}

func TestValidate_DetectsCorruption(t *testing.T) {
	a := newFragmented(t, FirstFit)

	// Split a free range in two adjacent halves behind the allocator's back.
	a.free.tree.Delete(FreeRange{Base: 30})
	a.free.tree.ReplaceOrInsert(FreeRange{Base: 30, Limit: 39})
	a.free.tree.ReplaceOrInsert(FreeRange{Base: 40, Limit: 49})
	assert.ErrorContains(t, a.Validate(), "adjacent free ranges")

	b := newFragmented(t, FirstFit)
	b.free.tree.Delete(FreeRange{Base: 20})
	assert.ErrorContains(t, b.Validate(), "gap [20, 24]")
}

func TestWithLogger_EmitsDebugEvents(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	a, err := New(20, FirstFit, WithLogger(l))
	require.NoError(t, err)
	p, err := a.Allocate(5)
	require.NoError(t, err)
	require.NoError(t, a.Free(p.ID))
	_, err = a.Allocate(50)
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "msg=allocated")
	assert.Contains(t, out, "msg=freed")
	assert.Contains(t, out, `msg="allocation rejected"`)
}

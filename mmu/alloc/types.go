package alloc

// ID identifies a placed allocation (a simulated process).
type ID int

// Allocation is one placed request occupying [Base, Limit].
type Allocation struct {
	ID    ID
	Size  int
	Base  int
	Limit int // inclusive
}

// Contains reports whether the physical address lies inside the allocation.
func (a Allocation) Contains(addr int) bool {
	return addr >= a.Base && addr <= a.Limit
}

// FreeRange is a maximal unallocated interval [Base, Limit], inclusive.
type FreeRange struct {
	Base  int
	Limit int
}

// Size returns the number of addresses covered by the range.
func (r FreeRange) Size() int { return r.Limit - r.Base + 1 }

// BlockKind distinguishes the two kinds of snapshot entries.
type BlockKind uint8

const (
	KindFree      BlockKind = 0
	KindAllocated BlockKind = 1
)

func (k BlockKind) String() string {
	if k == KindAllocated {
		return "allocated"
	}
	return "free"
}

// Block describes one entry of the memory map. ID is zero for free blocks.
type Block struct {
	Kind  BlockKind
	ID    ID
	Base  int
	Limit int
	Size  int
}

// Stats summarizes the allocator's geometry and lifetime counters.
type Stats struct {
	Total       int // Capacity of the address space
	Used        int // Addresses held by live allocations
	Free        int // Addresses in free ranges
	Allocations int // Live allocations
	FreeRanges  int // Number of free ranges
	LargestFree int // Width of the widest free range

	// Fragmentation is 1 - LargestFree/Free: 0 when all free space is contiguous
	// (or nothing is free), approaching 1 as free space splinters.
	Fragmentation float64

	AllocCalls    int // Allocate() calls, including rejected ones
	AllocFailures int // Allocate() calls that returned an error
	FreeCalls     int // Successful Free() calls
}

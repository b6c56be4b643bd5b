package alloc

import "github.com/google/btree"

// btreeDegree keeps nodes small; free lists in a simulation rarely exceed a few
// hundred ranges.
const btreeDegree = 8

// freeList holds the free ranges ordered by base address.
//
// Ranges never overlap. After release() they are also never adjacent, and
// allocation only shrinks ranges, so the maximally-coalesced form is kept at
// all times.
type freeList struct {
	tree *btree.BTreeG[FreeRange]
}

func rangeLess(a, b FreeRange) bool { return a.Base < b.Base }

// newFreeList creates a list with one range covering [0, total-1].
func newFreeList(total int) *freeList {
	fl := &freeList{tree: btree.NewG(btreeDegree, rangeLess)}
	fl.tree.ReplaceOrInsert(FreeRange{Base: 0, Limit: total - 1})
	return fl
}

// Len returns the number of free ranges.
func (fl *freeList) Len() int { return fl.tree.Len() }

func (fl *freeList) ascend(fn func(FreeRange) bool) {
	fl.tree.Ascend(fn)
}

// ascendFrom visits ranges with Base >= base in ascending order.
func (fl *freeList) ascendFrom(base int, fn func(FreeRange) bool) {
	fl.tree.AscendGreaterOrEqual(FreeRange{Base: base}, fn)
}

// ascendBefore visits ranges with Base < base in ascending order.
func (fl *freeList) ascendBefore(base int, fn func(FreeRange) bool) {
	fl.tree.AscendLessThan(FreeRange{Base: base}, fn)
}

// take carves size addresses off the front of r, which must be in the list and
// at least size wide. An exhausted range is removed.
func (fl *freeList) take(r FreeRange, size int) {
	fl.tree.Delete(r)
	if r.Size() > size {
		fl.tree.ReplaceOrInsert(FreeRange{Base: r.Base + size, Limit: r.Limit})
	}
}

// release returns r to the list and merges it with its neighbours.
func (fl *freeList) release(r FreeRange) {
	fl.tree.ReplaceOrInsert(r)
	fl.coalesce()
}

// coalesce merges every range whose base is at or below the previous range's
// limit+1 into that previous range. It is idempotent.
func (fl *freeList) coalesce() {
	merged := make([]FreeRange, 0, fl.tree.Len())
	fl.ascend(func(r FreeRange) bool {
		if n := len(merged); n > 0 && r.Base <= merged[n-1].Limit+1 {
			merged[n-1].Limit = max(merged[n-1].Limit, r.Limit)
			return true
		}
		merged = append(merged, r)
		return true
	})
	if len(merged) == fl.tree.Len() {
		return
	}

	fl.tree.Clear(false)
	for _, r := range merged {
		fl.tree.ReplaceOrInsert(r)
	}
}

// ranges returns a copy of the free ranges in ascending base order.
func (fl *freeList) ranges() []FreeRange {
	out := make([]FreeRange, 0, fl.tree.Len())
	fl.ascend(func(r FreeRange) bool {
		out = append(out, r)
		return true
	})
	return out
}

// totals returns the summed width of all ranges and the widest one.
func (fl *freeList) totals() (free, largest int) {
	fl.ascend(func(r FreeRange) bool {
		free += r.Size()
		largest = max(largest, r.Size())
		return true
	})
	return free, largest
}

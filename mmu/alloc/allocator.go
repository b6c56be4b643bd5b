package alloc

import (
	"fmt"
	"log/slog"

	"github.com/google/btree"
)

// Allocator is the state machine of one simulated address space.
//
// It keeps live allocations twice: by identifier for lookups and by base
// address for ordered snapshots. Free ranges live in a base-ordered freeList.
type Allocator struct {
	total    int
	strategy Strategy

	free   *freeList
	live   map[ID]Allocation
	byBase *btree.BTreeG[Allocation]

	// lastID is the most recently issued identifier; it only ever grows.
	lastID ID

	// cursor is the base of the most recent successful allocation (-1 before
	// the first one). NextFit resumes scanning after it.
	cursor int

	stats counters
	log   *slog.Logger
}

// counters holds lifetime counters reported by Stats.
type counters struct {
	allocCalls    int
	allocFailures int
	freeCalls     int
}

// Option configures an Allocator at construction.
type Option func(*Allocator)

// WithLogger routes engine debug events (placements, frees, rejections) to l.
func WithLogger(l *slog.Logger) Option {
	return func(a *Allocator) {
		if l != nil {
			a.log = l
		}
	}
}

func allocLess(a, b Allocation) bool { return a.Base < b.Base }

// New creates an allocator for an address space of total units using the given
// placement strategy. It returns ErrInvalidConfig for a non-positive total or
// an unknown strategy.
func New(total int, strategy Strategy, opts ...Option) (*Allocator, error) {
	if total <= 0 {
		return nil, fmt.Errorf("%w: total size must be positive, got %d", ErrInvalidConfig, total)
	}
	if !strategy.Valid() {
		return nil, fmt.Errorf("%w: unknown strategy %d", ErrInvalidConfig, uint8(strategy))
	}

	a := &Allocator{
		total:    total,
		strategy: strategy,
		free:     newFreeList(total),
		live:     make(map[ID]Allocation),
		byBase:   btree.NewG(btreeDegree, allocLess),
		cursor:   -1,
		log:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Total returns the capacity of the address space.
func (a *Allocator) Total() int { return a.total }

// Strategy returns the placement strategy fixed at construction.
func (a *Allocator) Strategy() Strategy { return a.strategy }

// Allocate places a request of size units and returns the new allocation.
//
// It returns ErrInvalidSize for size <= 0 and ErrOutOfMemory when no free range
// is wide enough. On error nothing changes and no identifier is consumed.
func (a *Allocator) Allocate(size int) (Allocation, error) {
	a.stats.allocCalls++

	if size <= 0 {
		a.stats.allocFailures++
		return Allocation{}, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}

	r, ok := a.place(size)
	if !ok {
		a.stats.allocFailures++
		a.log.Debug("allocation rejected",
			"size", size, "strategy", a.strategy.String(), "free_ranges", a.free.Len())
		return Allocation{}, fmt.Errorf("%w: no free range of %d units (%s)", ErrOutOfMemory, size, a.strategy)
	}

	a.free.take(r, size)
	a.lastID++
	p := Allocation{
		ID:    a.lastID,
		Size:  size,
		Base:  r.Base,
		Limit: r.Base + size - 1,
	}
	a.live[p.ID] = p
	a.byBase.ReplaceOrInsert(p)
	a.cursor = p.Base

	a.log.Debug("allocated",
		"id", int(p.ID), "base", p.Base, "limit", p.Limit, "size", size,
		"strategy", a.strategy.String(), "from_base", r.Base, "from_size", r.Size())
	return p, nil
}

// place picks a free range for size under the configured strategy.
func (a *Allocator) place(size int) (FreeRange, bool) {
	switch a.strategy {
	case NextFit:
		return nextFit(a.free, size, a.cursor)
	case BestFit:
		return bestFit(a.free, size)
	case WorstFit:
		return worstFit(a.free, size)
	default:
		return firstFit(a.free, size)
	}
}

// Free releases the allocation id and coalesces the freed range with its
// neighbours. It returns ErrProcessNotFound if id is not live.
func (a *Allocator) Free(id ID) error {
	p, ok := a.live[id]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrProcessNotFound, id)
	}

	delete(a.live, id)
	a.byBase.Delete(p)
	a.free.release(FreeRange{Base: p.Base, Limit: p.Limit})
	a.stats.freeCalls++

	a.log.Debug("freed", "id", int(id), "base", p.Base, "limit", p.Limit, "free_ranges", a.free.Len())
	return nil
}

// Translate converts a virtual address of process id into a physical address.
//
// Virtual addresses are relative to the allocation: valid values are
// [0, size). It returns ErrProcessNotFound or ErrAddressOutOfRange.
func (a *Allocator) Translate(id ID, virtual int) (int, error) {
	p, ok := a.live[id]
	if !ok {
		return 0, fmt.Errorf("%w: id %d", ErrProcessNotFound, id)
	}
	phys := p.Base + virtual
	if virtual < 0 || !p.Contains(phys) {
		return 0, fmt.Errorf("%w: %d not in [0, %d) for process %d",
			ErrAddressOutOfRange, virtual, p.Size, id)
	}
	return phys, nil
}

// Lookup returns the live allocation with the given identifier.
func (a *Allocator) Lookup(id ID) (Allocation, bool) {
	p, ok := a.live[id]
	return p, ok
}

// Allocations returns the live allocations ordered by base address.
func (a *Allocator) Allocations() []Allocation {
	out := make([]Allocation, 0, a.byBase.Len())
	a.byBase.Ascend(func(p Allocation) bool {
		out = append(out, p)
		return true
	})
	return out
}

// FreeRanges returns the free ranges ordered by base address.
func (a *Allocator) FreeRanges() []FreeRange {
	return a.free.ranges()
}

// Snapshot returns the memory map: every allocation and free range as a
// Block, ordered by base address and covering the whole address space.
func (a *Allocator) Snapshot() []Block {
	used := a.Allocations()
	free := a.free.ranges()
	blocks := make([]Block, 0, len(used)+len(free))

	i, j := 0, 0
	for i < len(used) || j < len(free) {
		if j == len(free) || (i < len(used) && used[i].Base < free[j].Base) {
			p := used[i]
			blocks = append(blocks, Block{Kind: KindAllocated, ID: p.ID, Base: p.Base, Limit: p.Limit, Size: p.Size})
			i++
			continue
		}
		r := free[j]
		blocks = append(blocks, Block{Kind: KindFree, Base: r.Base, Limit: r.Limit, Size: r.Size()})
		j++
	}
	return blocks
}

// Stats returns current geometry and lifetime counters.
func (a *Allocator) Stats() Stats {
	free, largest := a.free.totals()
	s := Stats{
		Total:         a.total,
		Used:          a.total - free,
		Free:          free,
		Allocations:   len(a.live),
		FreeRanges:    a.free.Len(),
		LargestFree:   largest,
		AllocCalls:    a.stats.allocCalls,
		AllocFailures: a.stats.allocFailures,
		FreeCalls:     a.stats.freeCalls,
	}
	if free > 0 {
		s.Fragmentation = 1 - float64(largest)/float64(free)
	}
	return s
}

// Validate checks the structural invariants: full coverage of the address
// space without overlap, coalesced free ranges, and agreement between the
// allocation indexes.
func (a *Allocator) Validate() error {
	if len(a.live) != a.byBase.Len() {
		return fmt.Errorf("alloc: index mismatch: %d live by id, %d by base", len(a.live), a.byBase.Len())
	}
	for id, p := range a.live {
		if id != p.ID {
			return fmt.Errorf("alloc: allocation %d stored under id %d", p.ID, id)
		}
		if id <= 0 || id > a.lastID {
			return fmt.Errorf("alloc: allocation id %d outside issued range [1, %d]", id, a.lastID)
		}
		if got, ok := a.byBase.Get(p); !ok || got != p {
			return fmt.Errorf("alloc: allocation %d missing from base index", id)
		}
	}

	next := 0
	prevFree := false
	for _, b := range a.Snapshot() {
		if b.Base != next {
			if b.Base < next {
				return fmt.Errorf("alloc: block at %d overlaps previous block ending at %d", b.Base, next-1)
			}
			return fmt.Errorf("alloc: gap [%d, %d] not covered", next, b.Base-1)
		}
		if b.Size <= 0 || b.Size != b.Limit-b.Base+1 {
			return fmt.Errorf("alloc: block [%d, %d] has inconsistent size %d", b.Base, b.Limit, b.Size)
		}
		isFree := b.Kind == KindFree
		if isFree && prevFree {
			return fmt.Errorf("alloc: adjacent free ranges at %d", b.Base)
		}
		prevFree = isFree
		next = b.Limit + 1
	}
	if next != a.total {
		return fmt.Errorf("alloc: map ends at %d, want %d", next, a.total)
	}
	return nil
}

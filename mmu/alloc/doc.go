// Package alloc simulates single-level contiguous memory allocation over a
// fixed-size address space.
//
// # Overview
//
// An [Allocator] owns one simulated address space of a fixed capacity. It places
// variable-sized process requests into free ranges, releases them again with
// neighbour coalescing, and translates process-relative (virtual) addresses into
// physical addresses.
//
// # Placement Strategies
//
// The strategy is chosen at construction and fixed for the lifetime of the
// instance:
//
//   - FirstFit: lowest-addressed free range that is wide enough
//   - NextFit:  like FirstFit, but resumes after the most recent allocation and
//     wraps around once
//   - BestFit:  range leaving the smallest leftover (ties go to the lower address)
//   - WorstFit: range leaving the largest leftover (ties go to the lower address)
//
// # Usage Example
//
//	a, err := alloc.New(1000, alloc.BestFit)
//	if err != nil {
//	    return err
//	}
//
//	p, err := a.Allocate(120)
//	if err != nil {
//	    return err // alloc.ErrOutOfMemory when no range fits
//	}
//
//	phys, err := a.Translate(p.ID, 17) // p.Base + 17
//
//	err = a.Free(p.ID)
//
// # Invariants
//
// After every call, successful or not:
//
//   - every address in [0, total-1] is covered by exactly one allocation or one
//     free range
//   - free ranges are ordered by base and never adjacent to each other
//   - process identifiers are issued from a monotonic counter and never reused
//
// A failed call never mutates the allocation state. [Allocator.Validate] checks
// these invariants explicitly.
//
// # Thread Safety
//
// Allocator instances are not thread-safe. Callers must synchronize access
// externally or go through the session package, which serializes operations on
// a shared instance.
package alloc

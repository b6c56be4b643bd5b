package alloc

import (
	"fmt"
	"strings"
)

// Strategy selects which free range satisfies an allocation request.
//
// The numeric values match the selectors used on the command line (1-4).
type Strategy uint8

const (
	FirstFit Strategy = 1
	NextFit  Strategy = 2
	BestFit  Strategy = 3
	WorstFit Strategy = 4
)

// Strategies lists all placement strategies in selector order.
var Strategies = []Strategy{FirstFit, NextFit, BestFit, WorstFit}

// Valid reports whether s is one of the four known strategies.
func (s Strategy) Valid() bool {
	return s >= FirstFit && s <= WorstFit
}

func (s Strategy) String() string {
	switch s {
	case FirstFit:
		return "first-fit"
	case NextFit:
		return "next-fit"
	case BestFit:
		return "best-fit"
	case WorstFit:
		return "worst-fit"
	default:
		return fmt.Sprintf("strategy(%d)", uint8(s))
	}
}

// ParseStrategy accepts a numeric selector ("1".."4") or a strategy name such as
// "best-fit", "best_fit", "bestfit" or "best" (case-insensitive).
func ParseStrategy(s string) (Strategy, error) {
	switch name := strings.TrimSpace(s); name {
	case "1":
		return FirstFit, nil
	case "2":
		return NextFit, nil
	case "3":
		return BestFit, nil
	case "4":
		return WorstFit, nil
	}

	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.NewReplacer("-", "", "_", "", " ", "").Replace(name)
	switch strings.TrimSuffix(name, "fit") {
	case "first":
		return FirstFit, nil
	case "next":
		return NextFit, nil
	case "best":
		return BestFit, nil
	case "worst":
		return WorstFit, nil
	}
	return 0, fmt.Errorf("%w: unknown strategy %q (use 1-4 or first/next/best/worst)", ErrInvalidConfig, s)
}

// firstFit returns the lowest-addressed range at least size wide.
func firstFit(fl *freeList, size int) (FreeRange, bool) {
	var found FreeRange
	ok := false
	fl.ascend(func(r FreeRange) bool {
		if r.Size() >= size {
			found, ok = r, true
			return false
		}
		return true
	})
	return found, ok
}

// nextFit scans ranges whose base lies after cursor, then wraps to the front and
// scans up to the resume point. A cursor of -1 scans from address 0.
func nextFit(fl *freeList, size, cursor int) (FreeRange, bool) {
	var found FreeRange
	ok := false
	visit := func(r FreeRange) bool {
		if r.Size() >= size {
			found, ok = r, true
			return false
		}
		return true
	}

	resume := cursor + 1
	fl.ascendFrom(resume, visit)
	if !ok {
		fl.ascendBefore(resume, visit)
	}
	return found, ok
}

// bestFit returns the range with the smallest leftover; the first one wins ties.
func bestFit(fl *freeList, size int) (FreeRange, bool) {
	var found FreeRange
	ok := false
	fl.ascend(func(r FreeRange) bool {
		if r.Size() < size {
			return true
		}
		if !ok || r.Size() < found.Size() {
			found, ok = r, true
		}
		// Exact fit cannot be beaten.
		return found.Size() != size
	})
	return found, ok
}

// worstFit returns the range with the largest leftover; the first one wins ties.
func worstFit(fl *freeList, size int) (FreeRange, bool) {
	var found FreeRange
	ok := false
	fl.ascend(func(r FreeRange) bool {
		if r.Size() >= size && (!ok || r.Size() > found.Size()) {
			found, ok = r, true
		}
		return true
	})
	return found, ok
}

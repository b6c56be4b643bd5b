package printer

import (
	"fmt"
	"io"
	"strings"

	"github.com/joshuapare/mmusim/mmu/alloc"
)

// printMapText prints one line per block, preceded by an optional bar.
func (p *Printer) printMapText(blocks []alloc.Block) error {
	var sb strings.Builder
	sb.WriteString(p.styles.render(p.styles.header, "Memory Map:"))
	sb.WriteByte('\n')

	if p.opts.BarWidth > 0 && len(blocks) > 0 {
		sb.WriteString(p.bar(blocks))
		sb.WriteByte('\n')
	}

	for _, b := range blocks {
		pos := fmt.Sprintf("Base=%s, Limit=%s, Size=%s",
			p.number(b.Base), p.number(b.Limit), p.size(b.Size))
		if b.Kind == alloc.KindAllocated {
			fmt.Fprintf(&sb, "%s: %s\n",
				p.styles.render(p.styles.allocated, fmt.Sprintf("Process %d", b.ID)), pos)
		} else {
			fmt.Fprintf(&sb, "%s: %s\n", p.styles.render(p.styles.free, "Free"), pos)
		}
	}

	_, err := io.WriteString(p.writer, sb.String())
	return err
}

// bar renders the address space as BarWidth columns: '#' where the column's
// first address is allocated, '.' where it is free.
func (p *Printer) bar(blocks []alloc.Block) string {
	last := blocks[len(blocks)-1]
	total := last.Limit + 1
	width := min(p.opts.BarWidth, total)

	var sb strings.Builder
	sb.WriteByte('[')
	i := 0
	step, rem := total/width, total%width
	for col := range width {
		// col*total/width without overflowing for totals near MaxInt.
		addr := col*step + col*rem/width
		for blocks[i].Limit < addr {
			i++
		}
		if blocks[i].Kind == alloc.KindAllocated {
			sb.WriteString(p.styles.render(p.styles.allocated, "#"))
		} else {
			sb.WriteString(p.styles.render(p.styles.free, "."))
		}
	}
	sb.WriteByte(']')
	return sb.String()
}

// printStatsText prints a short summary block.
func (p *Printer) printStatsText(s alloc.Stats) error {
	label := func(name string) string {
		return p.styles.render(p.styles.label, name+":")
	}
	frag := fmt.Sprintf("%.1f%%", s.Fragmentation*100)
	if s.Fragmentation >= 0.5 {
		frag = p.styles.render(p.styles.warn, frag)
	}

	var sb strings.Builder
	sb.WriteString(p.styles.render(p.styles.header, "Memory Stats:"))
	sb.WriteByte('\n')
	fmt.Fprintf(&sb, "%s %s  %s %s  %s %s\n",
		label("Total"), p.size(s.Total), label("Used"), p.size(s.Used), label("Free"), p.size(s.Free))
	fmt.Fprintf(&sb, "%s %d  %s %d  %s %s\n",
		label("Processes"), s.Allocations, label("Free ranges"), s.FreeRanges,
		label("Largest free"), p.size(s.LargestFree))
	fmt.Fprintf(&sb, "%s %s\n", label("Fragmentation"), frag)
	fmt.Fprintf(&sb, "%s %d allocations (%d failed), %d deletions\n",
		label("Requests"), s.AllocCalls, s.AllocFailures, s.FreeCalls)

	_, err := io.WriteString(p.writer, sb.String())
	return err
}

func (p *Printer) number(n int) string {
	if p.opts.Grouping {
		return p.num.Sprintf("%d", n)
	}
	return fmt.Sprintf("%d", n)
}

func (p *Printer) size(n int) string {
	return p.number(n) + p.opts.Unit
}

// Package printer renders allocator state for humans and machines.
package printer

import (
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/mmusim/mmu/alloc"
)

const (
	DefaultUnit     = "KB"
	DefaultBarWidth = 0
)

// Format specifies the output format for printing.
type Format string

const (
	// FormatText outputs human-readable text format.
	FormatText Format = "text"

	// FormatJSON outputs JSON format.
	FormatJSON Format = "json"
)

// Options controls printing behavior.
type Options struct {
	// Format specifies output format (text, json).
	// Default: FormatText
	Format Format

	// Color styles text output with ANSI colors when the writer supports them.
	// Default: false
	Color bool

	// Unit is appended to sizes in text output.
	// Default: "KB"
	Unit string

	// Grouping prints sizes and addresses with thousands separators.
	// Default: false
	Grouping bool

	// BarWidth draws a proportional map of the address space of that many
	// columns above the block list (text format only). 0 disables it.
	// Default: 0
	BarWidth int
}

// DefaultOptions returns sensible defaults for printing.
func DefaultOptions() Options {
	return Options{
		Format:   FormatText,
		Unit:     DefaultUnit,
		BarWidth: DefaultBarWidth,
	}
}

// Printer writes memory maps and statistics to a writer.
type Printer struct {
	opts   Options
	writer io.Writer
	num    *message.Printer
	styles styles
}

// New creates a Printer writing to w.
//
// Example:
//
//	p := printer.New(os.Stdout, printer.DefaultOptions())
//	p.PrintMap(a.Snapshot())
func New(w io.Writer, opts Options) *Printer {
	if opts.Format == "" {
		opts.Format = FormatText
	}
	p := &Printer{
		opts:   opts,
		writer: w,
		num:    message.NewPrinter(language.English),
	}
	if opts.Color {
		p.styles = newStyles(lipgloss.NewRenderer(w))
	}
	return p
}

// Options returns the options the printer was created with.
func (p *Printer) Options() Options { return p.opts }

// PrintMap prints the blocks of a snapshot in address order.
func (p *Printer) PrintMap(blocks []alloc.Block) error {
	if p.opts.Format == FormatJSON {
		return p.writeJSON(Records(blocks))
	}
	return p.printMapText(blocks)
}

// PrintStats prints allocator statistics.
func (p *Printer) PrintStats(s alloc.Stats) error {
	if p.opts.Format == FormatJSON {
		return p.writeJSON(NewStatsRecord(s))
	}
	return p.printStatsText(s)
}

// ErrorMessage turns allocator errors into the sentence shown to users.
// Unknown errors are returned verbatim.
func ErrorMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, alloc.ErrOutOfMemory):
		return "Not enough memory"
	case errors.Is(err, alloc.ErrProcessNotFound):
		return "Process ID not found"
	case errors.Is(err, alloc.ErrAddressOutOfRange):
		return "Virtual address is outside the process's address space"
	case errors.Is(err, alloc.ErrInvalidSize):
		return "Requested memory amount must be strictly positive"
	case errors.Is(err, alloc.ErrInvalidConfig):
		msg := strings.TrimPrefix(err.Error(), "alloc: ")
		return strings.ToUpper(msg[:1]) + msg[1:]
	default:
		return err.Error()
	}
}

// Package repl implements the line-oriented command loop of the simulator.
//
// Commands:
//
//	cr <amount>           create a process requesting <amount> units
//	dl <pid>              delete process <pid>
//	cv <pid> <virtual>    convert a virtual address of <pid> to a physical one
//	pm                    print the memory map
//	st                    print allocation statistics
//	init <total> <strat>  start over with a new address space
//	help                  list commands
//	q                     quit
package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/joshuapare/mmusim/mmu/alloc"
	"github.com/joshuapare/mmusim/mmu/printer"
)

// Help is the command summary printed by the help command.
const Help = `Commands:
  cr [AMOUNT]                      - Create a process requesting [AMOUNT] of memory
  dl [PROCESS_ID]                  - Delete the process with [PROCESS_ID]
  cv [PROCESS_ID] [VIRTUAL_ADDRESS] - Convert virtual address for a process
  pm                               - Print the memory map
  st                               - Print memory statistics
  init [TOTAL] [STRATEGY]          - Reinitialize memory (strategy 1-4 or name)
  help                             - Show this help
  q                                - Quit
`

// Config wires a Loop to its input, output and presentation options.
type Config struct {
	In      io.Reader
	Out     io.Writer
	Prompt  string // Printed before each line; empty disables the prompt
	Printer printer.Options
	Logger  *slog.Logger

	// EngineLogging hands Logger to allocators created by init.
	EngineLogging bool
}

// Loop reads commands and applies them to the allocator it owns.
type Loop struct {
	a      *alloc.Allocator
	in     *bufio.Reader
	out    io.Writer
	prompt string
	pr     *printer.Printer
	log    *slog.Logger

	engineLogging bool
}

// New creates a loop operating on a.
func New(a *alloc.Allocator, cfg Config) *Loop {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Loop{
		a:      a,
		in:     bufio.NewReader(cfg.In),
		out:    cfg.Out,
		prompt: cfg.Prompt,
		pr:     printer.New(cfg.Out, cfg.Printer),
		log:    log,

		engineLogging: cfg.EngineLogging,
	}
}

// Allocator returns the allocator currently owned by the loop. It changes
// after an init command.
func (l *Loop) Allocator() *alloc.Allocator { return l.a }

// Run processes commands until input ends or a quit command is read.
func (l *Loop) Run() error {
	for {
		if l.prompt != "" {
			fmt.Fprint(l.out, l.prompt)
		}
		// Lines have no length limit; an overlong one is just an invalid command.
		line, err := l.in.ReadString('\n')
		if line == "" && err != nil {
			if l.prompt != "" {
				fmt.Fprintln(l.out)
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if quit := l.Exec(line); quit {
			return nil
		}
	}
}

// Exec runs a single command line and reports whether it asked to quit.
// Errors are printed, never returned: a bad command does not end the session.
func (l *Loop) Exec(line string) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	cmd, args := strings.ToLower(fields[0]), fields[1:]
	l.log.Debug("command", "cmd", cmd, "args", args)

	switch {
	case cmd == "cr" && len(args) == 1:
		l.create(args[0])
	case cmd == "dl" && len(args) == 1:
		l.delete(args[0])
	case cmd == "cv" && len(args) == 2:
		l.convert(args[0], args[1])
	case cmd == "pm" && len(args) == 0:
		l.report(l.pr.PrintMap(l.a.Snapshot()))
	case cmd == "st" && len(args) == 0:
		l.report(l.pr.PrintStats(l.a.Stats()))
	case cmd == "init" && len(args) == 2:
		l.reinit(args[0], args[1])
	case (cmd == "help" || cmd == "?") && len(args) == 0:
		fmt.Fprint(l.out, Help)
	case cmd == "q" || cmd == "quit" || cmd == "exit":
		return true
	default:
		fmt.Fprintln(l.out, "Invalid command (type help for a list)")
	}
	return false
}

func (l *Loop) create(amount string) {
	size, err := strconv.Atoi(amount)
	if err != nil {
		l.errorf("Requested memory amount must be an integer.")
		return
	}
	p, err := l.a.Allocate(size)
	if err != nil {
		l.fail(err)
		return
	}
	fmt.Fprintf(l.out, "Created process %d with Base=%d and Limit=%d (size %d%s)\n",
		p.ID, p.Base, p.Limit, p.Size, l.pr.Options().Unit)
}

func (l *Loop) delete(pid string) {
	id, err := strconv.Atoi(pid)
	if err != nil {
		l.errorf("Process ID must be an integer.")
		return
	}
	if err := l.a.Free(alloc.ID(id)); err != nil {
		l.fail(err)
		return
	}
	fmt.Fprintf(l.out, "Deleted process %d\n", id)
}

func (l *Loop) convert(pid, virtual string) {
	id, err := strconv.Atoi(pid)
	if err != nil {
		l.errorf("Process ID must be an integer.")
		return
	}
	va, err := strconv.Atoi(virtual)
	if err != nil {
		l.errorf("Virtual address must be an integer.")
		return
	}
	phys, err := l.a.Translate(alloc.ID(id), va)
	if err != nil {
		l.fail(err)
		return
	}
	fmt.Fprintf(l.out, "Physical Address: %d\n", phys)
}

func (l *Loop) reinit(total, strategy string) {
	n, err := strconv.Atoi(total)
	if err != nil {
		l.errorf("Total memory must be an integer.")
		return
	}
	s, err := alloc.ParseStrategy(strategy)
	if err != nil {
		l.fail(err)
		return
	}
	var opts []alloc.Option
	if l.engineLogging {
		opts = append(opts, alloc.WithLogger(l.log))
	}
	a, err := alloc.New(n, s, opts...)
	if err != nil {
		l.fail(err)
		return
	}
	l.a = a
	l.log.Info("allocator reinitialized", "total", n, "strategy", s.String())
	fmt.Fprintf(l.out, "Initialized %d%s of memory using %s\n", n, l.pr.Options().Unit, s)
}

func (l *Loop) report(err error) {
	if err != nil {
		l.fail(err)
	}
}

func (l *Loop) fail(err error) {
	l.log.Debug("command failed", "error", err)
	l.errorf("%s", printer.ErrorMessage(err))
}

func (l *Loop) errorf(format string, args ...any) {
	fmt.Fprintf(l.out, "Error: "+format+"\n", args...)
}

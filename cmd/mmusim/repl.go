package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/joshuapare/mmusim/internal/logger"
	"github.com/joshuapare/mmusim/internal/repl"
	"github.com/joshuapare/mmusim/internal/tty"
	"github.com/joshuapare/mmusim/mmu/alloc"
)

var (
	replScript string
	replBar    int
	replGroup  bool
)

func init() {
	cmd := newReplCmd()
	cmd.Flags().StringVar(&replScript, "script", "", "Read commands from a file instead of stdin")
	cmd.Flags().IntVar(&replBar, "bar", 0, "Draw a map bar of this many columns with pm")
	cmd.Flags().BoolVar(&replGroup, "group", false, "Print numbers with thousands separators")
	rootCmd.AddCommand(cmd)
}

func newReplCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl <total> <strategy>",
		Short: "Run the interactive command loop",
		Long: `The repl command creates an address space of <total> units and reads
commands from stdin. <strategy> is 1-4 or a name (first, next, best, worst).

Commands:
  cr <amount>         create a process
  dl <pid>            delete a process
  cv <pid> <virtual>  convert a virtual address
  pm                  print the memory map
  st                  print statistics

Example:
  mmusim repl 1000 best-fit
  mmusim repl 1000 2 --script workload.txt
  mmusim repl 1000 worst --bar 60`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(args)
		},
	}
	return cmd
}

func runRepl(args []string) error {
	total, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("total memory must be an integer, got %q", args[0])
	}
	strategy, err := alloc.ParseStrategy(args[1])
	if err != nil {
		return err
	}

	engineLogging := logAllocEnabled()
	var opts []alloc.Option
	if engineLogging {
		opts = append(opts, alloc.WithLogger(logger.L))
	}
	a, err := alloc.New(total, strategy, opts...)
	if err != nil {
		return err
	}

	var in io.Reader = os.Stdin
	interactive := tty.IsTerminal(os.Stdin)
	if replScript != "" {
		f, err := os.Open(replScript)
		if err != nil {
			return fmt.Errorf("failed to open script: %w", err)
		}
		defer f.Close()
		in = f
		interactive = false
	}

	popts := printerOptions()
	popts.BarWidth = replBar
	popts.Grouping = replGroup

	prompt := ""
	if interactive {
		prompt = "> "
		printInfo("Memory Management Unit Simulator: %d%s using %s. Type help for commands.\n",
			total, popts.Unit, strategy)
	}
	printVerbose("Initialized %d%s of memory using %s\n", total, popts.Unit, strategy)
	logger.Info("repl started", "total", total, "strategy", strategy.String(), "script", replScript)

	loop := repl.New(a, repl.Config{
		In:            in,
		Out:           os.Stdout,
		Prompt:        prompt,
		Printer:       popts,
		Logger:        logger.L,
		EngineLogging: engineLogging,
	})
	if err := loop.Run(); err != nil {
		return fmt.Errorf("failed to read commands: %w", err)
	}
	return nil
}

package main

import (
	"fmt"
	"log/slog"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/joshuapare/mmusim/internal/logger"
	"github.com/joshuapare/mmusim/internal/tty"
	"github.com/joshuapare/mmusim/mmu/printer"
)

var (
	// Global flags
	verbose  bool
	quiet    bool
	jsonOut  bool
	noColor  bool
	logFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "mmusim",
	Short: "Simulate contiguous memory allocation",
	Long: `mmusim simulates a memory management unit that places processes in a
contiguous address space using first-fit, next-fit, best-fit or worst-fit
placement. It can be driven from an interactive command loop or over HTTP.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogging()
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write JSON logs to this file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Minimum log level (debug, info, warn, error)")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

// logAllocEnabled reports whether allocator placement logging was requested
// through MMUSIM_LOG_ALLOC.
func logAllocEnabled() bool {
	return os.Getenv("MMUSIM_LOG_ALLOC") != ""
}

// initLogging configures logger.L from the global flags. Logging stays
// disabled unless --log-file, --verbose or MMUSIM_LOG_ALLOC is given.
func initLogging() error {
	level, err := logger.ParseLevel(logLevel)
	if err != nil {
		return err
	}

	opts := logger.Options{Level: level}
	switch {
	case logFile != "":
		opts.Enabled = true
		opts.File = logFile
	case verbose:
		opts.Enabled = true
		opts.Console = os.Stderr
	}

	if logAllocEnabled() {
		opts.Level = min(opts.Level, slog.LevelDebug)
		if !opts.Enabled {
			opts.Enabled = true
			opts.Console = os.Stderr
		}
	}
	return logger.Init(opts)
}

// printerOptions builds printer options from the global output flags.
func printerOptions() printer.Options {
	opts := printer.DefaultOptions()
	if jsonOut {
		opts.Format = printer.FormatJSON
	}
	opts.Color = !noColor && tty.IsTerminal(os.Stdout)
	return opts
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

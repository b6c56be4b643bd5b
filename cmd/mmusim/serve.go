package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joshuapare/mmusim/internal/logger"
	"github.com/joshuapare/mmusim/internal/server"
	"github.com/joshuapare/mmusim/mmu/alloc"
	"github.com/joshuapare/mmusim/mmu/session"
)

const (
	defaultAddr  = ":5000"
	defaultTotal = 10000
)

var (
	serveAddr     string
	serveTotal    int
	serveStrategy string
)

func init() {
	cmd := newServeCmd()
	cmd.Flags().StringVar(&serveAddr, "addr", envOr("MMUSIM_ADDR", defaultAddr), "Listen address (env MMUSIM_ADDR)")
	cmd.Flags().IntVar(&serveTotal, "total", defaultTotal, "Initial total memory")
	cmd.Flags().StringVar(&serveStrategy, "strategy", alloc.FirstFit.String(), "Initial placement strategy")
	rootCmd.AddCommand(cmd)
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the simulator over HTTP",
		Long: `The serve command starts a web front-end sharing one simulated address
space between all clients. The instance can be replaced from the form at /.

Example:
  mmusim serve
  mmusim serve --addr 127.0.0.1:8080 --total 4096 --strategy best`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
	return cmd
}

func runServe(ctx context.Context) error {
	strategy, err := alloc.ParseStrategy(serveStrategy)
	if err != nil {
		return err
	}

	mgr, err := session.NewManager(serveTotal, strategy,
		session.WithLogger(logger.L),
		session.WithEngineLogging(logAllocEnabled()))
	if err != nil {
		return err
	}

	srv, err := server.New(mgr, logger.L)
	if err != nil {
		return err
	}

	printInfo("Serving %dKB using %s on %s\n", serveTotal, strategy, serveAddr)
	printVerbose("Instance %s\n", mgr.Info().ID)
	return srv.Run(ctx, serveAddr)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

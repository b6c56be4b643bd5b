// Package server exposes a shared allocator over HTTP: an HTML form to
// (re)initialize memory, a management page, a form-driven operation endpoint
// answering JSON, and JSON listings of the memory map.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joshuapare/mmusim/mmu/session"
)

//go:embed templates/*.html static/*
var assets embed.FS

const shutdownTimeout = 5 * time.Second

// Server routes HTTP requests to a session.Manager.
type Server struct {
	mgr  *session.Manager
	log  *slog.Logger
	tmpl *template.Template
	mux  *http.ServeMux
}

// New creates a server for mgr. A nil logger discards output.
func New(mgr *session.Manager, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"deref": func(p *int) int { return *p },
	}).ParseFS(assets, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("server: parse templates: %w", err)
	}

	static, err := fs.Sub(assets, "static")
	if err != nil {
		return nil, fmt.Errorf("server: static assets: %w", err)
	}

	s := &Server{mgr: mgr, log: log, tmpl: tmpl, mux: http.NewServeMux()}

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /{$}", s.handleInitialize)
	s.mux.HandleFunc("GET /manage_memory", s.handleManage)
	s.mux.HandleFunc("POST /operation", s.handleOperation)
	s.mux.HandleFunc("GET /memory_blocks", s.handleMemoryBlocks)
	s.mux.HandleFunc("GET /memory_map", s.handleMemoryMap)
	s.mux.HandleFunc("GET /stats", s.handleStats)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))

	return s, nil
}

// Handler returns the routed handler wrapped with request logging.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// Run listens on addr and serves until ctx is canceled.
func (s *Server) Run(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.log.Handler(), slog.LevelError),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/kazukitoyoda1215-max/Supporton/internal/api"
	"github.com/kazukitoyoda1215-max/Supporton/internal/console"
	"github.com/kazukitoyoda1215-max/Supporton/internal/mcpserver"
	"github.com/kazukitoyoda1215-max/Supporton/internal/sheets"
	"github.com/kazukitoyoda1215-max/Supporton/internal/sse"
	"github.com/kazukitoyoda1215-max/Supporton/internal/storage"
	"github.com/kazukitoyoda1215-max/Supporton/internal/store"
)

const watchDebounce = 500 * time.Millisecond

func newApplication(opts []Option) (*application, *slog.Logger, error) {
	app := &application{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return app, logger, nil
}

// openConsole opens the store and mirror and loads the console state.
// The returned close function releases the store.
func (a *application) openConsole(ctx context.Context, logger *slog.Logger, extra ...console.Option) (*console.Service, func(), error) {
	cfg := a.config

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init store: %w", err)
	}

	opts := []console.Option{
		console.WithLogger(logger),
		console.WithAuth(cfg.Auth.Options()),
		console.WithMaterials(cfg.Materials.Catalog()),
	}
	if cfg.Mirror.Path != "" {
		mirror, err := storage.NewFS(cfg.Mirror.Path)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("init mirror: %w", err)
		}
		opts = append(opts, console.WithMirror(mirror))
	}
	opts = append(opts, extra...)

	svc := console.NewService(db, sheets.NewFetcher(cfg.Sheets.Timeout()), opts...)
	if err := svc.Load(ctx, cfg.Sheets.Seed()); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("load console: %w", err)
	}
	return svc, func() { db.Close() }, nil
}

// Run starts the HTTP server with the given options. It returns once ctx is
// cancelled or SIGINT/SIGTERM is received and every worker has stopped.
func Run(ctx context.Context, opts ...Option) error {
	app, logger, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("mirror_path", cfg.Mirror.Path),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svc, closeConsole, err := app.openConsole(ctx, logger, console.WithPublisher(broker))
	if err != nil {
		return err
	}
	defer closeConsole()

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api; /api/events is served by the broker.
	r.Mount("/api", api.NewRouter(svc, broker))

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Re-sync when local sheet files change.
	if cfg.Sheets.Watch {
		g.Go(func() error {
			current := svc.Config()
			sources := []string{current.FlowSheetURL, current.FlowConfigSheetURL, current.PhoneSheetURL}
			err := sheets.Watch(gCtx, sources, watchDebounce, logger, func() {
				if !svc.Config().UseGoogleSheets {
					return
				}
				if _, err := svc.Sync(gCtx); err != nil {
					logger.Warn("watch sync failed", slog.String("error", err.Error()))
				}
			})
			if err != nil {
				logger.Warn("sheet watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Shut down on signal, parent cancellation or a failed worker. gCtx is
	// shared with the watcher, so it stops on the same trigger.
	g.Go(func() error {
		<-gCtx.Done()
		if ctx.Err() != nil {
			logger.Info("Received shutdown signal", slog.String("cause", context.Cause(ctx).Error()))
		} else {
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the console tools over MCP stdio.
func RunMCP(ctx context.Context, opts ...Option) error {
	opts = append([]Option{WithLogOutput(os.Stderr)}, opts...)
	app, logger, err := newApplication(opts)
	if err != nil {
		return err
	}
	svc, closeConsole, err := app.openConsole(ctx, logger)
	if err != nil {
		return err
	}
	defer closeConsole()

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(svc).ServeStdio()
}

// Export kinds.
const (
	ExportFlow   = "flow"
	ExportPhones = "phones"
)

// Export writes the current flow tree or phone directory as CSV. With an
// empty outDir it writes to w; otherwise to <outDir>/<kind>.csv.
func Export(ctx context.Context, kind, outDir string, w io.Writer, opts ...Option) error {
	opts = append([]Option{WithLogOutput(os.Stderr)}, opts...)
	app, logger, err := newApplication(opts)
	if err != nil {
		return err
	}
	svc, closeConsole, err := app.openConsole(ctx, logger)
	if err != nil {
		return err
	}
	defer closeConsole()

	var data []byte
	switch kind {
	case ExportFlow:
		data, err = svc.ExportFlowCSV()
	case ExportPhones:
		data, err = svc.ExportPhonesCSV()
	default:
		return fmt.Errorf("export: unknown kind %q (want %s or %s)", kind, ExportFlow, ExportPhones)
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", kind, err)
	}

	if outDir == "" {
		_, err = w.Write(data)
		return err
	}
	out, err := storage.NewFS(outDir)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := out.Write(kind+".csv", data); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	logger.Info("export written", slog.String("kind", kind), slog.String("dir", outDir))
	return nil
}

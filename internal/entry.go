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

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/starford/stickies/internal/api"
	"github.com/starford/stickies/internal/canvas"
	"github.com/starford/stickies/internal/kvstore"
	"github.com/starford/stickies/internal/mcpserver"
	"github.com/starford/stickies/internal/persist"
	"github.com/starford/stickies/internal/sse"
	"github.com/starford/stickies/internal/tui"
)

// watchRetry is the pause before re-opening a failed change watch.
const watchRetry = 5 * time.Second

func newApplication(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// fileLogger returns the configured logger or a JSON logger writing to the
// rotated log file. Used by hosts that own stdout.
func (app *application) fileLogger() *slog.Logger {
	if app.logger != nil {
		return app.logger
	}
	out := app.logOutput
	if out == nil {
		out = &lumberjack.Logger{
			Filename:   app.config.App.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
}

// Run starts the notes KV service with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("kv_backend", cfg.KV.Backend),
		slog.Duration("kv_cache_ttl", cfg.KV.Cache.TTL),
		slog.Bool("auth_enabled", cfg.Auth.AuthEnabled()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	kv, err := openKV(ctx, cfg.KV)
	if err != nil {
		return err
	}
	defer kv.Close()

	// SSE broker.
	broker := sse.NewBroker(30 * time.Second)
	defer broker.Close()

	// Build API service and router.
	svc := api.NewService(kv, broker, cfg.Board.DataKey, logger)
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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

	// The storage endpoint lives at the root: POST / and /{authKey}/{dataKey}.
	r.Mount("/", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Event streams never finish on their own; closing the broker ends them.
		broker.Close()

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

// openKV opens the configured store, wrapped in the read cache when enabled.
func openKV(ctx context.Context, cfg KVConfig) (kvstore.Provider, error) {
	var (
		kv  kvstore.Provider
		err error
	)
	switch cfg.Backend {
	case KVBackendRedis:
		kv, err = kvstore.OpenRedis(ctx, kvstore.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	default:
		kv, err = kvstore.OpenSQLite(cfg.SQLite.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("init kv store: %w", err)
	}
	if cfg.Cache.TTL > 0 {
		kv = kvstore.NewCached(kv, cfg.Cache.TTL)
	}
	return kv, nil
}

// newBackend builds the board's persistence collaborator.
func newBackend(cfg BoardConfig, logger *slog.Logger) (persist.Backend, error) {
	switch cfg.Backend {
	case BoardBackendFile:
		f, err := persist.NewFile(cfg.FilePath, persist.WithFileLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("init file backend: %w", err)
		}
		return f, nil
	default:
		opts := []persist.HTTPOption{
			persist.WithTimeout(cfg.Timeout),
			persist.WithHTTPLogger(logger),
		}
		if cfg.Token != "" {
			opts = append(opts, persist.WithToken(cfg.Token))
		}
		return persist.NewHTTP(cfg.Endpoint, cfg.AuthKey, opts...), nil
	}
}

// watchChanges forwards external change notifications to changes until ctx
// is done, re-opening the watch after failures. Notifications coalesce: a
// pending one is not duplicated.
func watchChanges(ctx context.Context, w persist.Watcher, key string, changes chan<- struct{}, logger *slog.Logger) {
	notify := func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	}
	for {
		err := w.Watch(ctx, key, notify)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			logger.Warn("board: change watch failed", slog.String("error", err.Error()))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(watchRetry):
		}
	}
}

// RunBoard starts the terminal board against the configured backend.
func RunBoard(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := app.fileLogger()
	slog.SetDefault(logger)

	backend, err := newBackend(cfg.Board, logger)
	if err != nil {
		return err
	}
	store := canvas.NewStore(backend, cfg.Board.DataKey, canvas.WithLogger(logger))
	board := canvas.NewBoard(store, nil)

	logger.Info("board: starting",
		slog.String("backend", cfg.Board.Backend),
		slog.String("key", cfg.Board.DataKey))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	changes := make(chan struct{}, 1)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		watchChanges(gCtx, backend, cfg.Board.DataKey, changes, logger)
		return nil
	})

	model := tui.NewModel(board,
		tui.WithCellSize(cfg.Board.CellWidth, cfg.Board.CellHeight),
		tui.WithTimeout(cfg.Board.Timeout),
		tui.WithLogger(logger),
		tui.WithChanges(changes),
	)
	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(gCtx),
	)
	_, runErr := program.Run()
	cancel()
	_ = g.Wait()

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		logger.Error("board: stopped", slog.String("error", runErr.Error()))
		return fmt.Errorf("board: %w", runErr)
	}
	logger.Info("board: stopped")
	return nil
}

// RunMCP serves the note tools over stdio against the configured backend.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := app.fileLogger()
	slog.SetDefault(logger)

	backend, err := newBackend(cfg.Board, logger)
	if err != nil {
		return err
	}
	srv := mcpserver.New(backend, cfg.Board.DataKey, logger)

	logger.Info("mcp: serving on stdio",
		slog.String("backend", cfg.Board.Backend),
		slog.String("key", cfg.Board.DataKey))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ServeStdio() }()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("mcp: %w", err)
		}
		return nil
	case <-ctx.Done():
		return nil
	}
}

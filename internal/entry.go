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

	"github.com/starford/bignote/internal/api"
	"github.com/starford/bignote/internal/editor"
	"github.com/starford/bignote/internal/index"
	"github.com/starford/bignote/internal/mcpserver"
	"github.com/starford/bignote/internal/noteservice"
	"github.com/starford/bignote/internal/notice"
	"github.com/starford/bignote/internal/prompt"
	"github.com/starford/bignote/internal/spawn"
	"github.com/starford/bignote/internal/sse"
	"github.com/starford/bignote/internal/storage"
)

// runtime holds the components shared by every command.
type runtime struct {
	app    *application
	logger *slog.Logger
	store  *storage.FS
	db     *index.DB
	svc    *noteservice.Service
}

func (rt *runtime) Close() {
	if err := rt.db.Close(); err != nil {
		rt.logger.Warn("close index", slog.String("error", err.Error()))
	}
}

// bootstrap applies opts and opens the vault and its index. Logs go to
// logOut unless WithLogOutput overrides it.
func bootstrap(opts []Option, logOut io.Writer) (*runtime, error) {
	app := &application{in: os.Stdin, out: os.Stdout, logOut: logOut}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("metadata_source", cfg.Metadata.Source),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	svc := noteservice.NewService(store, db, logger,
		noteservice.WithMetadataSource(cfg.Metadata.Source),
		noteservice.WithSpawnOptions(spawn.WithJournalHeading(cfg.Spawn.JournalHeading)),
	)

	return &runtime{app: app, logger: logger, store: store, db: db, svc: svc}, nil
}

// Run starts the HTTP server and the vault watcher.
func Run(ctx context.Context, opts ...Option) error {
	rt, err := bootstrap(opts, os.Stdout)
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg := rt.app.config
	logger := rt.logger

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()
	rt.svc.SetSpawnHook(broker.PublishSpawned)

	apiRouter := api.NewRouter(rt.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := rt.svc.Tree(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"vault unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Keep the index current and fan vault changes out to SSE clients.
	g.Go(func() error {
		return index.Watch(gCtx, rt.db, rt.store, rt.store.Root(), logger, broker.PublishNoteEvent)
	})

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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// ServeMCP serves the MCP tools on stdin/stdout. Logs go to stderr so they
// never interleave with the protocol stream.
func ServeMCP(_ context.Context, opts ...Option) error {
	rt, err := bootstrap(opts, os.Stderr)
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.logger.Info("Starting MCP server on stdio")
	return mcpserver.New(rt.store, rt.svc).ServeStdio()
}

// SpawnNote interactively spawns a note from origin. With outside set the
// origin may be any note and the user picks the target cluster.
func SpawnNote(ctx context.Context, origin string, outside bool, cursor editor.Cursor, opts ...Option) error {
	rt, err := bootstrap(opts, os.Stderr)
	if err != nil {
		return err
	}
	defer rt.Close()

	out := notice.New(rt.app.out)
	p := rt.app.prompt
	if p == nil {
		p = prompt.NewTerminal(prompt.WithIO(rt.app.in, rt.app.out))
	}

	res, err := rt.svc.RunSpawn(ctx, p, origin, outside, cursor)
	if err != nil {
		out.Error(err)
		return err
	}
	out.Success("Spawned " + res.Basename)
	out.Detail("note", res.Path)
	out.Detail("index", res.IndexPath)
	out.Detail("origin", res.Origin)
	out.Detail("line", res.Line)
	return nil
}

// ListClusters prints every cluster and its category folders.
func ListClusters(ctx context.Context, opts ...Option) error {
	rt, err := bootstrap(opts, os.Stderr)
	if err != nil {
		return err
	}
	defer rt.Close()

	out := notice.New(rt.app.out)
	clusters, err := rt.svc.Clusters(ctx)
	if err != nil {
		out.Error(err)
		return err
	}
	if len(clusters) == 0 {
		out.Warning("no clusters in " + rt.store.Root())
		return nil
	}
	for _, c := range clusters {
		out.Success(c.Path)
		out.Detail("index", c.IndexPath)
		for _, cat := range c.Categories {
			out.Detail(cat.Folder, fmt.Sprintf("%d notes, next %s", cat.Notes, cat.NextID))
		}
	}

	dups, err := rt.svc.Duplicates(ctx)
	if err != nil {
		rt.logger.Warn("duplicate check failed", slog.String("error", err.Error()))
		return nil
	}
	for _, d := range dups {
		target := d.Resolved
		if target == "" {
			target = "no note in the current tree"
		}
		out.Warning(fmt.Sprintf("basename %q is shared by %d notes; links resolve to %s",
			d.Basename, len(d.Paths), target))
	}
	return nil
}

// Classify prints the cluster roles of a vault path.
func Classify(ctx context.Context, path string, opts ...Option) error {
	rt, err := bootstrap(opts, os.Stderr)
	if err != nil {
		return err
	}
	defer rt.Close()

	out := notice.New(rt.app.out)
	rep, err := rt.svc.Classify(ctx, path)
	if err != nil {
		out.Error(err)
		return err
	}
	if len(rep.Roles) == 0 {
		out.Warning(rep.Path + " plays no cluster role")
	}
	for _, role := range rep.Roles {
		out.Success(string(role))
	}
	if rep.ContextType != nil {
		out.Detail("context type", rep.ContextType.Singular)
	}
	if rep.IndexPath != "" {
		out.Detail("index", rep.IndexPath)
	}
	if rep.Reason != "" {
		out.Detail("reason", rep.Reason)
	}
	return nil
}

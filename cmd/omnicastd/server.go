package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vmunix/omnicast/internal/adapters/catalog"
	"github.com/vmunix/omnicast/internal/adapters/fsmedia"
	"github.com/vmunix/omnicast/internal/adapters/plex"
	v1 "github.com/vmunix/omnicast/internal/api/v1"
	"github.com/vmunix/omnicast/internal/config"
	"github.com/vmunix/omnicast/internal/dirindex"
	"github.com/vmunix/omnicast/internal/migrations"
	"github.com/vmunix/omnicast/internal/proxy"
	"github.com/vmunix/omnicast/internal/queue"
	"github.com/vmunix/omnicast/internal/refparse"
	"github.com/vmunix/omnicast/internal/registry"
	"github.com/vmunix/omnicast/internal/server"
	"github.com/vmunix/omnicast/internal/watchstate"
)

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 200 { // Only capture first WriteHeader call
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func runServer(configPath string) error {
	// Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "config: %s\n", e)
		}
		return fmt.Errorf("config: %d problem(s)", len(errs))
	}

	// Create logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))

	// Ensure database directory exists
	dbDir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}

	// Open database
	db, err := sql.Open("sqlite", cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() { _ = db.Close() }()

	// Run migrations
	if err := migrations.Apply(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// === Sources ===
	reg := registry.New()
	var index *dirindex.Index
	var folders refparse.FolderResolver
	defaultSource := ""

	if cfg.Sources.Media != nil {
		index, err = dirindex.New(cfg.Sources.Media.Root, logger.With("component", "dirindex"))
		if err != nil {
			return fmt.Errorf("index media root: %w", err)
		}
		fs := fsmedia.New(cfg.Sources.Media.Root, index, logger)
		if err := reg.Register(fs); err != nil {
			return fmt.Errorf("register media: %w", err)
		}
		folders = fs
		defaultSource = fs.Name()
	}

	if cfg.Sources.Plex != nil {
		px := plex.New(cfg.Sources.Plex.URL, cfg.Sources.Plex.Token, logger)
		if err := reg.Register(px); err != nil {
			return fmt.Errorf("register plex: %w", err)
		}
		if defaultSource == "" {
			defaultSource = px.Name()
		}
	}

	if cfg.Sources.Catalog != nil {
		cat := catalog.New(cfg.Sources.Catalog.Root, logger)
		if err := reg.Register(cat); err != nil {
			return fmt.Errorf("register catalog: %w", err)
		}
		if defaultSource == "" {
			defaultSource = cat.Name()
		}
	}

	// === Services ===
	states := watchstate.NewStore(db)
	queueSvc := queue.New(reg, states, logger)
	parser := refparse.New(reg, defaultSource, folders, logger)

	// === HTTP Setup ===
	mux := http.NewServeMux()
	v1.New(reg, parser, queueSvc).RegisterRoutes(mux)
	proxy.New(reg, cfg.Cache.Dir, logger).RegisterRoutes(mux)
	handler := v1.RequestID(logRequests(mux, logger))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("server starting",
		"addr", addr,
		"database", cfg.Database.Path,
		"sources", reg.Sources(),
		"log_level", cfg.Server.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := server.NewRunner(addr, handler, index, logger)
	if err := runner.Run(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

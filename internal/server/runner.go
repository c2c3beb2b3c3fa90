// Package server manages the gateway's long-running components.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vmunix/omnicast/internal/dirindex"
)

const shutdownTimeout = 30 * time.Second

// Runner runs the HTTP server and the directory index watcher as one unit.
// A failure in either tears the whole group down.
type Runner struct {
	addr    string
	handler http.Handler
	index   *dirindex.Index // nil when no filesystem source is configured
	logger  *slog.Logger
}

// NewRunner creates a new runner.
func NewRunner(addr string, handler http.Handler, index *dirindex.Index, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		addr:    addr,
		handler: handler,
		index:   index,
		logger:  logger.With("component", "server"),
	}
}

// Run starts all components.
// It blocks until the context is canceled or an error occurs.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	srv := &http.Server{Addr: r.addr, Handler: r.handler}

	g.Go(func() error {
		r.logger.Info("http server starting", "addr", r.addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if r.index != nil {
		g.Go(func() error {
			return r.index.Watch(ctx)
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

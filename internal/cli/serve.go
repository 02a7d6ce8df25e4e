package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aretw0/gamebook/internal/config"
	gbhttp "github.com/aretw0/gamebook/pkg/adapters/http"
	"github.com/aretw0/gamebook/pkg/domain"
	"golang.org/x/sync/errgroup"
)

// ServeOptions configures Serve.
type ServeOptions struct {
	Addr  string
	Debug bool

	// WatchPath, when set, is imported into WatchSession on start and on every change.
	WatchPath    string
	WatchSession string

	Out io.Writer
}

// Serve runs the HTTP API until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, cfg *config.Config, opts ServeOptions) error {
	// Session diffs reach the SSE streams of a server built after the engine.
	var srv *gbhttp.Server
	streams := domain.LifecycleHooks{
		OnSessionChanged: func(ctx context.Context, d *domain.SessionDiff) {
			if srv != nil {
				srv.Hooks().OnSessionChanged(ctx, d)
			}
		},
	}

	env, err := Setup(cfg, opts.Debug, streams)
	if err != nil {
		return err
	}
	defer env.Close()

	srv = gbhttp.NewServer(env.Engine,
		gbhttp.WithLogger(env.Logger),
		gbhttp.WithRateLimit(cfg.HTTP.RateLimit, cfg.HTTP.Burst),
		gbhttp.WithGatherer(env.Registry),
	)

	addr := opts.Addr
	if addr == "" {
		addr = cfg.HTTP.Addr
	}
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		printSystemMessage(opts.Out, "Starting gamebook server on %s", addr)
		env.Logger.Info("HTTP server listening", "addr", addr, "driver", cfg.Store.Driver)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()

		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			env.Logger.Warn("Graceful shutdown did not complete", "timeout", cfg.HTTP.ShutdownTimeout, "err", err)
			if err := httpSrv.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		printSystemMessage(opts.Out, "gamebook server stopped gracefully")
		return nil
	})

	if opts.WatchPath != "" {
		session := opts.WatchSession
		if session == "" {
			session = cfg.Session
		}
		g.Go(func() error {
			return WatchImport(gctx, env, session, opts.WatchPath)
		})
	}

	return g.Wait()
}

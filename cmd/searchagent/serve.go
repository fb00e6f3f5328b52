package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m4xw311/searchagent/config"
	"github.com/m4xw311/searchagent/errors"
	"github.com/m4xw311/searchagent/observability"
	"github.com/m4xw311/searchagent/server"
	"github.com/spf13/cobra"
)

func serveCmd(load func() (*config.Config, error)) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve GET /search over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	handler := server.New(a.service, server.Options{
		RequestTimeout: cfg.Server.RequestTimeout,
		Metrics:        a.obs.Handler(),
		Health:         observability.HealthHandler(Version, cfg.LLMClient, a.provider.Name(), string(cfg.Agent.Mode)),
		Recorder:       a.obs.Metrics,
	})
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("server.listening", "addr", cfg.Server.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrapf(err, "server failed")
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("server.shutting_down", "grace", cfg.Server.ShutdownGrace)
	// Queued requests are rejected with 503; the run in progress may finish.
	a.service.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrapf(err, "graceful shutdown failed")
	}
	return nil
}

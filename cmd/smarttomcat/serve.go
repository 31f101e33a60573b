package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/thawee/SmartTomcat/internal/engine"
	"github.com/thawee/SmartTomcat/internal/shell/api"
	"github.com/thawee/SmartTomcat/internal/shell/store"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve exposes the link, relink, profile and server operations over
HTTP until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withDeployer(func(s store.Store, d *engine.Deployer) error {
				handler := api.NewHandler(s, d, a.cfg.EngineConfig().ProfileKey().KindID, a.logger).
					WithToken(a.cfg.API.Token)
				if a.cfg.API.Token == "" && a.cfg.API.Host != "127.0.0.1" && a.cfg.API.Host != "localhost" {
					a.logger.Warn("API listening without a token", "address", a.cfg.API.Address())
				}
				srv := &Server{
					config: a.cfg.API,
					logger: a.logger,
					httpServer: &http.Server{
						Addr:         a.cfg.API.Address(),
						Handler:      handler.Routes(),
						ReadTimeout:  a.cfg.API.ReadTimeout,
						WriteTimeout: a.cfg.API.WriteTimeout,
					},
				}
				return srv.Start(contextOf(cmd))
			})
		},
	}
	cmd.Flags().StringVar(&a.apiHost, "host", "", "listen host (overrides api.host)")
	cmd.Flags().IntVar(&a.apiPort, "port", 0, "listen port (overrides api.port)")
	cmd.PreRun = func(_ *cobra.Command, _ []string) {
		if a.apiHost != "" {
			a.cfg.API.Host = a.apiHost
		}
		if a.apiPort != 0 {
			a.cfg.API.Port = a.apiPort
		}
	}
	return cmd
}

// =============================================================================
// Server
// =============================================================================

// Server runs the HTTP API until a signal or context cancellation.
type Server struct {
	config     APIConfig
	logger     *slog.Logger
	httpServer *http.Server
}

// Start serves HTTP and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "address", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case sig := <-sigCh:
		s.logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		return &CommandError{
			Op:       "serve",
			Err:      err,
			ExitCode: ExitHTTPServerError,
		}
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return &CommandError{Op: "shutdown", Err: err, ExitCode: ExitHTTPServerError}
	}

	s.logger.Info("shutdown complete")
	return nil
}

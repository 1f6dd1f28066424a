package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/reelmatch/reelmatch/internal/handlers"
	"github.com/reelmatch/reelmatch/internal/recommend"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the recommendation API server",
		Long: `Loads the catalog and serves the JSON recommendation API.

If the catalog directory is missing or fails validation, the built-in
five movie sample catalog is served instead and /readyz reports degraded.`,
		Example: `  # Start server on default port 8888
  reelmatch serve

  # Start server on custom port
  reelmatch serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			svc, err := newService(cfg)
			if err != nil {
				return err
			}
			if svc.State() != recommend.StateReady {
				return recommend.ErrNotReady
			}

			handler := handlers.New(svc, cfg.Recommend.BrowseSize)
			router := handlers.NewRouter(handler, handlers.RouterConfig{
				RateLimitRequests: cfg.Server.RateLimitRequests,
				RateLimitWindow:   cfg.Server.RateLimitWindow,
			})

			addr := cfg.Server.Addr()
			server := &http.Server{
				Addr:    addr,
				Handler: router,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Reelmatch API available", "addr", addr, "movies", svc.Catalog().Len())
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8888, "Port to listen on")

	return cmd
}

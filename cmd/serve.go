package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/fabula-rasa/fabula/internal/handlers"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the reading calendar as JSON",
		Long: `Starts a read-only HTTP server exposing each profile's selected books
as calendar events.

  GET /api/events                     current profile
  GET /api/profiles/{profile}/events  a named profile
  GET /api/profiles                   profile names
  GET /healthcheck`,
		Example: `  # Listen on the configured address (default :8888)
  fabula serve

  # Listen on a custom address
  fabula serve --addr 127.0.0.1:3000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.settings.Serve.Address
			}
			handler := handlers.New(a.manager)

			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Calendar available", "addr", addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
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

	cmd.Flags().StringVar(&addr, "addr", "", "Address to listen on (default from settings, :8888)")

	return cmd
}

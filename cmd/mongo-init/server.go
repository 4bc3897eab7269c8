package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"
)

var bootstrapOnStart bool

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the mongo-init HTTP API server",
	Long: `Start the mongo-init HTTP server on the configured port (default :8081).

The server exposes bootstrap, health and readiness endpoints. With
--bootstrap it also runs one bootstrap as soon as it is listening. It shuts
down cleanly on SIGTERM or SIGINT.`,
	Annotations: map[string]string{needsApp: "true"},
	RunE:        runServer,
}

func init() {
	serverCmd.Flags().BoolVar(&bootstrapOnStart, "bootstrap", false, "run the bootstrap once at startup")
}

func runServer(cmd *cobra.Command, args []string) error {
	defer app.Close()
	ctx := cmd.Context()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      app.router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("mongo-init server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	if bootstrapOnStart {
		go func() {
			runCtx, cancel := context.WithTimeout(ctx, cfg.Bootstrap.Timeout)
			defer cancel()
			if _, err := app.orchestrator.RunBootstrap(runCtx); err != nil {
				slog.Error("startup bootstrap failed", "err", err)
			}
		}()
	}

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped cleanly")
	return nil
}

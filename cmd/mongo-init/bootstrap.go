package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"vivbliss/mongo-init/internal/orchestrator"

	"github.com/spf13/cobra"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create the application user and exit",
	Long: `Bootstrap issues a single createUser command on the target database,
granting the application user readWrite on that database only.

The command prints a JSON result to stdout and exits 0 on success or
non-zero on failure, including when the user already exists.`,
	Annotations: map[string]string{needsApp: "true"},
	RunE:        runBootstrap,
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	defer app.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Bootstrap.Timeout)
	defer cancel()

	slog.InfoContext(ctx, "starting bootstrap")

	result, err := app.orchestrator.RunBootstrap(ctx)
	if result != nil {
		writeJSON(os.Stdout, result)
	}
	if err != nil {
		return fmt.Errorf("bootstrap failed: %w", err)
	}

	slog.InfoContext(ctx, "bootstrap completed successfully")
	return nil
}

func writeJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		slog.Error("encoding result", "err", err)
	}
}

// statusOf is used by check to mirror the bootstrap result shape.
func statusOf(healthy bool) string {
	if healthy {
		return orchestrator.StatusOK
	}
	return orchestrator.StatusError
}

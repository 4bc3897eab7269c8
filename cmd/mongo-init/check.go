package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"vivbliss/mongo-init/internal/api"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe MongoDB (and Redis, if configured) and exit",
	Long: `Check pings every configured dependency, prints the probe results as
JSON and exits non-zero if any dependency is unhealthy. It makes no changes
and is suitable as a container health check.`,
	Annotations: map[string]string{needsApp: "true"},
	RunE:        runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	defer app.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Mongo.ConnectTimeout)
	defer cancel()

	probes := app.orchestrator.RunDeepHealth(ctx)
	healthy := api.AllHealthy(probes)

	writeJSON(os.Stdout, map[string]any{
		"status":       statusOf(healthy),
		"dependencies": probes,
	})

	if !healthy {
		slog.WarnContext(ctx, "dependency check failed")
		return errors.New("one or more dependencies are unhealthy")
	}
	return nil
}

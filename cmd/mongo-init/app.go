package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"vivbliss/mongo-init/internal/api"
	"vivbliss/mongo-init/internal/bootstrap"
	"vivbliss/mongo-init/internal/clients"
	"vivbliss/mongo-init/internal/config"
	"vivbliss/mongo-init/internal/orchestrator"
	"vivbliss/mongo-init/internal/telemetry"
)

// AppContext holds all constructed application dependencies shared across
// subcommands. It is built once in PersistentPreRunE and released with Close.
type AppContext struct {
	cfg          *config.Config
	otelProvider *telemetry.Provider
	mongo        *clients.MongoClient
	orchestrator *orchestrator.Orchestrator
	router       *api.Router
}

// buildAppContext constructs all application dependencies from cfg:
//  1. Initialises the OTEL provider (best-effort, non-fatal)
//  2. Opens the administrative MongoDB client (no command sent yet)
//  3. Creates the optional Redis probe
//  4. Creates the orchestrator with the resolved account settings
//  5. Creates the HTTP router
func buildAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	app := &AppContext{cfg: cfg}

	tp, err := telemetry.InitProvider(ctx, cfg.Telemetry, version)
	switch {
	case errors.Is(err, telemetry.ErrDisabled):
		slog.Debug("OTEL telemetry disabled (no endpoint configured)")
	case err != nil:
		slog.Warn("OTEL provider init failed, telemetry disabled", "err", err)
	default:
		app.otelProvider = tp
	}

	mongo, err := clients.NewMongoClient(ctx, cfg.Mongo, clients.NewMongoCircuitBreaker("mongo"))
	if err != nil {
		return nil, err
	}
	app.mongo = mongo

	redis, err := clients.NewRedisClient(cfg.Redis, clients.NewCircuitBreaker("redis"))
	if err != nil {
		mongo.Close(ctx) //nolint:errcheck
		return nil, err
	}

	// A nil *RedisClient must not become a non-nil interface.
	var redisProber orchestrator.Prober
	if redis != nil {
		redisProber = redis
	}

	app.orchestrator = orchestrator.New(mongo, redisProber, settingsFrom(cfg.Mongo))
	app.router = api.NewRouter(app.orchestrator, cfg.Telemetry.ServiceName, cfg.Bootstrap.Timeout)

	return app, nil
}

// settingsFrom takes the resolved application account out of the config. It
// is the only place the bootstrap settings are built.
func settingsFrom(m config.MongoConfig) bootstrap.Settings {
	return bootstrap.Settings{
		Database: m.Database,
		Username: m.AppUsername,
		Password: m.AppPassword,
	}
}

// Close disconnects from MongoDB and flushes telemetry.
func (a *AppContext) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.mongo.Close(ctx); err != nil {
		slog.Warn("mongo disconnect error", "err", err)
	}
	if a.otelProvider != nil {
		if err := a.otelProvider.Shutdown(ctx); err != nil {
			slog.Warn("OTEL shutdown error", "err", err)
		}
	}
}

package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"vivbliss/mongo-init/internal/bootstrap"
	"vivbliss/mongo-init/internal/telemetry"
)

// ErrBootstrapInProgress is returned when RunBootstrap is called while a
// bootstrap is already running.
var ErrBootstrapInProgress = errors.New("bootstrap already in progress")

// MongoAdmin is satisfied by *clients.MongoClient.
type MongoAdmin interface {
	bootstrap.Admin
	Probe(ctx context.Context) ProbeResult
}

// Prober is satisfied by *clients.RedisClient.
type Prober interface {
	Probe(ctx context.Context) ProbeResult
}

// Orchestrator runs the bootstrap against a caller-owned admin session and
// answers health and readiness questions about it.
type Orchestrator struct {
	mongo    MongoAdmin
	redis    Prober
	settings bootstrap.Settings
	runs     metric.Int64Counter

	bootstrapInProgress atomic.Bool
	ready               atomic.Bool
	lastResult          *Result
	resultMu            sync.RWMutex
}

// New constructs an Orchestrator. redis may be nil, in which case deep
// health only covers MongoDB.
func New(mongo MongoAdmin, redis Prober, settings bootstrap.Settings) *Orchestrator {
	runs, _ := telemetry.Meter().Int64Counter("mongo_init.bootstrap.runs",
		metric.WithDescription("Bootstrap runs by status and failure kind"),
	)
	return &Orchestrator{
		mongo:    mongo,
		redis:    redis,
		settings: settings,
		runs:     runs,
	}
}

// RunBootstrap performs one bootstrap.Run and records its Result. The
// returned error is the *bootstrap.Failure, if any; the Result describes it
// as well. Returns ErrBootstrapInProgress if a run is already active.
func (o *Orchestrator) RunBootstrap(ctx context.Context) (*Result, error) {
	run, err := o.StartBootstrap()
	if err != nil {
		return nil, err
	}
	return run(ctx)
}

// StartBootstrap claims the single-flight slot without running anything.
// The returned function performs the run and releases the slot; it must be
// called exactly once. Returns ErrBootstrapInProgress if the slot is taken.
func (o *Orchestrator) StartBootstrap() (func(context.Context) (*Result, error), error) {
	if !o.bootstrapInProgress.CompareAndSwap(false, true) {
		return nil, ErrBootstrapInProgress
	}
	return func(ctx context.Context) (*Result, error) {
		defer o.bootstrapInProgress.Store(false)
		return o.run(ctx)
	}, nil
}

func (o *Orchestrator) run(ctx context.Context) (*Result, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "mongo-init.bootstrap")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.name", o.settings.Database),
		attribute.String("db.user", o.settings.Username),
		attribute.String("db.role", bootstrap.RoleReadWrite),
	)

	result := &Result{
		Status:   StatusOK,
		Database: o.settings.Database,
		User:     o.settings.Username,
		Role:     bootstrap.RoleReadWrite,
	}

	err := bootstrap.Run(ctx, o.mongo, o.settings)
	if err != nil {
		result.Status = StatusError
		result.Error = err.Error()
		if kind, ok := bootstrap.KindOf(err); ok {
			result.Kind = string(kind)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "bootstrap failed")
		slog.ErrorContext(ctx, "bootstrap failed", "kind", result.Kind, "err", err)
	} else {
		span.SetStatus(codes.Ok, "")
		o.ready.Store(true)
	}
	span.SetAttributes(attribute.String("bootstrap.status", result.Status))
	o.runs.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", result.Status),
		attribute.String("kind", result.Kind),
	))

	o.resultMu.Lock()
	o.lastResult = result
	o.resultMu.Unlock()

	return result, err
}

// RunDeepHealth probes every configured dependency concurrently and returns
// a map of dependency name to ProbeResult.
func (o *Orchestrator) RunDeepHealth(ctx context.Context) map[string]ProbeResult {
	results := make(map[string]ProbeResult, 2)
	var mu sync.Mutex
	var g errgroup.Group

	g.Go(func() error {
		probe := o.mongo.Probe(ctx)
		mu.Lock()
		results["mongo"] = probe
		mu.Unlock()
		return nil
	})

	if o.redis != nil {
		g.Go(func() error {
			probe := o.redis.Probe(ctx)
			mu.Lock()
			results["redis"] = probe
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// IsBootstrapInProgress returns true while a bootstrap run is active.
func (o *Orchestrator) IsBootstrapInProgress() bool {
	return o.bootstrapInProgress.Load()
}

// IsReady returns true once any bootstrap has completed with StatusOK. A
// later failed run (typically duplicate_user) does not clear it.
func (o *Orchestrator) IsReady() bool {
	return o.ready.Load()
}

// LastResult returns a copy of the most recent Result, or nil before the
// first run.
func (o *Orchestrator) LastResult() *Result {
	o.resultMu.RLock()
	defer o.resultMu.RUnlock()
	if o.lastResult == nil {
		return nil
	}
	r := *o.lastResult
	return &r
}

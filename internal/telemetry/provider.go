// Package telemetry wires logging, tracing and metrics for mongo-init.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"vivbliss/mongo-init/internal/config"
)

// InstrumentationName scopes every tracer and meter in this module.
const InstrumentationName = "vivbliss/mongo-init"

const metricInterval = 10 * time.Second

// ErrDisabled is returned by InitProvider when no collector endpoint is set.
var ErrDisabled = errors.New("telemetry disabled: no OTLP endpoint configured")

// Tracer returns the module tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// Meter returns the module meter from the global provider. Instruments
// created before InitProvider follow the provider once it is installed.
func Meter() metric.Meter {
	return otel.Meter(InstrumentationName)
}

// Provider owns the installed trace and metric providers and the collector
// connection they share.
type Provider struct {
	conn *grpc.ClientConn
	tp   *sdktrace.TracerProvider
	mp   *sdkmetric.MeterProvider
}

// InitProvider installs global OTEL trace and metric providers exporting to
// cfg.OTLPEndpoint over OTLP/gRPC. The dial is non-blocking, so an
// unreachable collector does not fail startup. Returns ErrDisabled when the
// endpoint is empty.
func InitProvider(ctx context.Context, cfg config.TelemetryConfig, version string) (*Provider, error) {
	if cfg.OTLPEndpoint == "" {
		return nil, ErrDisabled
	}

	res, err := newResource(ctx, cfg.ServiceName, version)
	if err != nil {
		return nil, err
	}

	var dialOpts []grpc.DialOption
	if cfg.OTLPInsecure {
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	conn, err := grpc.NewClient(cfg.OTLPEndpoint, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating gRPC client for OTEL: %w", err)
	}
	p := &Provider{conn: conn}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		conn.Close() //nolint:errcheck
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}
	p.tp = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)

	metricExporter, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(conn))
	if err != nil {
		p.tp.Shutdown(ctx) //nolint:errcheck
		conn.Close()       //nolint:errcheck
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}
	p.mp = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter,
			sdkmetric.WithInterval(metricInterval),
		)),
		sdkmetric.WithResource(res),
	)

	otel.SetTracerProvider(p.tp)
	otel.SetMeterProvider(p.mp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		slog.Warn("otel export error", "err", err)
	}))

	return p, nil
}

func newResource(ctx context.Context, serviceName, version string) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
			semconv.ServiceNamespace("vivbliss"),
		),
		resource.WithHost(),
		resource.WithProcess(),
	)
	if err != nil {
		return nil, fmt.Errorf("building OTEL resource: %w", err)
	}
	return res, nil
}

// Shutdown flushes the providers and closes the collector connection. Flush
// errors are logged at debug; only the close error is returned. ctx should
// have a deadline.
func (p *Provider) Shutdown(ctx context.Context) error {
	if err := p.mp.Shutdown(ctx); err != nil {
		slog.Debug("flushing metrics", "err", err)
	}
	if err := p.tp.Shutdown(ctx); err != nil {
		slog.Debug("flushing traces", "err", err)
	}
	return p.conn.Close()
}

package telemetry

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ShutdownFunc flushes and releases tracing resources.
type ShutdownFunc func(context.Context) error

// TracingConfig selects the span exporter.
type TracingConfig struct {
	Exporter string // none, stdout
	File     string // stdout exporter target; empty means os.Stdout
}

// InitTracing installs the global tracer provider. With exporter "none" the
// otel no-op provider stays in place and the returned shutdown does nothing.
func InitTracing(serviceName, version string, cfg TracingConfig) (ShutdownFunc, error) {
	switch cfg.Exporter {
	case "", "none":
		return func(context.Context) error { return nil }, nil
	case "stdout":
	default:
		return nil, fmt.Errorf("unknown telemetry exporter: %s", cfg.Exporter)
	}

	var (
		out       io.Writer
		closeFile func() error
	)
	if cfg.File != "" {
		f, err := OpenLogFile(cfg.File)
		if err != nil {
			return nil, err
		}
		out, closeFile = f, f.Close
	}

	tp, err := newStdoutProvider(serviceName, version, out)
	if err != nil {
		if closeFile != nil {
			_ = closeFile()
		}
		return nil, err
	}
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return func(ctx context.Context) error {
		err := tp.Shutdown(ctx)
		if closeFile != nil {
			if cerr := closeFile(); err == nil {
				err = cerr
			}
		}
		return err
	}, nil
}

func newStdoutProvider(serviceName, version string, out io.Writer) (*sdktrace.TracerProvider, error) {
	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	opts := []stdouttrace.Option{}
	if out != nil {
		opts = append(opts, stdouttrace.WithWriter(out))
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(time.Second)),
		sdktrace.WithResource(res),
	), nil
}

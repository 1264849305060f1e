package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, slog.LevelDebug, parseLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLogLevel(" error "))
	assert.Equal(t, slog.LevelInfo, parseLogLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("verbose"))
}

func TestSlogHandler_AddsTraceIDs(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(newSlogHandler(&buf, "info", "json"))

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("test").Start(context.Background(), "role")
	logger.InfoContext(ctx, "role complete", "role", "Growth")
	span.End()

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "role complete", rec["msg"])
	assert.Equal(t, span.SpanContext().TraceID().String(), rec["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), rec["span_id"])
}

func TestSlogHandler_NoSpanNoIDs(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(newSlogHandler(&buf, "debug", "text"))
	logger.With("run_id", "r1").Debug("hello")

	out := buf.String()
	assert.Contains(t, out, "msg=hello")
	assert.Contains(t, out, "run_id=r1")
	assert.NotContains(t, out, "trace_id")
}

func TestSlogHandler_LevelFilters(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(newSlogHandler(&buf, "warn", "text"))
	logger.Info("quiet")
	logger.Warn("loud")
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

func TestOpenLogFile_CreatesDir(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "a", "b", "workforce.log")
	f, err := OpenLogFile(path)
	require.NoError(t, err)
	_, err = f.WriteString("line\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "line\n", string(data))
}

func TestInitTracing_None(t *testing.T) {
	shutdown, err := InitTracing("workforce", "test", TracingConfig{Exporter: "none"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracing_Unknown(t *testing.T) {
	_, err := InitTracing("workforce", "test", TracingConfig{Exporter: "otlp"})
	assert.Error(t, err)
}

func TestInitTracing_StdoutToFile(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	path := filepath.Join(t.TempDir(), "logs", "traces.json")
	shutdown, err := InitTracing("workforce", "test", TracingConfig{Exporter: "stdout", File: path})
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "workforce.role")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "workforce.role")
}

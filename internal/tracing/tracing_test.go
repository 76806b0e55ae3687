package tracing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/agentpulse/agentpulse/internal/tracing"
)

func TestInitDisabledByDefault(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	p, err := tracing.Init(context.Background(), tracing.Config{})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	// Tracer should return a no-op (no panic, invalid span IDs).
	tracer := p.Tracer()
	_, span := tracer.Start(context.Background(), "test")
	span.End()
	if span.SpanContext().TraceID().IsValid() {
		t.Error("expected no-op tracer to produce an invalid trace ID")
	}
}

func TestNilProviderIsSafe(t *testing.T) {
	var p *tracing.Provider
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown on nil provider: %v", err)
	}
	_, span := p.Tracer().Start(context.Background(), "test")
	span.End()
}

func TestInitRejectsUnknownProtocol(t *testing.T) {
	_, err := tracing.Init(context.Background(), tracing.Config{
		Endpoint: "localhost:4317",
		Protocol: "carrier-pigeon",
	})
	if err == nil {
		t.Fatal("expected error for unsupported protocol")
	}
}

func TestTaskSpanRecordsFailure(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	tracer := tp.Tracer("test")

	_, span := tracing.StartTaskSpan(context.Background(), tracer, "ingest")
	tracing.EndTaskSpan(span, 150*time.Millisecond, errors.New("simulated failure"))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	got := spans[0]
	if got.Name != "simulate_agent_task" {
		t.Errorf("span name = %q", got.Name)
	}
	if got.Status.Code != codes.Error {
		t.Errorf("expected error status, got %v", got.Status.Code)
	}
}

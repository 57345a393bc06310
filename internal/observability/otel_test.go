package observability

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/vinobytes/somm-backend/internal/config"
)

func TestSetup_Disabled(t *testing.T) {
	before := otel.GetTracerProvider()

	shutdown, err := Setup(context.Background(), config.OTELConfig{Enabled: false}, "test")
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if shutdown == nil {
		t.Fatal("expected a no-op shutdown func")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if otel.GetTracerProvider() != before {
		t.Fatal("disabled setup must not replace the global tracer provider")
	}
}

func TestSetup_ExporterError(t *testing.T) {
	origExporter := newExporter
	defer func() { newExporter = origExporter }()

	boom := errors.New("exporter down")
	newExporter = func(context.Context, otlptrace.Client) (*otlptrace.Exporter, error) {
		return nil, boom
	}

	_, err := Setup(context.Background(), config.OTELConfig{
		Enabled:     true,
		Endpoint:    "localhost:4317",
		Insecure:    true,
		ServiceName: "somm-backend",
		SampleRatio: 1.0,
	}, "test")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want exporter error", err)
	}
}

func TestSetup_ResourceError(t *testing.T) {
	origExporter := newExporter
	origResource := newResource
	defer func() {
		newExporter = origExporter
		newResource = origResource
	}()

	newExporter = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
		return &otlptrace.Exporter{}, nil
	}
	boom := errors.New("resource build failed")
	newResource = func(context.Context, string, string) (*resource.Resource, error) {
		return nil, boom
	}

	_, err := Setup(context.Background(), config.OTELConfig{
		Enabled:     true,
		Endpoint:    "localhost:4317",
		Insecure:    true,
		ServiceName: "somm-backend",
		SampleRatio: 0.5,
	}, "test")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want resource error", err)
	}
}

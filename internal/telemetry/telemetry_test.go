package telemetry

import (
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func ratio(v float64) *float64 { return &v }

func TestConfig_Defaults(t *testing.T) {
	t.Parallel()

	var c Config
	c.Defaults()
	if c.ServiceName != "every" {
		t.Errorf("ServiceName = %q, want every", c.ServiceName)
	}
	if c.SampleRatio == nil || *c.SampleRatio != 1 {
		t.Errorf("SampleRatio = %v, want 1", c.SampleRatio)
	}
	if c.Enabled() {
		t.Error("tracing should be disabled without an endpoint")
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"disabled", Config{}, ""},
		{"http endpoint", Config{Endpoint: "http://localhost:4318"}, ""},
		{"bad scheme", Config{Endpoint: "grpc://localhost:4317"}, "scheme"},
		{"ratio too high", Config{SampleRatio: ratio(1.5)}, "sample_ratio"},
		{"ratio negative", Config{SampleRatio: ratio(-0.1)}, "sample_ratio"},
	}
	for _, tt := range tests {
		err := tt.cfg.Validate()
		switch {
		case tt.wantErr == "" && err != nil:
			t.Errorf("%s: unexpected error: %v", tt.name, err)
		case tt.wantErr != "" && (err == nil || !strings.Contains(err.Error(), tt.wantErr)):
			t.Errorf("%s: error = %v, want mention of %q", tt.name, err, tt.wantErr)
		}
	}
}

func TestSetup_Disabled(t *testing.T) {
	t.Parallel()

	shutdown, err := Setup(context.Background(), Config{}, "test")
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestExporterOptions(t *testing.T) {
	t.Parallel()

	if got := len(exporterOptions(Config{Endpoint: "https://collector:4318"})); got != 1 {
		t.Errorf("https options = %d, want 1 (endpoint only)", got)
	}
	if got := len(exporterOptions(Config{Endpoint: "http://collector:4318/custom/v1/traces"})); got != 3 {
		t.Errorf("http+path options = %d, want 3", got)
	}
}

func TestNewProvider_Sampling(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		ratio float64
		want  int
	}{{1, 5}, {0, 0}} {
		sr := tracetest.NewSpanRecorder()
		tp := NewProvider(resource.Empty(), tt.ratio, sdktrace.WithSpanProcessor(sr))
		tracer := tp.Tracer("test")
		for range 5 {
			_, span := tracer.Start(context.Background(), "op")
			span.End()
		}
		if got := len(sr.Ended()); got != tt.want {
			t.Errorf("ratio %g: recorded spans = %d, want %d", tt.ratio, got, tt.want)
		}
		_ = tp.Shutdown(context.Background())
	}
}

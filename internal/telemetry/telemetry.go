// Package telemetry installs the OpenTelemetry tracer provider used for job
// run spans.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const defaultServiceName = "every"

// Config configures trace export.
type Config struct {
	// Endpoint is the OTLP/HTTP collector URL, e.g. http://localhost:4318.
	// Tracing is disabled when empty.
	Endpoint string `yaml:"endpoint,omitempty"`

	// ServiceName is reported as service.name. Defaults to "every".
	ServiceName string `yaml:"service_name,omitempty"`

	// SampleRatio is the fraction of root spans kept, in [0, 1].
	// Defaults to 1.
	SampleRatio *float64 `yaml:"sample_ratio,omitempty"`
}

// Defaults fills zero values with sensible defaults.
func (c *Config) Defaults() {
	if c.ServiceName == "" {
		c.ServiceName = defaultServiceName
	}
	if c.SampleRatio == nil {
		one := 1.0
		c.SampleRatio = &one
	}
}

// Enabled reports whether an endpoint is configured.
func (c *Config) Enabled() bool {
	return c.Endpoint != ""
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	var errs []error
	if c.Endpoint != "" {
		u, err := url.Parse(c.Endpoint)
		if err != nil {
			errs = append(errs, fmt.Errorf("telemetry: endpoint: %w", err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, fmt.Errorf("telemetry: endpoint scheme must be http or https, got %q", u.Scheme))
		}
	}
	if r := c.SampleRatio; r != nil && (*r < 0 || *r > 1) {
		errs = append(errs, fmt.Errorf("telemetry: sample_ratio must be within [0, 1], got %g", *r))
	}
	return errors.Join(errs...)
}

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(ctx context.Context) error

// Setup installs a global tracer provider exporting to cfg.Endpoint. When
// tracing is disabled it leaves the global no-op provider in place.
func Setup(ctx context.Context, cfg Config, version string) (ShutdownFunc, error) {
	if !cfg.Enabled() {
		return func(context.Context) error { return nil }, nil
	}
	cfg.Defaults()

	exporter, err := otlptracehttp.New(ctx, exporterOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", version),
	))
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}

	tp := NewProvider(res, *cfg.SampleRatio, sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// NewProvider builds a tracer provider sampling ratio of root spans and
// honouring the parent's decision for child spans.
func NewProvider(res *resource.Resource, ratio float64, opts ...sdktrace.TracerProviderOption) *sdktrace.TracerProvider {
	opts = append([]sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	}, opts...)
	return sdktrace.NewTracerProvider(opts...)
}

func exporterOptions(cfg Config) []otlptracehttp.Option {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return []otlptracehttp.Option{otlptracehttp.WithEndpointURL(cfg.Endpoint)}
	}
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(u.Host)}
	if u.Scheme == "http" {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if u.Path != "" && u.Path != "/" {
		opts = append(opts, otlptracehttp.WithURLPath(u.Path))
	}
	return opts
}

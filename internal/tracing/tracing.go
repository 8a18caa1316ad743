// Package tracing installs the OpenTelemetry tracer provider used by the dispatcher.
package tracing

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type Config struct {
	Enabled     bool
	SampleRatio float64
	ServiceName string
}

// LogExporter writes finished spans to the global zerolog logger.
type LogExporter struct {
	exported atomic.Int64
}

func (e *LogExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		ev := log.Debug()
		if s.Status().Code == codes.Error {
			ev = log.Warn().Str("error", s.Status().Description)
		}
		ev.Str("module", "tracing").
			Str("span", s.Name()).
			Str("trace_id", s.SpanContext().TraceID().String()).
			Dur("duration", s.EndTime().Sub(s.StartTime())).
			Msg("span finished")
		e.exported.Add(1)
	}
	return nil
}

func (e *LogExporter) Shutdown(context.Context) error { return nil }

// Exported counts spans handed to the exporter so far.
func (e *LogExporter) Exported() int64 { return e.exported.Load() }

// Setup returns a no-op provider when tracing is disabled. Otherwise it installs
// an SDK provider as the global one; the returned func flushes and stops it.
func Setup(cfg Config) (trace.TracerProvider, func(context.Context) error) {
	if !cfg.Enabled {
		return noop.NewTracerProvider(), func(context.Context) error { return nil }
	}
	tp := newProvider(cfg, &LogExporter{})
	otel.SetTracerProvider(tp)
	log.Info().Str("module", "tracing").Float64("sample_ratio", cfg.SampleRatio).Msg("tracing enabled")
	return tp, tp.Shutdown
}

func newProvider(cfg Config, exp sdktrace.SpanExporter) *sdktrace.TracerProvider {
	ratio := cfg.SampleRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}
	name := cfg.ServiceName
	if name == "" {
		name = "switchboard"
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		sdktrace.WithResource(sdkresource.NewSchemaless(attribute.String("service.name", name))),
	)
}

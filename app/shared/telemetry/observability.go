package telemetry

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Observability bundles what every module needs to log, trace and record metrics.
type Observability struct {
	Logger   *slog.Logger
	Tracer   trace.Tracer
	Metrics  DomainMetrics
	Registry *prometheus.Registry
}

// Config selects the logger output.
type Config struct {
	ServiceName string
	Level       string
	Format      string // json|text
	Output      io.Writer
}

// NewObservability builds the process-wide logger, tracer and metrics registry.
// The tracer comes from the global otel provider, a noop until one is installed.
func NewObservability(cfg Config) Observability {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	logger := slog.New(handler).With(slog.String("service", cfg.ServiceName))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return Observability{
		Logger:   logger,
		Tracer:   otel.Tracer(cfg.ServiceName),
		Metrics:  NewPrometheus(registry),
		Registry: registry,
	}
}

// ParseLevel maps a config level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// NewNoopObservability returns a bundle that discards everything, for tests.
func NewNoopObservability() Observability {
	return Observability{
		Logger:   slog.New(slog.DiscardHandler),
		Tracer:   noop.NewTracerProvider().Tracer("noop"),
		Metrics:  NewNoop(),
		Registry: prometheus.NewRegistry(),
	}
}

package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/medusa-ctf/medusa-backend/pkg/observability/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const ServiceName = "medusa-backend"

// Config controls logger and metrics setup.
type Config struct {
	Environment string
	LogLevel    string
	// Output defaults to stdout.
	Output io.Writer
}

// Observability bundles the logger, tracer and metrics handed to every module.
type Observability struct {
	Logger   *slog.Logger
	Tracer   trace.Tracer
	Registry *prometheus.Registry
	Metrics  metrics.SubmissionMetrics
}

// New builds the production observability stack.
func New(cfg Config) Observability {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return Observability{
		Logger:   NewLogger(cfg),
		Tracer:   otel.Tracer(ServiceName),
		Registry: reg,
		Metrics:  metrics.NewPrometheus(reg),
	}
}

// NewNoop returns an Observability that discards logs, spans and metrics.
func NewNoop() Observability {
	return Observability{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Tracer:   noop.NewTracerProvider().Tracer("noop"),
		Registry: prometheus.NewRegistry(),
		Metrics:  metrics.NewNoop(),
	}
}

// NewLogger returns a JSON logger outside development, text otherwise.
func NewLogger(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}

	var handler slog.Handler
	if cfg.Environment == "development" || cfg.Environment == "" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	return slog.New(handler).With(
		slog.String("service", ServiceName),
		slog.String("environment", cfg.Environment),
	)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

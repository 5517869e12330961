package multirag

import (
	"log/slog"

	"github.com/hupe1980/multirag/index"
	"github.com/hupe1980/multirag/index/flat"
)

// DefaultK is the neighbor count used by calling surfaces that do not let
// the user choose k.
const DefaultK = 5

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	embedConcurrency int
	newIndex         func() index.Index
}

// Option configures Engine construction.
type Option func(*options)

// WithLogger configures structured logging for engine operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// ingest and query operations. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithEmbedConcurrency bounds the number of parallel embedding provider
// calls during ingestion. Values below 1 are clamped to 1.
func WithEmbedConcurrency(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.embedConcurrency = n
	}
}

// WithIndexFactory substitutes the vector index implementation. Each
// ingestion run builds a fresh index through the factory, so an
// approximate structure can replace the brute-force default as long as it
// preserves the ranking contract.
func WithIndexFactory(factory func() index.Index) Option {
	return func(o *options) {
		if factory != nil {
			o.newIndex = factory
		}
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		embedConcurrency: 4,
		newIndex:         func() index.Index { return flat.New() },
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

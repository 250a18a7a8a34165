package preprocessing

import (
	"github.com/YuminosukeSato/creditgroup/pkg/log"
)

const (
	// DefaultCategoricalRatio is the cardinality/length ratio below which the
	// detector casts an untyped column to a finite category.
	DefaultCategoricalRatio = 0.5

	// DefaultIdentifierRatio is the cardinality/rows ratio above which the
	// grouper treats a non-numeric column as an identifier.
	DefaultIdentifierRatio = 0.95

	// DefaultCleanupRatio is the share of rows that must survive aggressive
	// numeric cleanup for the column to be accepted as numeric.
	DefaultCleanupRatio = 0.5
)

type options struct {
	categoricalRatio float64
	identifierRatio  float64
	cleanupRatio     float64
	logger           log.Logger
}

func defaultOptions() options {
	return options{
		categoricalRatio: DefaultCategoricalRatio,
		identifierRatio:  DefaultIdentifierRatio,
		cleanupRatio:     DefaultCleanupRatio,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.GetLoggerWithName("preprocessing")
	}
	return o
}

// Option configures the schema detector, the column grouper and overrides.
type Option func(*options)

// WithCategoricalRatio sets the low-cardinality threshold used by the detector.
func WithCategoricalRatio(ratio float64) Option {
	return func(o *options) {
		o.categoricalRatio = ratio
	}
}

// WithIdentifierRatio sets the near-unique threshold used by the grouper.
func WithIdentifierRatio(ratio float64) Option {
	return func(o *options) {
		o.identifierRatio = ratio
	}
}

// WithCleanupRatio sets the acceptance threshold of aggressive numeric cleanup.
func WithCleanupRatio(ratio float64) Option {
	return func(o *options) {
		o.cleanupRatio = ratio
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

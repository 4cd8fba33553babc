package loader

import (
	"time"

	"go.uber.org/zap"

	"github.com/spektr-org/plwdash/schema"
)

// Option configures Normalize and LoadFile.
type Option func(*options)

type options struct {
	schema      *schema.Schema
	dateLayouts []string
	logger      *zap.Logger
	now         func() time.Time
}

// WithSchema replaces the default schema (e.g. one with extra aliases).
func WithSchema(s *schema.Schema) Option {
	return func(o *options) {
		if s != nil {
			o.schema = s
		}
	}
}

// WithDateLayouts sets the ordered list of layouts tried for camp dates.
func WithDateLayouts(layouts ...string) Option {
	return func(o *options) {
		if len(layouts) > 0 {
			o.dateLayouts = layouts
		}
	}
}

// WithLogger sets the logger for load diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock overrides the load timestamp source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func applyOptions(opts []Option) *options {
	o := &options{
		schema:      schema.Default(),
		dateLayouts: DefaultDateLayouts,
		logger:      zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

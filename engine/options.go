package engine

import (
	"go.uber.org/zap"
)

// ============================================================================
// ENGINE OPTIONS — Functional options for Build() and breakdowns
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	Logger       *zap.Logger
	Sort         SortMode
	GroupKeys    []GroupKey
	Available    func(GroupKey) bool // nil = every key available
	IncludeTable bool                // attach the filtered table to the Report
	Currency     string
}

// WithLogger sets the logger used for pass-level diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithSort orders breakdown groups. The default keeps encounter order.
func WithSort(mode SortMode) Option {
	return func(c *config) {
		c.Sort = mode
	}
}

// WithGroupKeys limits which breakdowns Build computes.
func WithGroupKeys(keys ...GroupKey) Option {
	return func(c *config) {
		c.GroupKeys = keys
	}
}

// WithAvailability tells Build which breakdown fields exist in the source.
// Breakdowns over absent fields are skipped with a note.
func WithAvailability(fn func(GroupKey) bool) Option {
	return func(c *config) {
		c.Available = fn
	}
}

// WithTable attaches the row-level table to the Report.
func WithTable(include bool) Option {
	return func(c *config) {
		c.IncludeTable = include
	}
}

// WithCurrency sets the currency prefix used in formatted amounts.
func WithCurrency(prefix string) Option {
	return func(c *config) {
		c.Currency = prefix
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		Logger:    zap.NewNop(),
		Sort:      SortNone,
		GroupKeys: GroupKeys,
		Currency:  "Rs.",
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

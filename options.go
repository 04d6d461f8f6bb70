package rbregexp

import (
	"log/slog"
	"time"

	"go.dw1.io/rbregexp/backend"
	"go.dw1.io/rbregexp/backend/backtrack"
	"go.dw1.io/rbregexp/backend/native"
)

// Option configures a [Regexp].
type Option func(*options)

type options struct {
	logger    *slog.Logger
	timeout   time.Duration
	engine    backend.Engine
	primary   backend.Backend
	secondary backend.Backend
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.secondary == nil {
		o.secondary = backtrack.New(backtrack.WithMatchTimeout(o.timeout))
	}
	if o.primary == nil {
		o.primary = native.New(native.WithFallback(o.secondary))
	}
	return o
}

// WithLogger sets the logger for compile decisions. The default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMatchTimeout bounds each match on the backtracking engine. Matches
// that run longer fail with [ErrMatchTimeout]. Zero, the default, means no
// limit. It has no effect together with [WithBackends].
func WithMatchTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithEngine pins compilation to one engine instead of choosing per
// pattern.
func WithEngine(engine backend.Engine) Option {
	return func(o *options) { o.engine = engine }
}

// WithBackends replaces the engines. A nil backend keeps the default.
func WithBackends(primary, secondary backend.Backend) Option {
	return func(o *options) {
		o.primary = primary
		o.secondary = secondary
	}
}

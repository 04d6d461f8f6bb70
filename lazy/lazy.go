// Package lazy defers pattern compilation to the first match and runs it at
// most once, choosing between the primary and secondary backends.
//
// A Lazy moves through [Uncompiled], [Compiling] and then one of the
// terminal states [CompiledPrimary], [CompiledSecondary] or [Failed]. A
// terminal state never changes, and a failure is cached so every later call
// observes the identical error value.
package lazy

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"go.dw1.io/rbregexp/backend"
	"go.dw1.io/rbregexp/config"
	"go.dw1.io/rbregexp/internal/errs"
	"go.dw1.io/rbregexp/syntax"
)

// ErrReleased is returned by [Lazy.Get] after [Lazy.Release].
var ErrReleased = errors.New("lazy: regexp released")

// State is the compilation state of a [Lazy].
type State uint32

const (
	Uncompiled State = iota
	Compiling
	CompiledPrimary
	CompiledSecondary
	Failed
)

func (s State) String() string {
	switch s {
	case Uncompiled:
		return "uncompiled"
	case Compiling:
		return "compiling"
	case CompiledPrimary:
		return "compiled(primary)"
	case CompiledSecondary:
		return "compiled(secondary)"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", uint32(s))
	}
}

// Terminal reports whether s can no longer change.
func (s State) Terminal() bool { return s >= CompiledPrimary }

// Option configures a [Lazy].
type Option func(*Lazy)

// WithLogger sets the logger used for compile decisions. Records are
// emitted at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Lazy) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Force pins compilation to one backend, skipping classification. Passing
// [backend.Auto] restores the default selection.
func Force(engine backend.Engine) Option {
	return func(l *Lazy) { l.force = engine }
}

// Lazy is a compile-once handle for one normalized config. It is safe for
// concurrent use.
type Lazy struct {
	cfg       config.Config
	primary   backend.Backend
	secondary backend.Backend
	force     backend.Engine
	logger    *slog.Logger

	once  sync.Once
	state atomic.Uint32
	// compiled and err are written once inside once.Do, before state turns
	// terminal.
	compiled backend.Compiled
	err      error

	release  sync.Once
	released atomic.Bool
}

// New returns an uncompiled Lazy. Either backend may be nil, in which case
// patterns that need it fail with an unsupported error.
func New(cfg config.Config, primary, secondary backend.Backend, opts ...Option) *Lazy {
	l := &Lazy{
		cfg:       cfg,
		primary:   primary,
		secondary: secondary,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Config returns the config the handle compiles.
func (l *Lazy) Config() config.Config { return l.cfg }

// State returns the current state.
func (l *Lazy) State() State { return State(l.state.Load()) }

// Engine returns the backend in use, or [backend.Auto] before a successful
// compile.
func (l *Lazy) Engine() backend.Engine {
	switch l.State() {
	case CompiledPrimary:
		return backend.Primary
	case CompiledSecondary:
		return backend.Secondary
	default:
		return backend.Auto
	}
}

// Get compiles on first use and returns the compiled handle or the cached
// failure. Concurrent first callers block until compilation finishes.
func (l *Lazy) Get() (backend.Compiled, error) {
	if l.released.Load() {
		return nil, ErrReleased
	}
	if !l.State().Terminal() {
		l.once.Do(l.compile)
	}
	return l.compiled, l.err
}

// Release frees the compiled handle. It is idempotent; an in-flight compile
// finishes first.
func (l *Lazy) Release() {
	l.release.Do(func() {
		l.released.Store(true)
		l.once.Do(func() {
			l.err = ErrReleased
			l.state.Store(uint32(Failed))
		})
		if l.compiled != nil {
			l.compiled.Release()
		}
	})
}

func (l *Lazy) compile() {
	l.state.Store(uint32(Compiling))

	compiled, err := l.build()
	next := Failed
	if err == nil {
		next = CompiledPrimary
		if compiled.Engine() == backend.Secondary {
			next = CompiledSecondary
		}
	}
	l.compiled, l.err = compiled, err
	l.state.Store(uint32(next))

	if err != nil {
		l.logger.Debug("regexp compile failed", "pattern", l.cfg.Pattern(), "error", err)
		return
	}
	l.logger.Debug("regexp compiled", "pattern", l.cfg.Pattern(), "state", next.String())
}

func (l *Lazy) build() (backend.Compiled, error) {
	switch l.force {
	case backend.Primary:
		return l.with(l.primary, backend.Primary)
	case backend.Secondary:
		return l.with(l.secondary, backend.Secondary)
	}

	tree, err := l.cfg.Parse()
	if err != nil {
		return nil, err
	}
	class, err := tree.Classify()
	l.logger.Debug("regexp classified", "pattern", l.cfg.Pattern(), "class", class.String(), "features", tree.Features.String())

	switch class {
	case syntax.Invalid:
		return nil, err
	case syntax.PrimaryCompatible:
		if l.primary == nil {
			break
		}
		compiled, err := l.primary.Compile(l.cfg)
		if err == nil {
			return compiled, nil
		}
		if l.secondary == nil {
			return nil, err
		}
		l.logger.Debug("primary compile failed, falling back", "pattern", l.cfg.Pattern(), "error", err)
	}
	return l.with(l.secondary, backend.Secondary)
}

func (l *Lazy) with(b backend.Backend, engine backend.Engine) (backend.Compiled, error) {
	if b == nil {
		return nil, errs.Unsupported(l.cfg.Pattern(), 0, "no "+engine.String()+" engine")
	}
	return b.Compile(l.cfg)
}

// Package backtrack runs patterns on regexp2, a backtracking engine with
// .NET semantics. It covers what the automaton engine cannot: backrefs,
// lookaround, atomic groups, possessive quantifiers and conditionals.
package backtrack

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dlclark/regexp2"

	"go.dw1.io/rbregexp/backend"
	"go.dw1.io/rbregexp/config"
	"go.dw1.io/rbregexp/flags"
	"go.dw1.io/rbregexp/internal/errs"
	"go.dw1.io/rbregexp/syntax"
)

var errReleased = errors.New("backtrack: use of released regexp")

// Option configures a [Backend].
type Option func(*Backend)

// WithMatchTimeout bounds the time a single match may take. Zero means no
// limit.
func WithMatchTimeout(d time.Duration) Option {
	return func(b *Backend) { b.timeout = d }
}

// Backend compiles patterns for regexp2.
type Backend struct {
	timeout time.Duration
}

// New returns a Backend.
func New(opts ...Option) *Backend {
	b := &Backend{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Engine returns [backend.Secondary].
func (*Backend) Engine() backend.Engine { return backend.Secondary }

// Compile translates cfg to the .NET dialect and compiles it.
func (b *Backend) Compile(cfg config.Config) (backend.Compiled, error) {
	tree, err := cfg.Parse()
	if err != nil {
		return nil, err
	}
	if class, err := tree.Classify(); class == syntax.Invalid {
		return nil, err
	}
	expr, err := tree.Emit(syntax.DotNet)
	if err != nil {
		return nil, err
	}

	re, err := regexp2.Compile(expr, Options(cfg.Options()))
	if err != nil {
		return nil, fmt.Errorf("backtrack: compile %q: %w", expr, err)
	}
	if b.timeout > 0 {
		re.MatchTimeout = b.timeout
	}

	out := &Regexp{expr: expr, info: tree.Info()}
	out.re.Store(re)
	return out, nil
}

// Options maps Ruby options to regexp2 options. Ruby's ^ and $ always
// match at line boundaries, and Ruby's m is .NET's Singleline.
func Options(o flags.Options) regexp2.RegexOptions {
	opts := regexp2.RegexOptions(regexp2.Multiline)
	if o.Has(flags.IgnoreCase) {
		opts |= regexp2.IgnoreCase
	}
	if o.Has(flags.Multiline) {
		opts |= regexp2.Singleline
	}
	return opts
}

// Regexp is a pattern compiled by regexp2. regexp2 values are safe for
// concurrent matching.
type Regexp struct {
	re   atomic.Pointer[regexp2.Regexp]
	expr string
	info syntax.Info
}

// Engine returns [backend.Secondary].
func (*Regexp) Engine() backend.Engine { return backend.Secondary }

// Info returns the group layout.
func (re *Regexp) Info() syntax.Info { return re.info }

// NamedCaptures returns the named group table.
func (re *Regexp) NamedCaptures() []syntax.Name {
	return append([]syntax.Name(nil), re.info.Names...)
}

// String returns the translated expression.
func (re *Regexp) String() string { return re.expr }

// Release drops the compiled program.
func (re *Regexp) Release() { re.re.Store(nil) }

func (re *Regexp) match(h []byte, mode backend.Mode, start int) (*regexp2.Match, *backend.Runes, error) {
	prog := re.re.Load()
	if prog == nil {
		return nil, nil, errReleased
	}
	if err := backend.CheckStart(h, mode, start); err != nil {
		return nil, nil, err
	}

	text := backend.NewRunes(h, mode)
	m, err := prog.FindRunesMatchStartingAt(text.Runes, text.Index(start))
	if err != nil {
		// regexp2 only fails a match when it runs out of time.
		return nil, nil, fmt.Errorf("%w: %v", errs.ErrMatchTimeout, err)
	}
	return m, text, nil
}

// IsMatch reports whether the pattern matches at or after start.
func (re *Regexp) IsMatch(h []byte, mode backend.Mode, start int) (bool, error) {
	m, _, err := re.match(h, mode, start)
	return m != nil, err
}

// FindAt returns the leftmost match at or after start.
func (re *Regexp) FindAt(h []byte, mode backend.Mode, start int) (backend.Captures, error) {
	m, text, err := re.match(h, mode, start)
	if err != nil || m == nil {
		return nil, err
	}

	groups := re.info.Groups + 1
	caps := make(backend.Captures, 2*groups)
	caps[0], caps[1] = text.Offset(m.Index), text.Offset(m.Index+m.Length)
	for i := 1; i < groups; i++ {
		caps[2*i], caps[2*i+1] = -1, -1
		g := m.GroupByNumber(i)
		if g == nil || len(g.Captures) == 0 {
			continue
		}
		caps[2*i], caps[2*i+1] = text.Offset(g.Index), text.Offset(g.Index+g.Length)
	}
	return caps, nil
}

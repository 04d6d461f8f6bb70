// Package native runs patterns on coregex, a DFA/NFA engine with RE2
// semantics and linear-time matching.
//
// Binary haystacks are transcoded byte-for-code-point before matching and
// offsets are mapped back afterwards.
//
// coregex steps over non-ASCII input a byte at a time for '.', negated
// classes and properties, and it picks group spans by its own priority.
// A Backend configured with [WithFallback] therefore hands such searches to
// a leftmost-first engine: whole searches when the pattern is
// [syntax.Info.Multibyte] and the haystack is not ASCII, and group spans
// once coregex has located the match.
package native

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/coregx/coregex/meta"

	"go.dw1.io/rbregexp/backend"
	"go.dw1.io/rbregexp/config"
	"go.dw1.io/rbregexp/syntax"
)

var errReleased = errors.New("native: use of released regexp")

// Option configures a [Backend].
type Option func(*Backend)

// WithConfig overrides the coregex engine configuration.
func WithConfig(cfg meta.Config) Option {
	return func(b *Backend) { b.cfg = cfg }
}

// WithFallback sets the engine that resolves searches coregex cannot answer
// exactly. It is compiled on first need.
func WithFallback(fallback backend.Backend) Option {
	return func(b *Backend) { b.fallback = fallback }
}

// Backend compiles patterns for coregex.
type Backend struct {
	cfg      meta.Config
	fallback backend.Backend
}

// New returns a Backend using coregex defaults.
func New(opts ...Option) *Backend {
	b := &Backend{cfg: meta.DefaultConfig()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Engine returns [backend.Primary].
func (*Backend) Engine() backend.Engine { return backend.Primary }

// Compile translates cfg to the RE2 dialect and compiles it.
func (b *Backend) Compile(cfg config.Config) (backend.Compiled, error) {
	tree, err := cfg.Parse()
	if err != nil {
		return nil, err
	}
	if class, err := tree.Classify(); class == syntax.Invalid {
		return nil, err
	}
	expr, err := tree.Emit(syntax.RE2)
	if err != nil {
		return nil, err
	}

	engine, err := meta.CompileWithConfig(expr, b.cfg)
	if err != nil {
		return nil, fmt.Errorf("native: compile %q: %w", expr, err)
	}

	re := &Regexp{expr: expr, info: tree.Info(), cfg: cfg, fb: b.fallback}
	re.engine.Store(engine)
	return re, nil
}

// Regexp is a pattern compiled by coregex. The engine pools its own search
// state, so one instance serves concurrent callers.
type Regexp struct {
	engine atomic.Pointer[meta.Engine]
	expr   string
	info   syntax.Info

	cfg        config.Config
	fb         backend.Backend
	fbOnce     sync.Once
	fbCompiled backend.Compiled
	fbErr      error
}

// Engine returns [backend.Primary].
func (*Regexp) Engine() backend.Engine { return backend.Primary }

// Info returns the group layout.
func (re *Regexp) Info() syntax.Info { return re.info }

// NamedCaptures returns the named group table.
func (re *Regexp) NamedCaptures() []syntax.Name {
	return append([]syntax.Name(nil), re.info.Names...)
}

// String returns the translated expression.
func (re *Regexp) String() string { return re.expr }

// Release drops the engine and the fallback handle, if one was compiled.
func (re *Regexp) Release() {
	re.engine.Store(nil)
	re.fbOnce.Do(func() { re.fbErr = errReleased })
	if re.fbCompiled != nil {
		re.fbCompiled.Release()
	}
}

// fallback returns the compiled fallback, or nil when none is configured.
func (re *Regexp) fallback() (backend.Compiled, error) {
	if re.fb == nil {
		return nil, nil
	}
	re.fbOnce.Do(func() {
		re.fbCompiled, re.fbErr = re.fb.Compile(re.cfg)
		if re.fbErr != nil {
			re.fbErr = fmt.Errorf("native: fallback: %w", re.fbErr)
		}
	})
	return re.fbCompiled, re.fbErr
}

// delegate reports whether the whole search belongs to the fallback.
func (re *Regexp) delegate(h []byte) bool {
	return re.fb != nil && re.info.Multibyte && !backend.IsASCII(h)
}

func (re *Regexp) prepare(h []byte, mode backend.Mode, start int) (*meta.Engine, []byte, int, *backend.Latin1, error) {
	engine := re.engine.Load()
	if engine == nil {
		return nil, nil, 0, nil, errReleased
	}
	if err := backend.CheckStart(h, mode, start); err != nil {
		return nil, nil, 0, nil, err
	}
	if mode == backend.UTF8 {
		return engine, h, start, nil, nil
	}
	l := backend.NewLatin1(h)
	return engine, l.Text, l.To(start), l, nil
}

// IsMatch reports whether the pattern matches at or after start.
func (re *Regexp) IsMatch(h []byte, mode backend.Mode, start int) (bool, error) {
	engine, text, at, _, err := re.prepare(h, mode, start)
	if err != nil {
		return false, err
	}
	if re.delegate(h) {
		fb, err := re.fallback()
		if err != nil {
			return false, err
		}
		return fb.IsMatch(h, mode, start)
	}
	return engine.FindSubmatchAt(text, at) != nil, nil
}

// FindAt returns the leftmost match at or after start.
func (re *Regexp) FindAt(h []byte, mode backend.Mode, start int) (backend.Captures, error) {
	engine, text, at, l, err := re.prepare(h, mode, start)
	if err != nil {
		return nil, err
	}
	if re.delegate(h) {
		fb, err := re.fallback()
		if err != nil {
			return nil, err
		}
		return fb.FindAt(h, mode, start)
	}

	m := engine.FindSubmatchAt(text, at)
	if m == nil {
		return nil, nil
	}
	groups := re.info.Groups + 1
	caps := make(backend.Captures, 2*groups)
	for i := range groups {
		caps[2*i], caps[2*i+1] = -1, -1
		if i >= m.NumCaptures() {
			continue
		}
		idx := m.GroupIndex(i)
		if len(idx) < 2 || idx[0] < 0 {
			continue
		}
		s, e := idx[0], idx[1]
		if l != nil {
			s, e = l.From(s), l.From(e)
		}
		caps[2*i], caps[2*i+1] = s, e
	}
	if groups == 1 {
		return caps, nil
	}

	// The leftmost start does not depend on match priority, so the fallback
	// resumed there finds the same match and assigns groups leftmost-first.
	fb, err := re.fallback()
	if err != nil || fb == nil {
		return caps, nil
	}
	exact, err := fb.FindAt(h, mode, caps[0])
	if err != nil {
		return nil, err
	}
	if exact == nil {
		return caps, nil
	}
	return exact, nil
}

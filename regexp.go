package rbregexp

import (
	"fmt"
	"runtime"
	"unicode/utf8"

	"go.dw1.io/rbregexp/backend"
	"go.dw1.io/rbregexp/config"
	"go.dw1.io/rbregexp/flags"
	"go.dw1.io/rbregexp/internal/cast"
	"go.dw1.io/rbregexp/internal/errs"
	"go.dw1.io/rbregexp/lazy"
)

// Regexp is a Ruby regular expression. It compiles on first use, at most
// once, and is safe for concurrent use.
type Regexp struct {
	src  config.Source
	cfg  config.Config
	lazy *lazy.Lazy

	cleanup  runtime.Cleanup
	interned bool
}

// New returns a Regexp for pattern. Only encoding errors are reported here;
// syntax errors surface on the first match, or from [Regexp.Err].
func New(pattern []byte, opts flags.Options, enc flags.Encoding, options ...Option) (*Regexp, error) {
	src := config.NewSource(pattern, opts, enc)
	cfg, err := config.Normalize(src)
	if err != nil {
		return nil, err
	}

	o := newOptions(options)
	l := lazy.New(cfg, o.primary, o.secondary,
		lazy.WithLogger(o.logger),
		lazy.Force(o.engine),
	)

	re := &Regexp{src: src, cfg: cfg, lazy: l}
	re.cleanup = runtime.AddCleanup(re, (*lazy.Lazy).Release, l)
	return re, nil
}

// NewString is New for a UTF-8 pattern.
func NewString(pattern string, opts flags.Options, options ...Option) (*Regexp, error) {
	return New([]byte(pattern), opts, flags.Fixed, options...)
}

// NewValue builds a Regexp the way Ruby's Regexp.new coerces its
// arguments: the pattern is converted to a string and the option value is
// read with [flags.FromValue].
func NewValue(pattern, optionValue any, options ...Option) (*Regexp, error) {
	s, err := cast.String(pattern)
	if err != nil {
		return nil, fmt.Errorf("rbregexp: pattern: %w", err)
	}
	opts, enc, err := flags.FromValue(optionValue)
	if err != nil {
		return nil, err
	}
	return New([]byte(s), opts, enc, options...)
}

// Compile is NewString followed by compilation, so every error is reported
// immediately.
func Compile(pattern string, opts flags.Options, options ...Option) (*Regexp, error) {
	re, err := NewString(pattern, opts, options...)
	if err != nil {
		return nil, err
	}
	if err := re.Err(); err != nil {
		re.Release()
		return nil, err
	}
	return re, nil
}

// MustCompile is like Compile but panics if the expression cannot be parsed.
func MustCompile(pattern string, opts flags.Options, options ...Option) *Regexp {
	re, err := Compile(pattern, opts, options...)
	if err != nil {
		panic(err)
	}
	return re
}

// Err compiles the pattern if needed and returns the compile error, if any.
// The same error value is returned on every call.
func (re *Regexp) Err() error {
	_, err := re.lazy.Get()
	return err
}

// Release frees the compiled engine. The Regexp must not be used after.
// Unreleased values are freed when garbage collected. Release is a no-op on
// values returned by [Intern].
func (re *Regexp) Release() {
	if re.interned {
		return
	}
	re.cleanup.Stop()
	re.lazy.Release()
}

// Source returns a copy of the pattern as supplied.
func (re *Regexp) Source() []byte { return re.src.Pattern() }

// Options returns the effective options, including inline flags that were
// folded from the start of the pattern.
func (re *Regexp) Options() flags.Options { return re.cfg.Options() }

// Encoding returns the pattern encoding.
func (re *Regexp) Encoding() flags.Encoding { return re.cfg.Encoding() }

// Casefold reports whether the pattern ignores case.
func (re *Regexp) Casefold() bool { return re.cfg.Options().Has(flags.IgnoreCase) }

// Config returns the normalized config.
func (re *Regexp) Config() config.Config { return re.cfg }

// Engine returns the engine in use, or [backend.Auto] if the pattern has
// not compiled.
func (re *Regexp) Engine() backend.Engine { return re.lazy.Engine() }

// Names returns the group names in first-appearance order. It returns nil
// if the pattern does not compile.
func (re *Regexp) Names() []string {
	c, err := re.lazy.Get()
	if err != nil {
		return nil
	}
	return c.Info().NameList()
}

// NamedCaptures maps each group name to its capture indices. It returns
// nil if the pattern does not compile.
func (re *Regexp) NamedCaptures() map[string][]int {
	c, err := re.lazy.Get()
	if err != nil {
		return nil
	}
	names := c.NamedCaptures()
	out := make(map[string][]int, len(names))
	for _, n := range names {
		out[n.Name] = append([]int(nil), n.Indices...)
	}
	return out
}

func (re *Regexp) prepare(h Haystack) (backend.Compiled, backend.Mode, error) {
	c, err := re.lazy.Get()
	if err != nil {
		return nil, 0, err
	}
	mode, err := h.mode(re.cfg.Encoding(), c.Info().ASCIIOnly)
	if err != nil {
		return nil, 0, err
	}
	return c, mode, nil
}

// IsMatch reports whether h contains a match.
func (re *Regexp) IsMatch(h Haystack) (bool, error) {
	c, mode, err := re.prepare(h)
	if err != nil {
		return false, err
	}
	return c.IsMatch(h.Bytes, mode, 0)
}

// Match returns the leftmost match in h, or nil.
func (re *Regexp) Match(h Haystack) (*MatchResult, error) {
	return re.MatchAt(h, 0)
}

// MatchAt returns the leftmost match starting at or after the byte offset
// start, or nil. A negative start counts back from the end of h; a start
// outside h is a non-match. In UTF-8 mode start must be on a character
// boundary.
func (re *Regexp) MatchAt(h Haystack, start int) (*MatchResult, error) {
	c, mode, err := re.prepare(h)
	if err != nil {
		return nil, err
	}

	if start < 0 {
		start += len(h.Bytes)
	}
	if start < 0 || start > len(h.Bytes) {
		return nil, nil
	}

	caps, err := c.FindAt(h.Bytes, mode, start)
	if err != nil || caps == nil {
		return nil, err
	}
	return newMatchResult(h.Bytes, mode, caps, c.NamedCaptures()), nil
}

// MatchAtValue is MatchAt with a host position value counted in
// characters, as Ruby's Regexp#match takes it. Binary haystacks count
// bytes.
func (re *Regexp) MatchAtValue(h Haystack, pos any) (*MatchResult, error) {
	n, err := cast.Int[int](pos)
	if err != nil {
		return nil, errs.InvalidOffset(-1, "position is not an integer: "+err.Error())
	}
	if h.Encoding == flags.None || !utf8.Valid(h.Bytes) {
		return re.MatchAt(h, n)
	}

	chars := utf8.RuneCount(h.Bytes)
	if n < 0 {
		n += chars
	}
	if n < 0 || n > chars {
		return nil, nil
	}
	off := 0
	for range n {
		_, size := utf8.DecodeRune(h.Bytes[off:])
		off += size
	}
	return re.MatchAt(h, off)
}

// String returns the pattern in the form of Ruby's Regexp#to_s, which
// embeds the options so it can be nested in another pattern.
func (re *Regexp) String() string {
	buf := make([]byte, 0, len(re.cfg.Pattern())+8)
	buf = append(buf, "(?"...)
	buf = append(buf, re.cfg.Options().Display()...)
	buf = append(buf, ':')
	buf = appendSource(buf, re.cfg.Pattern(), re.cfg.Encoding())
	buf = append(buf, ')')
	return string(buf)
}

// Inspect returns the pattern as a Ruby literal, for example /a\/b/mi.
func (re *Regexp) Inspect() string {
	pattern := re.src.Pattern()
	buf := make([]byte, 0, len(pattern)+6)
	buf = append(buf, '/')
	buf = appendSource(buf, string(pattern), re.src.Encoding())
	buf = append(buf, '/')
	buf = append(buf, re.src.Options().Modifiers()...)
	buf = append(buf, re.src.Encoding().Modifier()...)
	return string(buf)
}

// Equal reports whether both values were built from the same pattern,
// options and encoding.
func (re *Regexp) Equal(o *Regexp) bool {
	if re == nil || o == nil {
		return re == o
	}
	return re.src.Equal(o.src)
}

// Hash is consistent with Equal.
func (re *Regexp) Hash() uint64 { return re.src.Hash() }

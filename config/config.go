package config

import (
	"unicode/utf8"

	"go.dw1.io/rbregexp/flags"
	"go.dw1.io/rbregexp/internal/errs"
	"go.dw1.io/rbregexp/internal/wyhash"
	"go.dw1.io/rbregexp/syntax"
)

// Config is the canonical form of a [Source]: the pattern with foldable
// leading inline flags moved into Options.
type Config struct {
	pattern  string
	options  flags.Options
	encoding flags.Encoding
}

// Normalize canonicalizes src. It fails only on encoding errors; syntax is
// checked later, when the pattern is compiled.
func Normalize(src Source) (Config, error) {
	pattern := string(src.pattern)
	if src.encoding == flags.Fixed && !utf8.ValidString(pattern) {
		return Config{}, errs.Encoding("invalid multibyte character: /%s/", escapeInvalid(pattern))
	}

	pattern = syntax.UnescapeSlashes(pattern)
	opts := src.options
	for {
		m, ok := syntax.LeadingModifiers(pattern, opts)
		if !ok {
			break
		}
		opts = opts.With(m.On).Without(m.Off)
		pattern = m.Rest
	}

	return Config{pattern: pattern, options: opts, encoding: src.encoding}, nil
}

// Pattern returns the normalized pattern.
func (c Config) Pattern() string { return c.pattern }

// Options returns the effective top-level options.
func (c Config) Options() flags.Options { return c.options }

// Encoding returns the pattern encoding.
func (c Config) Encoding() flags.Encoding { return c.encoding }

// Source returns c as a Source. Normalizing it yields c again.
func (c Config) Source() Source {
	return Source{pattern: []byte(c.pattern), options: c.options, encoding: c.encoding}
}

// Equal reports whether two configs are identical.
func (c Config) Equal(o Config) bool {
	return c.pattern == o.pattern && c.options == o.options && c.encoding == o.encoding
}

// Hash is consistent with Equal.
func (c Config) Hash() uint64 {
	return wyhash.New(configSeed).
		String(c.pattern).
		Uint(uint64(c.options)).
		Uint(uint64(c.encoding)).
		Sum64()
}

// Parse parses the normalized pattern.
func (c Config) Parse() (*syntax.Tree, error) {
	return syntax.Parse(c.pattern, c.options, c.encoding)
}

// escapeInvalid renders invalid bytes as \xHH for error messages.
func escapeInvalid(s string) string {
	out := make([]byte, 0, len(s))
	for len(s) > 0 {
		r, n := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && n == 1 {
			const hex = "0123456789ABCDEF"
			out = append(out, '\\', 'x', hex[s[0]>>4], hex[s[0]&0xf])
		} else {
			out = append(out, s[:n]...)
		}
		s = s[n:]
	}
	return string(out)
}

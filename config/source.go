package config

import (
	"bytes"

	"go.dw1.io/rbregexp/flags"
	"go.dw1.io/rbregexp/internal/wyhash"
)

const (
	sourceSeed = 0x5f3759df
	configSeed = 0x9e3779b9
)

// Source is a pattern exactly as the host supplied it.
type Source struct {
	pattern  []byte
	options  flags.Options
	encoding flags.Encoding
}

// NewSource returns a Source. The pattern is copied.
func NewSource(pattern []byte, options flags.Options, encoding flags.Encoding) Source {
	return Source{
		pattern:  bytes.Clone(pattern),
		options:  options & flags.All,
		encoding: encoding,
	}
}

// Pattern returns a copy of the pattern bytes.
func (s Source) Pattern() []byte { return bytes.Clone(s.pattern) }

// Options returns the options as supplied.
func (s Source) Options() flags.Options { return s.options }

// Encoding returns the declared encoding.
func (s Source) Encoding() flags.Encoding { return s.encoding }

// Equal reports whether two sources have the same bytes, options and
// encoding.
func (s Source) Equal(o Source) bool {
	return s.options == o.options && s.encoding == o.encoding && bytes.Equal(s.pattern, o.pattern)
}

// Hash is consistent with Equal.
func (s Source) Hash() uint64 {
	return s.digest(sourceSeed).Sum64()
}

// Key returns a string usable as a map key, consistent with Equal.
func (s Source) Key() string {
	return s.digest(0).Key()
}

func (s Source) digest(seed uint64) *wyhash.Digest {
	return wyhash.New(seed).
		Bytes(s.pattern).
		Uint(uint64(s.options)).
		Uint(uint64(s.encoding))
}

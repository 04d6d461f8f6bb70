// Package backend defines the contract between the dispatcher and the
// matching engines.
//
// A [Backend] turns a normalized [config.Config] into a [Compiled] handle.
// Both engines number capture groups the same way and report byte offsets
// into the caller's haystack, so results are interchangeable.
package backend

import (
	"go.dw1.io/rbregexp/config"
	"go.dw1.io/rbregexp/syntax"
)

// Engine identifies a backend.
type Engine uint8

const (
	// Auto lets the dispatcher choose.
	Auto Engine = iota
	// Primary is the automaton engine (coregex).
	Primary
	// Secondary is the backtracking engine (regexp2).
	Secondary
)

func (e Engine) String() string {
	switch e {
	case Primary:
		return "primary"
	case Secondary:
		return "secondary"
	default:
		return "auto"
	}
}

// Mode is the character model used for one match.
type Mode uint8

const (
	// UTF8 treats the haystack as UTF-8 text. Offsets must fall on
	// character boundaries.
	UTF8 Mode = iota
	// Binary treats every byte as one character.
	Binary
)

func (m Mode) String() string {
	if m == Binary {
		return "binary"
	}
	return "utf8"
}

// Captures holds byte offsets in the style of regexp.FindSubmatchIndex:
// pairs for group 0..n, with -1 for groups that did not participate.
type Captures []int

// Group returns the span of group i.
func (c Captures) Group(i int) (start, end int, ok bool) {
	if 2*i+1 >= len(c) || c[2*i] < 0 {
		return -1, -1, false
	}
	return c[2*i], c[2*i+1], true
}

// Len returns the number of groups, including group 0.
func (c Captures) Len() int { return len(c) / 2 }

// Backend compiles configs for one engine.
type Backend interface {
	Engine() Engine
	Compile(cfg config.Config) (Compiled, error)
}

// Compiled is a compiled pattern. Implementations are safe for concurrent
// use.
type Compiled interface {
	Engine() Engine
	// Info reports the group layout.
	Info() syntax.Info
	// IsMatch reports whether the pattern matches at or after start.
	IsMatch(h []byte, mode Mode, start int) (bool, error)
	// FindAt returns the leftmost match at or after start, or nil.
	FindAt(h []byte, mode Mode, start int) (Captures, error)
	// NamedCaptures maps each group name to its indices.
	NamedCaptures() []syntax.Name
	// Release drops engine resources. The handle must not be used after.
	Release()
}

package syntax

import (
	"unicode/utf8"

	"go.dw1.io/rbregexp/flags"
)

// Compat classifies a parsed pattern by the backends able to run it.
type Compat uint8

const (
	// PrimaryCompatible patterns can run on the automaton engine.
	PrimaryCompatible Compat = iota
	// SecondaryRequired patterns need the backtracking engine.
	SecondaryRequired
	// Invalid patterns can run nowhere.
	Invalid
)

func (c Compat) String() string {
	switch c {
	case PrimaryCompatible:
		return "primary"
	case SecondaryRequired:
		return "secondary"
	default:
		return "invalid"
	}
}

// Classify reports which backend the pattern needs. The answer is advisory:
// a PrimaryCompatible pattern may still exceed a primary engine limit such
// as its repeat cap, in which case the caller falls back.
func (t *Tree) Classify() (Compat, error) {
	if t.unsupported != nil {
		return Invalid, t.unsupported
	}
	if t.Features&secondaryOnly != 0 {
		return SecondaryRequired, nil
	}
	return PrimaryCompatible, nil
}

// String returns the source pattern.
func (t *Tree) String() string {
	return t.Pattern
}

func multibyte(n Node) bool {
	switch n := n.(type) {
	case *Any, *Property, *Linebreak:
		return true
	case *Perl:
		return n.Negated
	case *Class:
		s, ok := lowerClass(n)
		if !ok || s.neg || len(s.props) > 0 {
			return true
		}
		return len(s.runes) > 0 && s.runes[len(s.runes)-1].Hi >= utf8.RuneSelf
	case *Group:
		return n.On.Has(flags.IgnoreCase) || multibyte(n.Body)
	case *Concat:
		return anyMultibyte(n.Subs)
	case *Alternate:
		return anyMultibyte(n.Subs)
	case *Repeat:
		return multibyte(n.Sub)
	case *Conditional:
		return multibyte(n.Yes) || (n.No != nil && multibyte(n.No))
	}
	return false
}

func anyMultibyte(ns []Node) bool {
	for _, n := range ns {
		if multibyte(n) {
			return true
		}
	}
	return false
}

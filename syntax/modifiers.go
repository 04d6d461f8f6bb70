package syntax

import (
	"strings"

	"go.dw1.io/rbregexp/flags"
)

// Modifiers is a leading inline flag group found by [LeadingModifiers].
type Modifiers struct {
	On, Off flags.Options
	// Rest is the pattern with the group removed.
	Rest string
	// Wrapped reports the (?on-off:...) form spanning the whole pattern.
	Wrapped bool
}

// LeadingModifiers recognizes a pattern that begins with a bare (?on-off)
// group, or that is entirely one (?on-off:...) group. Only i, m and x are
// folded; any other letter makes ok false. opts are the options in effect,
// needed to find the end of a wrapper in extended mode.
func LeadingModifiers(pattern string, opts flags.Options) (m Modifiers, ok bool) {
	if !strings.HasPrefix(pattern, "(?") {
		return m, false
	}
	i := 2
	neg := false
	for ; i < len(pattern); i++ {
		c := pattern[i]
		switch c {
		case '-':
			if neg {
				return Modifiers{}, false
			}
			neg = true
			continue
		case ')':
			if i == 2 {
				return Modifiers{}, false
			}
			m.Rest = pattern[i+1:]
			return m, true
		case ':':
			if i == 2 {
				return Modifiers{}, false
			}
			end := groupEnd(pattern, i+1, opts.With(m.On).Without(m.Off))
			if end != len(pattern)-1 {
				return Modifiers{}, false
			}
			m.Rest = pattern[i+1 : end]
			m.Wrapped = true
			return m, true
		}
		o, known := flags.Letter(c)
		if !known {
			return Modifiers{}, false
		}
		if neg {
			m.Off |= o
		} else {
			m.On |= o
		}
	}
	return Modifiers{}, false
}

// groupEnd returns the index of the ')' that closes the group whose body
// starts at i, or -1. It understands escapes, classes, comments and the
// scope of inline x flags.
func groupEnd(s string, i int, opts flags.Options) int {
	stack := []flags.Options{opts}
	cur := opts
	for i < len(s) {
		c := s[i]
		switch {
		case c == '\\':
			i += 2
			continue
		case c == '[':
			i = classEnd(s, i+1)
			if i < 0 {
				return -1
			}
		case c == '#' && cur.Has(flags.Extended):
			nl := strings.IndexByte(s[i:], '\n')
			if nl < 0 {
				return -1
			}
			i += nl
		case strings.HasPrefix(s[i:], "(?#"):
			end := commentEnd(s, i+3)
			if end < 0 {
				return -1
			}
			i = end
		case c == '(':
			stack = append(stack, cur)
			if mods, ok := LeadingModifiers(s[i:], cur); ok && !mods.Wrapped {
				// A bare flag group changes the rest of the current group.
				stack = stack[:len(stack)-1]
				cur = cur.With(mods.On).Without(mods.Off)
				i = len(s) - len(mods.Rest)
				continue
			}
			if on, off, ok := scopedFlags(s[i:]); ok {
				cur = cur.With(on).Without(off)
			}
		case c == ')':
			if len(stack) == 1 {
				return i
			}
			cur = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
		}
		i++
	}
	return -1
}

// scopedFlags reads the flags of a (?on-off:...) group opening s.
func scopedFlags(s string) (on, off flags.Options, ok bool) {
	if !strings.HasPrefix(s, "(?") {
		return 0, 0, false
	}
	neg := false
	for i := 2; i < len(s); i++ {
		switch c := s[i]; c {
		case '-':
			neg = true
		case ':':
			return on, off, true
		default:
			o, known := flags.Letter(c)
			if !known {
				return 0, 0, false
			}
			if neg {
				off |= o
			} else {
				on |= o
			}
		}
	}
	return 0, 0, false
}

// classEnd returns the index of the ']' closing a class whose body starts
// at i, or -1.
func classEnd(s string, i int) int {
	if i < len(s) && s[i] == '^' {
		i++
	}
	if i < len(s) && s[i] == ']' {
		i++
	}
	for i < len(s) {
		switch s[i] {
		case '\\':
			i++
		case '[':
			end := classEnd(s, i+1)
			if end < 0 {
				return -1
			}
			i = end
		case ']':
			return i
		}
		i++
	}
	return -1
}

// UnescapeSlashes rewrites each escaped '/' to a plain '/'. Other escapes
// are left intact.
func UnescapeSlashes(pattern string) string {
	if !strings.Contains(pattern, `\/`) {
		return pattern
	}
	var b strings.Builder
	b.Grow(len(pattern))
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c == '\\' && i+1 < len(pattern) {
			if pattern[i+1] == '/' {
				b.WriteByte('/')
			} else {
				b.WriteByte(c)
				b.WriteByte(pattern[i+1])
			}
			i++
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

package syntax

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"go.dw1.io/rbregexp/flags"
	"go.dw1.io/rbregexp/internal/errs"
)

// Dialect selects the target grammar for [Tree.Emit].
type Dialect uint8

const (
	// RE2 is Go regexp/syntax, as accepted by coregex.
	RE2 Dialect = iota
	// DotNet is the .NET grammar accepted by regexp2.
	DotNet
)

func (d Dialect) String() string {
	if d == DotNet {
		return "dotnet"
	}
	return "re2"
}

// Emit renders the tree in the target dialect. Capture groups are always
// emitted unnamed so that both dialects agree on numbering.
//
// The RE2 rendering carries the top-level flags as an inline prefix. The
// DotNet rendering does not; callers pass them as engine options.
func (t *Tree) Emit(d Dialect) (string, error) {
	if t.unsupported != nil {
		return "", t.unsupported
	}

	e := &emitter{d: d, enc: t.Encoding, pattern: t.Pattern}
	if d == RE2 {
		if f := t.Features & secondaryOnly; f != 0 {
			return "", errs.Unsupported(t.Pattern, -1, f.String())
		}
		// Ruby's ^ and $ always match at line boundaries.
		e.b.WriteString("(?m")
		if t.Options.Has(flags.IgnoreCase) {
			e.b.WriteByte('i')
		}
		if t.Options.Has(flags.Multiline) {
			e.b.WriteByte('s')
		}
		e.b.WriteByte(')')
	}
	if err := e.emit(t.Root); err != nil {
		return "", err
	}
	return e.b.String(), nil
}

type emitter struct {
	d       Dialect
	enc     flags.Encoding
	pattern string
	b       strings.Builder
}

func (e *emitter) unsupported(construct string) error {
	return errs.Unsupported(e.pattern, -1, construct+" in "+e.d.String()+" dialect")
}

func (e *emitter) emit(n Node) error {
	switch n := n.(type) {
	case *Empty:
	case *Literal:
		e.rune(n.R, false)
	case *Any:
		e.b.WriteByte('.')
	case *Assert:
		return e.assert(n)
	case *Perl:
		rs := perlRanges[n.Kind]
		e.set(classSet{runes: rs, neg: n.Negated})
	case *Property:
		e.property(n)
	case *Class:
		return e.class(n)
	case *Group:
		return e.group(n)
	case *Concat:
		for _, sub := range n.Subs {
			if err := e.emit(sub); err != nil {
				return err
			}
		}
	case *Alternate:
		for i, sub := range n.Subs {
			if i > 0 {
				e.b.WriteByte('|')
			}
			if err := e.emit(sub); err != nil {
				return err
			}
		}
	case *Repeat:
		return e.repeat(n)
	case *Backref:
		return e.backref(n)
	case *Conditional:
		return e.conditional(n)
	case *Linebreak:
		e.linebreak()
	default:
		return fmt.Errorf("syntax: unexpected node %T", n)
	}
	return nil
}

func (e *emitter) assert(n *Assert) error {
	switch n.Kind {
	case LineStart:
		e.b.WriteByte('^')
	case LineEnd:
		e.b.WriteByte('$')
	case TextStart:
		e.b.WriteString(`\A`)
	case TextEnd:
		e.b.WriteString(`\z`)
	case WordBoundary:
		if e.d == DotNet {
			e.b.WriteString(asciiWordBoundary)
		} else {
			e.b.WriteString(`\b`)
		}
	case NonWordBoundary:
		if e.d == DotNet {
			e.b.WriteString(asciiNonWordBoundary)
		} else {
			e.b.WriteString(`\B`)
		}
	case TextEndNewline:
		if e.d == RE2 {
			return e.unsupported(`\Z`)
		}
		e.b.WriteString(`\Z`)
	case SearchStart:
		if e.d == RE2 {
			return e.unsupported(`\G`)
		}
		e.b.WriteString(`\G`)
	}
	return nil
}

// regexp2 treats \b as a Unicode word boundary. Word characters are ASCII
// here, matching \w and the RE2 \b.
const (
	asciiWordBoundary    = `(?-i:(?<=[0-9A-Za-z_])(?![0-9A-Za-z_])|(?<![0-9A-Za-z_])(?=[0-9A-Za-z_]))`
	asciiNonWordBoundary = `(?-i:(?<=[0-9A-Za-z_])(?=[0-9A-Za-z_])|(?<![0-9A-Za-z_])(?![0-9A-Za-z_]))`
)

func (e *emitter) group(n *Group) error {
	switch n.Kind {
	case Capture:
		e.b.WriteByte('(')
	case NonCapture:
		e.b.WriteString("(?")
		e.b.WriteString(groupFlags(n.On))
		if off := groupFlags(n.Off); off != "" {
			e.b.WriteByte('-')
			e.b.WriteString(off)
		}
		e.b.WriteByte(':')
	default:
		if e.d == RE2 {
			return e.unsupported("lookaround or atomic group")
		}
		e.b.WriteString(map[GroupKind]string{
			Atomic:        "(?>",
			LookAhead:     "(?=",
			NegLookAhead:  "(?!",
			LookBehind:    "(?<=",
			NegLookBehind: "(?<!",
		}[n.Kind])
	}
	if err := e.emit(n.Body); err != nil {
		return err
	}
	e.b.WriteByte(')')
	return nil
}

// groupFlags maps Ruby inline flags onto both dialects. Ruby's m is
// dot-all; x was already consumed by the parser.
func groupFlags(o flags.Options) string {
	s := ""
	if o.Has(flags.IgnoreCase) {
		s += "i"
	}
	if o.Has(flags.Multiline) {
		s += "s"
	}
	return s
}

func (e *emitter) repeat(n *Repeat) error {
	if n.Possessive {
		if e.d == RE2 {
			return e.unsupported("possessive quantifier")
		}
		e.b.WriteString("(?>")
	}

	wrap := false
	switch n.Sub.(type) {
	case *Concat, *Alternate, *Repeat, *Empty, *Assert:
		wrap = true
	}
	if wrap {
		e.b.WriteString("(?:")
	}
	if err := e.emit(n.Sub); err != nil {
		return err
	}
	if wrap {
		e.b.WriteByte(')')
	}

	switch {
	case n.Min == 0 && n.Max == -1:
		e.b.WriteByte('*')
	case n.Min == 1 && n.Max == -1:
		e.b.WriteByte('+')
	case n.Min == 0 && n.Max == 1:
		e.b.WriteByte('?')
	case n.Max == -1:
		e.b.WriteString("{" + strconv.Itoa(n.Min) + ",}")
	case n.Min == n.Max:
		e.b.WriteString("{" + strconv.Itoa(n.Min) + "}")
	default:
		e.b.WriteString("{" + strconv.Itoa(n.Min) + "," + strconv.Itoa(n.Max) + "}")
	}
	if n.Lazy {
		e.b.WriteByte('?')
	}
	if n.Possessive {
		e.b.WriteByte(')')
	}
	return nil
}

// backref writes (?:\N), or (?:\3|\1) for a name carried by several groups
// so the most recent definition is tried first.
func (e *emitter) backref(n *Backref) error {
	if e.d == RE2 {
		return e.unsupported("backreference")
	}
	e.b.WriteString("(?:")
	for i := len(n.Indices) - 1; i >= 0; i-- {
		e.b.WriteByte('\\')
		e.b.WriteString(strconv.Itoa(n.Indices[i]))
		if i > 0 {
			e.b.WriteByte('|')
		}
	}
	e.b.WriteByte(')')
	return nil
}

func (e *emitter) conditional(n *Conditional) error {
	if e.d == RE2 {
		return e.unsupported("conditional")
	}
	e.b.WriteString("(?(" + strconv.Itoa(n.Index) + ")")
	if err := e.emit(n.Yes); err != nil {
		return err
	}
	if n.No != nil {
		e.b.WriteByte('|')
		if err := e.emit(n.No); err != nil {
			return err
		}
	}
	e.b.WriteByte(')')
	return nil
}

func (e *emitter) linebreak() {
	set := runeSet{{'\n', '\r'}}
	if e.enc != flags.None {
		set = append(set, Range{0x85, 0x85}, Range{0x2028, 0x2029})
	}
	if e.d == DotNet {
		e.b.WriteString(`(?>\r\n|`)
	} else {
		e.b.WriteString(`(?:\r\n|`)
	}
	e.set(classSet{runes: set})
	e.b.WriteByte(')')
}

func (e *emitter) property(n *Property) {
	if n.Negated {
		e.b.WriteString(`\P{`)
	} else {
		e.b.WriteString(`\p{`)
	}
	e.b.WriteString(n.Name)
	e.b.WriteByte('}')
}

// class writes a bracket expression. Classes that do not reduce to one
// bracket become an alternation of brackets, a .NET subtraction, or a
// negative lookahead over one character.
func (e *emitter) class(c *Class) error {
	if s, ok := lowerClass(c); ok {
		e.set(s)
		return nil
	}

	if c.Negated {
		if e.d == RE2 {
			return e.unsupported("negated class set")
		}
		e.b.WriteString("(?:(?!")
		pos := *c
		pos.Negated = false
		if err := e.class(&pos); err != nil {
			return err
		}
		e.b.WriteString(`)[\s\S])`)
		return nil
	}

	if c.And != nil {
		if e.d == RE2 {
			return e.unsupported("class intersection")
		}
		lhs, lok := lowerClass(&Class{Items: c.Items})
		rhs, rok := lowerClass(c.And)
		if !lok || !rok {
			return e.unsupported("class intersection")
		}
		// X && Y is X minus the complement of Y.
		rhs.neg = !rhs.neg
		e.b.WriteByte('[')
		e.setBody(lhs)
		e.b.WriteString("-[")
		if rhs.neg {
			e.b.WriteByte('^')
		}
		e.setBody(rhs)
		e.b.WriteString("]]")
		return nil
	}

	var simple []ClassItem
	var nested []*Class
	for _, it := range c.Items {
		if n, ok := it.(*Class); ok {
			if _, ok := lowerClass(n); !ok || n.Negated {
				nested = append(nested, n)
				continue
			}
		}
		simple = append(simple, it)
	}
	e.b.WriteString("(?:")
	alt := false
	if len(simple) > 0 {
		s, _ := lowerClass(&Class{Items: simple})
		e.set(s)
		alt = true
	}
	for _, n := range nested {
		if alt {
			e.b.WriteByte('|')
		}
		if err := e.class(n); err != nil {
			return err
		}
		alt = true
	}
	e.b.WriteByte(')')
	return nil
}

// set writes one bracket. Empty and full sets need special spellings in
// both dialects.
func (e *emitter) set(s classSet) {
	if len(s.props) == 0 {
		empty := len(s.runes) == 0
		full := s.runes.full()
		switch {
		case (empty && !s.neg) || (full && s.neg):
			e.never()
			return
		case (empty && s.neg) || (full && !s.neg):
			e.anyChar()
			return
		}
	}
	e.b.WriteByte('[')
	if s.neg {
		e.b.WriteByte('^')
	}
	e.setBody(s)
	e.b.WriteByte(']')
}

func (e *emitter) setBody(s classSet) {
	for _, r := range s.runes {
		e.rune(r.Lo, true)
		switch {
		case r.Hi == r.Lo:
		case r.Hi == r.Lo+1:
			e.rune(r.Hi, true)
		default:
			e.b.WriteByte('-')
			e.rune(r.Hi, true)
		}
	}
	for _, p := range s.props {
		e.property(p)
	}
}

func (e *emitter) never() {
	if e.d == DotNet {
		e.b.WriteString("(?!)")
		return
	}
	e.b.WriteString(`[^\x00-\x{10FFFF}]`)
}

func (e *emitter) anyChar() {
	if e.d == DotNet {
		e.b.WriteString(`[\s\S]`)
		return
	}
	e.b.WriteString(`[\x00-\x{10FFFF}]`)
}

// rune writes r so that it is literal in the target dialect.
func (e *emitter) rune(r rune, inClass bool) {
	switch {
	case r < 0x20 || r == 0x7f:
		e.hex(r)
	case r < 0x80:
		c := byte(r)
		if needsEscape(c, inClass) {
			e.b.WriteByte('\\')
		}
		e.b.WriteByte(c)
	default:
		e.hex(r)
	}
}

func (e *emitter) hex(r rune) {
	if e.d == RE2 {
		fmt.Fprintf(&e.b, `\x{%X}`, r)
		return
	}
	switch {
	case r <= 0xff:
		fmt.Fprintf(&e.b, `\x%02X`, r)
	case r <= 0xffff:
		fmt.Fprintf(&e.b, `\u%04X`, r)
	default:
		// regexp2 reads its pattern as runes, so astral characters are
		// written as themselves.
		if r > unicode.MaxRune {
			r = unicode.ReplacementChar
		}
		e.b.WriteRune(r)
	}
}

// needsEscape reports whether an ASCII punctuation byte must be escaped.
// Both dialects accept an escaped punctuation character except '_', which
// .NET rejects.
func needsEscape(c byte, inClass bool) bool {
	if c == '_' || c == ' ' || isWord(c) {
		return false
	}
	if inClass {
		return strings.IndexByte(`\]^-[`, c) >= 0
	}
	return strings.IndexByte(`\.+*?()|[]{}^$#`, c) >= 0
}

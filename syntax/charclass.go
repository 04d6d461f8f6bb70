package syntax

import (
	"cmp"
	"slices"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"go.dw1.io/rbregexp/flags"
)

func (p *parser) parseClass(start int) (*Class, error) {
	cls := &Class{}
	if p.peek('^') {
		cls.Negated = true
		p.pos++
	}
	if err := p.classBody(start, cls, true); err != nil {
		return nil, err
	}

	if !primaryClass(cls) {
		p.feat |= FeatClassSet
	}
	if !secondaryClass(cls) {
		p.unsupportedAt(start, "character class set")
	}
	return cls, nil
}

// classBody reads items up to and including the closing ']'. A ']' that
// opens the body is literal.
func (p *parser) classBody(start int, cls *Class, first bool) error {
	for {
		if p.eof() {
			return p.fail(start, "premature end of char-class")
		}
		if p.peek(']') && !first {
			p.pos++
			return nil
		}
		first = false

		if strings.HasPrefix(p.src[p.pos:], "&&") {
			p.pos += 2
			rhs := &Class{}
			if err := p.classBody(start, rhs, false); err != nil {
				return err
			}
			switch {
			case len(rhs.Items) == 0 && rhs.And == nil:
			case len(cls.Items) == 0:
				cls.Items, cls.And = rhs.Items, rhs.And
			default:
				cls.And = rhs
			}
			return nil
		}

		items, err := p.classItem(start)
		if err != nil {
			return err
		}
		cls.Items = append(cls.Items, items...)
	}
}

func (p *parser) classItem(start int) ([]ClassItem, error) {
	if p.peek('[') {
		posix, ok, err := p.posixBracket(start)
		if err != nil {
			return nil, err
		}
		if ok {
			return []ClassItem{posix}, nil
		}
		p.pos++
		nested := &Class{}
		if p.peek('^') {
			nested.Negated = true
			p.pos++
		}
		if err := p.classBody(start, nested, true); err != nil {
			return nil, err
		}
		return []ClassItem{nested}, nil
	}

	lo, items, err := p.classAtom(start)
	if err != nil || items != nil {
		return items, err
	}
	if p.pos+1 < len(p.src) && p.src[p.pos] == '-' && p.src[p.pos+1] != ']' && p.src[p.pos+1] != '[' {
		p.pos++
		hi, other, err := p.classAtom(start)
		if err != nil {
			return nil, err
		}
		if other != nil {
			return nil, p.fail(start, "char-class value at end of range")
		}
		if hi < lo {
			return nil, p.fail(start, "empty range in char class")
		}
		return []ClassItem{p.rangeItem(lo, hi)}, nil
	}
	return []ClassItem{p.rangeItem(lo, lo)}, nil
}

// classAtom reads one class member. It returns a single character, or the
// items of a shorthand, property or multi-character escape.
func (p *parser) classAtom(start int) (rune, []ClassItem, error) {
	if !p.peek('\\') {
		return p.next(), nil, nil
	}
	esc := p.pos
	p.pos++
	if p.eof() {
		return 0, nil, p.fail(start, "premature end of char-class")
	}

	c := p.src[p.pos]
	switch c {
	case 'd', 'w', 's', 'h':
		p.pos++
		return 0, []ClassItem{&Perl{Kind: c}}, nil
	case 'D', 'W', 'S', 'H':
		p.pos++
		return 0, []ClassItem{&Perl{Kind: c + 'a' - 'A', Negated: true}}, nil
	case 'p', 'P':
		item, err := p.property(esc)
		if err != nil {
			return 0, nil, err
		}
		return 0, []ClassItem{item.(ClassItem)}, nil
	case 'b':
		p.pos++
		return 0x08, nil, nil
	case '1', '2', '3', '4', '5', '6', '7':
		v, err := p.octal(esc, 3)
		return v, nil, err
	}

	rs, err := p.charEscape(esc)
	if err != nil {
		return 0, nil, err
	}
	if len(rs) == 1 {
		return rs[0], nil, nil
	}
	items := make([]ClassItem, len(rs))
	for i, r := range rs {
		items[i] = p.rangeItem(r, r)
	}
	return 0, items, nil
}

func (p *parser) rangeItem(lo, hi rune) *Range {
	if hi >= utf8.RuneSelf {
		p.nonASCII = true
	}
	return &Range{Lo: lo, Hi: hi}
}

// posixBracket parses [:name:] or [:^name:] at p.pos. ok is false when the
// bracket is an ordinary nested class.
func (p *parser) posixBracket(start int) (ClassItem, bool, error) {
	s := p.src[p.pos:]
	if !strings.HasPrefix(s, "[:") {
		return nil, false, nil
	}
	i := 2
	negated := false
	if i < len(s) && s[i] == '^' {
		negated = true
		i++
	}
	j := i
	for j < len(s) && 'a' <= s[j] && s[j] <= 'z' {
		j++
	}
	if !strings.HasPrefix(s[j:], ":]") {
		return nil, false, nil
	}
	name := s[i:j]
	if _, ok := posixClasses[name]; !ok {
		return nil, false, p.fail(start, "invalid POSIX bracket type")
	}
	p.pos += j + 2
	if p.enc != flags.None {
		// Brackets follow Unicode under a character encoding, unlike \d
		// and \w.
		return propertyAliases[name].class(negated), true, nil
	}
	return &Posix{Name: name, Negated: negated}, true, nil
}

// runeSet is a sorted list of disjoint, non-adjacent ranges once
// normalized.
type runeSet []Range

func (s runeSet) norm() runeSet {
	if len(s) == 0 {
		return s
	}
	s = slices.Clone(s)
	slices.SortFunc(s, func(a, b Range) int { return cmp.Compare(a.Lo, b.Lo) })
	out := s[:1]
	for _, r := range s[1:] {
		last := &out[len(out)-1]
		if r.Lo <= last.Hi+1 {
			last.Hi = max(last.Hi, r.Hi)
			continue
		}
		out = append(out, r)
	}
	return out
}

// negate complements a normalized set over every code point.
func (s runeSet) negate() runeSet {
	var out runeSet
	next := rune(0)
	for _, r := range s {
		if r.Lo > next {
			out = append(out, Range{Lo: next, Hi: r.Lo - 1})
		}
		next = r.Hi + 1
	}
	if next <= unicode.MaxRune {
		out = append(out, Range{Lo: next, Hi: unicode.MaxRune})
	}
	return out
}

func (s runeSet) full() bool {
	return len(s) == 1 && s[0].Lo == 0 && s[0].Hi == unicode.MaxRune
}

func intersect(a, b runeSet) runeSet {
	return append(a.negate(), b.negate()...).norm().negate()
}

// classSet is a class reduced to one bracket: neg applied to the union of
// runes and props.
type classSet struct {
	runes runeSet
	props []*Property
	neg   bool
}

// lowerClass flattens nested unions and intersections into a single
// bracket. It fails when a property sits under a nested negation or an
// intersection.
func lowerClass(c *Class) (classSet, bool) {
	var out classSet
	for _, it := range c.Items {
		switch it := it.(type) {
		case *Range:
			out.runes = append(out.runes, *it)
		case *Perl:
			rs := perlRanges[it.Kind]
			if it.Negated {
				rs = rs.negate()
			}
			out.runes = append(out.runes, rs...)
		case *Posix:
			rs := posixClasses[it.Name]
			if it.Negated {
				rs = rs.negate()
			}
			out.runes = append(out.runes, rs...)
		case *Property:
			out.props = append(out.props, it)
		case *Class:
			sub, ok := lowerClass(it)
			if !ok {
				return classSet{}, false
			}
			if sub.neg {
				if len(sub.props) > 0 {
					return classSet{}, false
				}
				out.runes = append(out.runes, sub.runes.negate()...)
				continue
			}
			out.runes = append(out.runes, sub.runes...)
			out.props = append(out.props, sub.props...)
		}
	}
	out.runes = out.runes.norm()

	if c.And != nil {
		rhs, ok := lowerClass(c.And)
		if !ok || len(out.props) > 0 || len(rhs.props) > 0 {
			return classSet{}, false
		}
		r := rhs.runes
		if rhs.neg {
			r = r.negate()
		}
		out.runes = intersect(out.runes, r)
	}
	out.neg = c.Negated
	return out, true
}

// primaryClass reports whether the RE2 dialect can express c, possibly as
// an alternation of brackets.
func primaryClass(c *Class) bool {
	if _, ok := lowerClass(c); ok {
		return true
	}
	if c.And != nil || c.Negated {
		return false
	}
	for _, it := range c.Items {
		if n, ok := it.(*Class); ok && !primaryClass(n) {
			return false
		}
	}
	return true
}

// secondaryClass reports whether the .NET dialect can express c, using
// class subtraction for a single intersection.
func secondaryClass(c *Class) bool {
	if _, ok := lowerClass(c); ok {
		return true
	}
	if c.And == nil {
		for _, it := range c.Items {
			if n, ok := it.(*Class); ok && !secondaryClass(n) {
				return false
			}
		}
		return true
	}
	_, lok := lowerClass(&Class{Items: c.Items})
	_, rok := lowerClass(c.And)
	return lok && rok
}

var perlRanges = map[byte]runeSet{
	'd': {{'0', '9'}},
	'w': {{'0', '9'}, {'A', 'Z'}, {'_', '_'}, {'a', 'z'}},
	's': {{'\t', '\r'}, {' ', ' '}},
	'h': {{'0', '9'}, {'A', 'F'}, {'a', 'f'}},
}

var posixClasses = map[string]runeSet{
	"alnum":  {{'0', '9'}, {'A', 'Z'}, {'a', 'z'}},
	"alpha":  {{'A', 'Z'}, {'a', 'z'}},
	"ascii":  {{0, 0x7f}},
	"blank":  {{'\t', '\t'}, {' ', ' '}},
	"cntrl":  {{0, 0x1f}, {0x7f, 0x7f}},
	"digit":  {{'0', '9'}},
	"graph":  {{'!', '~'}},
	"lower":  {{'a', 'z'}},
	"print":  {{' ', '~'}},
	"punct":  {{'!', '/'}, {':', '@'}, {'[', '`'}, {'{', '~'}},
	"space":  {{'\t', '\r'}, {' ', ' '}},
	"upper":  {{'A', 'Z'}},
	"word":   {{'0', '9'}, {'A', 'Z'}, {'_', '_'}, {'a', 'z'}},
	"xdigit": {{'0', '9'}, {'A', 'F'}, {'a', 'f'}},
}

// propertyAlias expands Ruby's POSIX-style property names.
type propertyAlias struct {
	cats  []string
	runes runeSet
}

func (a propertyAlias) class(negated bool) *Class {
	cls := &Class{Negated: negated}
	for _, cat := range a.cats {
		cls.Items = append(cls.Items, &Property{Name: cat})
	}
	for _, r := range a.runes {
		cls.Items = append(cls.Items, &Range{Lo: r.Lo, Hi: r.Hi})
	}
	return cls
}

var propertyAliases = map[string]propertyAlias{
	"alpha":  {cats: []string{"L", "M"}},
	"alnum":  {cats: []string{"L", "M", "Nd"}},
	"word":   {cats: []string{"L", "M", "Nd", "Pc"}},
	"digit":  {cats: []string{"Nd"}},
	"upper":  {cats: []string{"Lu"}},
	"lower":  {cats: []string{"Ll"}},
	"punct":  {cats: []string{"P"}, runes: posixClasses["punct"]},
	"graph":  {cats: []string{"L", "M", "N", "P", "S"}, runes: posixClasses["graph"]},
	"print":  {cats: []string{"L", "M", "N", "P", "S", "Zs"}, runes: posixClasses["print"]},
	"cntrl":  {cats: []string{"Cc"}},
	"space":  {cats: []string{"Z"}, runes: runeSet{{'\t', '\r'}, {0x85, 0x85}}},
	"blank":  {cats: []string{"Zs"}, runes: runeSet{{'\t', '\t'}}},
	"xdigit": {runes: posixClasses["xdigit"]},
	"ascii":  {runes: posixClasses["ascii"]},
	"any":    {runes: runeSet{{0, unicode.MaxRune}}},
}

var categoryNames = []string{
	"C", "Cc", "Cf", "Co", "Cs",
	"L", "Ll", "Lm", "Lo", "Lt", "Lu",
	"M", "Mc", "Me", "Mn",
	"N", "Nd", "Nl", "No",
	"P", "Pc", "Pd", "Pe", "Pf", "Pi", "Po", "Ps",
	"S", "Sc", "Sk", "Sm", "So",
	"Z", "Zl", "Zp", "Zs",
}

var propertyIndex = sync.OnceValue(func() map[string]string {
	idx := make(map[string]string, len(categoryNames)+len(unicode.Scripts))
	for _, name := range categoryNames {
		idx[strings.ToLower(name)] = name
	}
	for name := range unicode.Scripts {
		idx[canonicalProperty(name)] = name
	}
	return idx
})

func canonicalProperty(name string) string {
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == ' ' || c == '_' || c == '-' {
			continue
		}
		b.WriteByte(byte(unicode.ToLower(rune(c))))
	}
	return b.String()
}

// propertyNode resolves a \p{...} name. POSIX-style names expand to a
// class; categories and scripts stay a single property.
func propertyNode(name string, negated bool) (ClassItem, bool) {
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !isWord(c) && c != ' ' && c != '-' {
			return nil, false
		}
	}
	key := canonicalProperty(name)
	if key == "" {
		return nil, false
	}

	if alias, ok := propertyAliases[key]; ok {
		return alias.class(negated), true
	}
	if canon, ok := propertyIndex()[key]; ok {
		return &Property{Name: canon, Negated: negated}, true
	}
	return nil, false
}

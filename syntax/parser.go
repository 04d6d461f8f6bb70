package syntax

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"go.dw1.io/rbregexp/flags"
	"go.dw1.io/rbregexp/internal/errs"
)

// maxRepeat is the largest repeat bound Ruby accepts.
const maxRepeat = 100000

// Tree is a parsed pattern.
type Tree struct {
	Root     Node
	Pattern  string
	Options  flags.Options
	Encoding flags.Encoding
	Features Feature

	info        Info
	unsupported *errs.UnsupportedConstructError
}

// Info returns the group layout of the pattern.
func (t *Tree) Info() Info {
	in := t.info
	in.Names = t.Names()
	return in
}

// Names returns a copy of the named group table.
func (t *Tree) Names() []Name {
	out := make([]Name, len(t.info.Names))
	for i, n := range t.info.Names {
		out[i] = Name{Name: n.Name, Indices: append([]int(nil), n.Indices...)}
	}
	return out
}

// Parse parses a Ruby pattern under the given top-level options.
//
// Parse only fails for patterns Ruby itself rejects. Patterns that are valid
// but use constructs no backend runs parse fine and are reported by
// [Tree.Classify].
func Parse(pattern string, opts flags.Options, enc flags.Encoding) (*Tree, error) {
	p := newParser(pattern, opts, enc, false)
	t, err := p.run()
	if p.sawNamed {
		// Named groups turn plain parentheses into non-capturing groups,
		// which renumbers everything.
		p = newParser(pattern, opts, enc, true)
		t, err = p.run()
	}
	return t, err
}

type parser struct {
	src   string
	pos   int
	enc   flags.Encoding
	opts  flags.Options
	flags flags.Options

	named    bool
	sawNamed bool
	depth    int
	groups   int
	names    []Name

	namedRefs []*Backref
	numRefs   []*Backref
	conds     []*Conditional

	feat        Feature
	nonASCII    bool
	unsupported *errs.UnsupportedConstructError
}

func newParser(pattern string, opts flags.Options, enc flags.Encoding, named bool) *parser {
	return &parser{src: pattern, enc: enc, opts: opts, flags: opts, named: named}
}

func (p *parser) run() (*Tree, error) {
	root, err := p.parseAlt()
	if err != nil {
		return nil, err
	}
	if err := p.resolve(); err != nil {
		return nil, err
	}

	return &Tree{
		Root:     root,
		Pattern:  p.src,
		Options:  p.opts,
		Encoding: p.enc,
		Features: p.feat,
		info: Info{
			Groups:    p.groups,
			Names:     p.names,
			ASCIIOnly: !p.nonASCII,
			Multibyte: p.opts.Has(flags.IgnoreCase) || multibyte(root),
		},
		unsupported: p.unsupported,
	}, nil
}

// resolve binds named references and validates numbered ones against the
// final group count.
func (p *parser) resolve() error {
	for _, ref := range p.namedRefs {
		idx, ok := p.lookup(ref.name)
		if !ok {
			return p.fail(ref.offset, "undefined name <"+ref.name+"> reference")
		}
		ref.Indices = append([]int(nil), idx...)
	}
	for _, ref := range p.numRefs {
		for _, i := range ref.Indices {
			if i > p.groups {
				return p.fail(ref.offset, "invalid backref number/name")
			}
		}
	}
	for _, c := range p.conds {
		if c.name != "" {
			idx, ok := p.lookup(c.name)
			if !ok {
				return p.fail(c.off, "undefined name <"+c.name+"> reference")
			}
			c.Index = idx[len(idx)-1]
		}
		if c.Index < 1 || c.Index > p.groups {
			return p.fail(c.off, "invalid backref number/name")
		}
	}
	return nil
}

func (p *parser) lookup(name string) ([]int, bool) {
	for _, n := range p.names {
		if n.Name == name {
			return n.Indices, true
		}
	}
	return nil, false
}

func (p *parser) addName(name string, idx int) {
	for i := range p.names {
		if p.names[i].Name == name {
			p.names[i].Indices = append(p.names[i].Indices, idx)
			return
		}
	}
	p.names = append(p.names, Name{Name: name, Indices: []int{idx}})
}

func (p *parser) fail(offset int, reason string) error {
	return errs.Syntax(p.src, offset, reason)
}

func (p *parser) unsupportedAt(offset int, construct string) {
	if p.unsupported == nil {
		p.unsupported = errs.Unsupported(p.src, offset, construct)
	}
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek(c byte) bool { return p.pos < len(p.src) && p.src[p.pos] == c }

// next consumes one pattern character. Binary patterns are read byte by
// byte.
func (p *parser) next() rune {
	if p.enc == flags.None {
		c := p.src[p.pos]
		p.pos++
		return rune(c)
	}
	r, n := utf8.DecodeRuneInString(p.src[p.pos:])
	p.pos += n
	return r
}

func (p *parser) literal(r rune) *Literal {
	if r >= utf8.RuneSelf {
		p.nonASCII = true
	}
	return &Literal{R: r}
}

// skipTrivia drops (?#...) comments and, in extended mode, whitespace and
// '#' line comments.
func (p *parser) skipTrivia() error {
	for !p.eof() {
		c := p.src[p.pos]
		if p.flags.Has(flags.Extended) {
			if isSpace(c) {
				p.pos++
				continue
			}
			if c == '#' {
				nl := strings.IndexByte(p.src[p.pos:], '\n')
				if nl < 0 {
					p.pos = len(p.src)
				} else {
					p.pos += nl + 1
				}
				continue
			}
		}
		if strings.HasPrefix(p.src[p.pos:], "(?#") {
			end := commentEnd(p.src, p.pos+3)
			if end < 0 {
				return p.fail(p.pos, "end pattern in group")
			}
			p.pos = end + 1
			continue
		}
		return nil
	}
	return nil
}

// commentEnd returns the index of the ')' closing a (?#...) comment.
func commentEnd(s string, i int) int {
	for i < len(s) {
		switch s[i] {
		case '\\':
			i++
		case ')':
			return i
		}
		i++
	}
	return -1
}

func (p *parser) parseAlt() (Node, error) {
	var subs []Node
	for {
		n, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		subs = append(subs, n)
		if !p.peek('|') {
			break
		}
		p.pos++
	}
	if len(subs) == 1 {
		return subs[0], nil
	}
	return &Alternate{Subs: subs}, nil
}

func (p *parser) parseConcat() (Node, error) {
	var subs []Node
	for {
		if err := p.skipTrivia(); err != nil {
			return nil, err
		}
		if p.eof() || p.peek('|') {
			break
		}
		if p.peek(')') {
			if p.depth == 0 {
				return nil, p.fail(p.pos, "unmatched close parenthesis")
			}
			break
		}

		atom, last, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		if last {
			// A bare flag group swallows the rest of the enclosing group.
			subs = append(subs, atom)
			break
		}
		atom, err = p.parseQuantifiers(atom)
		if err != nil {
			return nil, err
		}
		subs = append(subs, atom)
	}

	switch len(subs) {
	case 0:
		return &Empty{}, nil
	case 1:
		return subs[0], nil
	}
	return &Concat{Subs: subs}, nil
}

func (p *parser) parseAtom() (Node, bool, error) {
	start := p.pos
	switch p.src[p.pos] {
	case '(':
		return p.parseGroup()
	case '[':
		p.pos++
		cls, err := p.parseClass(start)
		return cls, false, err
	case '.':
		p.pos++
		return &Any{}, false, nil
	case '^':
		p.pos++
		return &Assert{Kind: LineStart}, false, nil
	case '$':
		p.pos++
		return &Assert{Kind: LineEnd}, false, nil
	case '\\':
		n, err := p.parseEscape()
		return n, false, err
	case '*', '+', '?':
		return nil, false, p.fail(start, "target of repeat operator is not specified")
	case '{':
		_, _, _, ok, err := p.interval()
		if err != nil {
			return nil, false, err
		}
		if ok {
			return nil, false, p.fail(start, "target of repeat operator is not specified")
		}
		p.pos++
		return p.literal('{'), false, nil
	}
	return p.literal(p.next()), false, nil
}

func (p *parser) parseQuantifiers(atom Node) (Node, error) {
	for {
		if err := p.skipTrivia(); err != nil {
			return nil, err
		}
		if p.eof() {
			return atom, nil
		}

		start := p.pos
		c := p.src[p.pos]
		var lo, hi int
		switch c {
		case '*':
			lo, hi = 0, -1
			p.pos++
		case '+':
			lo, hi = 1, -1
			p.pos++
		case '?':
			lo, hi = 0, 1
			p.pos++
		case '{':
			min, max, width, ok, err := p.interval()
			if err != nil {
				return nil, err
			}
			if !ok {
				return atom, nil
			}
			lo, hi = min, max
			p.pos += width
		default:
			return atom, nil
		}

		if _, ok := atom.(*Assert); ok {
			return nil, p.fail(start, "target of repeat operator is invalid")
		}

		rep := &Repeat{Min: lo, Max: hi, Sub: atom}
		switch {
		case p.peek('?'):
			rep.Lazy = true
			p.pos++
		case p.peek('+') && c != '{':
			// {n,m}+ is a nested repeat in Ruby, not a possessive one.
			rep.Possessive = true
			p.feat |= FeatPossessive
			p.pos++
		}
		atom = rep
	}
}

// interval parses a {n,m} bound at p.pos without consuming it. ok is false
// when the brace is not a valid interval and must be read literally.
func (p *parser) interval() (min, max, width int, ok bool, err error) {
	s := p.src[p.pos+1:]
	i := 0
	number := func() (n int, present, big bool) {
		j := i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if i == j {
			return 0, false, false
		}
		n, convErr := strconv.Atoi(s[j:i])
		if convErr != nil || n > maxRepeat {
			return 0, true, true
		}
		return n, true, false
	}

	lo, hasLo, bigLo := number()
	if i < len(s) && s[i] == ',' {
		i++
		hi, hasHi, bigHi := number()
		if (!hasLo && !hasHi) || i >= len(s) || s[i] != '}' {
			return 0, 0, 0, false, nil
		}
		if bigLo || bigHi {
			return 0, 0, 0, false, p.fail(p.pos, "too big number for repeat range")
		}
		if !hasHi {
			hi = -1
		} else if hi < lo {
			return 0, 0, 0, false, p.fail(p.pos, "upper is smaller than lower in repeat range")
		}
		return lo, hi, i + 2, true, nil
	}
	if !hasLo || i >= len(s) || s[i] != '}' {
		return 0, 0, 0, false, nil
	}
	if bigLo {
		return 0, 0, 0, false, p.fail(p.pos, "too big number for repeat range")
	}
	return lo, lo, i + 2, true, nil
}

func (p *parser) parseGroup() (Node, bool, error) {
	start := p.pos
	p.pos++
	if !p.peek('?') {
		g := &Group{Kind: NonCapture}
		if !p.named {
			p.groups++
			g.Kind, g.Index = Capture, p.groups
		}
		return p.groupBody(start, g)
	}
	p.pos++
	if p.eof() {
		return nil, false, p.fail(start, "end pattern in group")
	}

	switch p.src[p.pos] {
	case ':':
		p.pos++
		return p.groupBody(start, &Group{Kind: NonCapture})
	case '>':
		p.pos++
		p.feat |= FeatAtomic
		return p.groupBody(start, &Group{Kind: Atomic})
	case '=':
		p.pos++
		p.feat |= FeatLookaround
		return p.groupBody(start, &Group{Kind: LookAhead})
	case '!':
		p.pos++
		p.feat |= FeatLookaround
		return p.groupBody(start, &Group{Kind: NegLookAhead})
	case '~':
		p.pos++
		p.unsupportedAt(start, "(?~")
		return p.groupBody(start, &Group{Kind: NonCapture})
	case '(':
		return p.parseConditional(start)
	case '\'':
		p.pos++
		return p.namedGroup(start, '\'')
	case '<':
		p.pos++
		switch {
		case p.peek('='):
			p.pos++
			p.feat |= FeatLookaround
			return p.groupBody(start, &Group{Kind: LookBehind})
		case p.peek('!'):
			p.pos++
			p.feat |= FeatLookaround
			return p.groupBody(start, &Group{Kind: NegLookBehind})
		}
		return p.namedGroup(start, '>')
	}
	return p.flagGroup(start)
}

func (p *parser) groupBody(start int, g *Group) (Node, bool, error) {
	saved := p.flags
	p.flags = p.flags.With(g.On).Without(g.Off)
	p.depth++
	body, err := p.parseAlt()
	p.depth--
	p.flags = saved
	if err != nil {
		return nil, false, err
	}
	if !p.peek(')') {
		return nil, false, p.fail(start, "end pattern with unmatched parenthesis")
	}
	p.pos++
	g.Body = body
	return g, false, nil
}

func (p *parser) namedGroup(start int, closer byte) (Node, bool, error) {
	end := strings.IndexByte(p.src[p.pos:], closer)
	if end < 0 {
		return nil, false, p.fail(start, "invalid group name <"+p.src[p.pos:]+">")
	}
	name := p.src[p.pos : p.pos+end]
	p.pos += end + 1
	if err := p.checkName(start, name); err != nil {
		return nil, false, err
	}

	p.sawNamed = true
	p.groups++
	p.addName(name, p.groups)
	return p.groupBody(start, &Group{Kind: Capture, Index: p.groups, Name: name})
}

func (p *parser) checkName(offset int, name string) error {
	if name == "" {
		return p.fail(offset, "group name is empty")
	}
	if isDigit(name[0]) {
		return p.fail(offset, "invalid group name <"+name+">")
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c < utf8.RuneSelf && !isWord(c) {
			return p.fail(offset, "invalid group name <"+name+">")
		}
	}
	return nil
}

// flagGroup parses (?imx-imx) and (?imx-imx:...). The bare form applies to
// the rest of the enclosing group, alternatives included.
func (p *parser) flagGroup(start int) (Node, bool, error) {
	var on, off flags.Options
	neg := false
	for !p.eof() {
		c := p.src[p.pos]
		switch c {
		case '-':
			if neg {
				return nil, false, p.fail(p.pos, "undefined group option")
			}
			neg = true
		case ':':
			p.pos++
			return p.groupBody(start, &Group{Kind: NonCapture, On: on, Off: off})
		case ')':
			p.pos++
			saved := p.flags
			p.flags = p.flags.With(on).Without(off)
			body, err := p.parseAlt()
			p.flags = saved
			if err != nil {
				return nil, false, err
			}
			return &Group{Kind: NonCapture, On: on, Off: off, Body: body}, true, nil
		case 'a', 'd', 'u':
			// Character set modifiers only change \w and friends under
			// Unicode semantics, which never apply here.
			if neg {
				return nil, false, p.fail(p.pos, "undefined group option")
			}
		default:
			o, ok := flags.Letter(c)
			if !ok {
				return nil, false, p.fail(p.pos, "undefined group option")
			}
			if neg {
				off |= o
			} else {
				on |= o
			}
		}
		p.pos++
	}
	return nil, false, p.fail(start, "end pattern in group")
}

func (p *parser) parseConditional(start int) (Node, bool, error) {
	p.pos++
	end := strings.IndexByte(p.src[p.pos:], ')')
	if end < 0 {
		return nil, false, p.fail(start, "invalid conditional pattern")
	}
	ref := p.src[p.pos : p.pos+end]
	p.pos += end + 1

	cond := &Conditional{off: start}
	if len(ref) >= 2 && ((ref[0] == '<' && ref[len(ref)-1] == '>') || (ref[0] == '\'' && ref[len(ref)-1] == '\'')) {
		ref = ref[1 : len(ref)-1]
	}
	switch {
	case ref == "":
		return nil, false, p.fail(start, "invalid conditional pattern")
	case allDigits(ref):
		if p.named {
			return nil, false, p.fail(start, "numbered backref/call is not allowed. (use name)")
		}
		n, err := strconv.Atoi(ref)
		if err != nil {
			return nil, false, p.fail(start, "invalid backref number/name")
		}
		cond.Index = n
	default:
		if err := p.checkName(start, ref); err != nil {
			return nil, false, err
		}
		cond.name = ref
	}

	p.depth++
	body, err := p.parseAlt()
	p.depth--
	if err != nil {
		return nil, false, err
	}
	if !p.peek(')') {
		return nil, false, p.fail(start, "end pattern with unmatched parenthesis")
	}
	p.pos++

	if alt, ok := body.(*Alternate); ok {
		if len(alt.Subs) > 2 {
			return nil, false, p.fail(start, "invalid conditional pattern")
		}
		cond.Yes, cond.No = alt.Subs[0], alt.Subs[1]
	} else {
		cond.Yes = body
	}

	p.feat |= FeatConditional
	p.conds = append(p.conds, cond)
	return cond, false, nil
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func isOctal(c byte) bool { return '0' <= c && c <= '7' }

func isWord(c byte) bool {
	return c == '_' || isDigit(c) || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

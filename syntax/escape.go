package syntax

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"go.dw1.io/rbregexp/flags"
)

// parseEscape parses a backslash sequence outside a character class.
func (p *parser) parseEscape() (Node, error) {
	start := p.pos
	p.pos++
	if p.eof() {
		return nil, p.fail(start, "too short escape sequence")
	}

	c := p.src[p.pos]
	switch c {
	case 'd', 'w', 's', 'h':
		p.pos++
		return &Perl{Kind: c}, nil
	case 'D', 'W', 'S', 'H':
		p.pos++
		return &Perl{Kind: c + 'a' - 'A', Negated: true}, nil
	case 'p', 'P':
		return p.property(start)
	case 'A':
		p.pos++
		return &Assert{Kind: TextStart}, nil
	case 'z':
		p.pos++
		return &Assert{Kind: TextEnd}, nil
	case 'Z':
		p.pos++
		p.feat |= FeatTextEndNewline
		return &Assert{Kind: TextEndNewline}, nil
	case 'b':
		p.pos++
		return &Assert{Kind: WordBoundary}, nil
	case 'B':
		p.pos++
		return &Assert{Kind: NonWordBoundary}, nil
	case 'G':
		p.pos++
		p.feat |= FeatSearchStart
		return &Assert{Kind: SearchStart}, nil
	case 'R':
		p.pos++
		return &Linebreak{}, nil
	case 'X', 'K', 'y', 'Y':
		p.pos++
		p.unsupportedAt(start, `\`+string(c))
		return &Empty{}, nil
	case 'g':
		p.pos++
		if p.peek('<') || p.peek('\'') {
			closer := byte('>')
			if p.src[p.pos] == '\'' {
				closer = '\''
			}
			if end := strings.IndexByte(p.src[p.pos+1:], closer); end >= 0 {
				p.pos += end + 2
			}
		}
		p.unsupportedAt(start, `\g`)
		return &Empty{}, nil
	case 'k':
		return p.namedRef(start)
	case '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return p.numericEscape(start)
	}

	rs, err := p.charEscape(start)
	if err != nil {
		return nil, err
	}
	if len(rs) == 1 {
		return p.literal(rs[0]), nil
	}
	seq := &Concat{Subs: make([]Node, len(rs))}
	for i, r := range rs {
		seq.Subs[i] = p.literal(r)
	}
	return seq, nil
}

// numericEscape handles \1..\9 and longer digit runs. A run is a backref
// when it is a single digit or names an already opened group; otherwise it
// is an octal escape, or a literal digit for 8 and 9.
func (p *parser) numericEscape(start int) (Node, error) {
	j := p.pos
	for j < len(p.src) && isDigit(p.src[j]) {
		j++
	}
	n, err := strconv.Atoi(p.src[p.pos:j])
	if err == nil && (n <= 9 || n <= p.groups) {
		if p.named {
			return nil, p.fail(start, "numbered backref/call is not allowed. (use name)")
		}
		p.pos = j
		ref := &Backref{Indices: []int{n}, offset: start}
		p.numRefs = append(p.numRefs, ref)
		p.feat |= FeatBackref
		return ref, nil
	}

	c := p.src[p.pos]
	if c == '8' || c == '9' {
		p.pos++
		return p.literal(rune(c)), nil
	}
	v, err := p.octal(start, 3)
	if err != nil {
		return nil, err
	}
	return p.literal(v), nil
}

// namedRef parses \k<name>, \k'name', \k<n> and \k<-n>.
func (p *parser) namedRef(start int) (Node, error) {
	p.pos++
	if !p.peek('<') && !p.peek('\'') {
		return nil, p.fail(start, "invalid backref number/name")
	}
	closer := byte('>')
	if p.src[p.pos] == '\'' {
		closer = '\''
	}
	end := strings.IndexByte(p.src[p.pos+1:], closer)
	if end < 0 {
		return nil, p.fail(start, "invalid backref number/name")
	}
	ref := p.src[p.pos+1 : p.pos+1+end]
	p.pos += end + 2
	p.feat |= FeatBackref

	rel := strings.TrimPrefix(strings.TrimPrefix(ref, "-"), "+")
	if allDigits(rel) {
		if p.named {
			return nil, p.fail(start, "numbered backref/call is not allowed. (use name)")
		}
		n, err := strconv.Atoi(rel)
		if err != nil || n == 0 {
			return nil, p.fail(start, "invalid backref number/name")
		}
		if ref[0] == '-' {
			n = p.groups - n + 1
			if n <= 0 {
				return nil, p.fail(start, "invalid backref number/name")
			}
		}
		br := &Backref{Indices: []int{n}, offset: start}
		p.numRefs = append(p.numRefs, br)
		return br, nil
	}

	if err := p.checkName(start, ref); err != nil {
		return nil, err
	}
	br := &Backref{name: ref, offset: start}
	p.namedRefs = append(p.namedRefs, br)
	return br, nil
}

// property parses \p{Name}, \p{^Name} and \P{Name} at p.pos.
func (p *parser) property(start int) (Node, error) {
	negated := p.src[p.pos] == 'P'
	p.pos++
	if !p.peek('{') {
		return nil, p.fail(start, "invalid character property name {"+string(p.src[p.pos-1])+"}")
	}
	end := strings.IndexByte(p.src[p.pos:], '}')
	if end < 0 {
		return nil, p.fail(start, "invalid character property name {"+p.src[p.pos+1:]+"}")
	}
	name := p.src[p.pos+1 : p.pos+end]
	p.pos += end + 1
	if strings.HasPrefix(name, "^") {
		negated = !negated
		name = name[1:]
	}

	node, ok := propertyNode(name, negated)
	if !ok {
		return nil, p.fail(start, "invalid character property name {"+name+"}")
	}
	return node, nil
}

// charEscape decodes an escape that stands for one or more characters.
// p.pos is at the character following the backslash.
func (p *parser) charEscape(start int) ([]rune, error) {
	c := p.src[p.pos]
	p.pos++
	switch c {
	case 't':
		return []rune{'\t'}, nil
	case 'n':
		return []rune{'\n'}, nil
	case 'r':
		return []rune{'\r'}, nil
	case 'f':
		return []rune{'\f'}, nil
	case 'v':
		return []rune{'\v'}, nil
	case 'a':
		return []rune{0x07}, nil
	case 'e':
		return []rune{0x1b}, nil
	case '0':
		p.pos--
		v, err := p.octal(start, 3)
		return []rune{v}, err
	case 'x':
		return p.hexEscape(start)
	case 'u':
		return p.unicodeEscape(start)
	case 'c':
		v, err := p.control(start)
		return []rune{v}, err
	case 'C':
		if !p.peek('-') {
			return nil, p.fail(start, "invalid control-code syntax")
		}
		p.pos++
		v, err := p.control(start)
		return []rune{v}, err
	case 'M':
		if p.enc != flags.None {
			return nil, p.fail(start, "invalid multibyte escape")
		}
		if !p.peek('-') || p.pos+1 >= len(p.src) {
			return nil, p.fail(start, "invalid meta-code syntax")
		}
		p.pos++
		if p.peek('\\') {
			p.pos++
			if p.eof() {
				return nil, p.fail(start, "too short meta escape")
			}
			rs, err := p.charEscape(start)
			if err != nil {
				return nil, err
			}
			return []rune{rs[0]&0xff | 0x80}, nil
		}
		m := p.src[p.pos]
		p.pos++
		return []rune{rune(m) | 0x80}, nil
	}
	p.pos--
	return []rune{p.next()}, nil
}

// control decodes the character after \c or \C-.
func (p *parser) control(start int) (rune, error) {
	if p.eof() {
		return 0, p.fail(start, "too short control escape")
	}
	c := p.src[p.pos]
	if c == '\\' {
		p.pos++
		if p.eof() {
			return 0, p.fail(start, "too short control escape")
		}
		rs, err := p.charEscape(start)
		if err != nil {
			return 0, err
		}
		return rs[0] & 0x9f, nil
	}
	p.pos++
	if c == '?' {
		return 0x7f, nil
	}
	if c >= utf8.RuneSelf {
		return 0, p.fail(start, "invalid control-code syntax")
	}
	return rune(c) & 0x9f, nil
}

// octal reads up to max octal digits starting at p.pos.
func (p *parser) octal(start, max int) (rune, error) {
	var v rune
	n := 0
	for n < max && p.pos < len(p.src) && isOctal(p.src[p.pos]) {
		v = v*8 + rune(p.src[p.pos]-'0')
		p.pos++
		n++
	}
	if v > 0xff {
		v &= 0xff
	}
	if v >= utf8.RuneSelf && p.enc != flags.None {
		return 0, p.fail(start, "invalid multibyte escape")
	}
	return v, nil
}

// hexDigits reads up to max hex digits starting at p.pos.
func (p *parser) hexDigits(max int) (rune, int) {
	var v rune
	n := 0
	for n < max && p.pos < len(p.src) {
		d, ok := unhex(p.src[p.pos])
		if !ok {
			break
		}
		v = v*16 + d
		p.pos++
		n++
	}
	return v, n
}

// hexEscape decodes \xHH. Under UTF-8, a run of high escapes such as
// \xE3\x81\x82 must spell exactly one character.
func (p *parser) hexEscape(start int) ([]rune, error) {
	v, n := p.hexDigits(2)
	if n == 0 {
		return nil, p.fail(start, "invalid hex escape")
	}
	if v < utf8.RuneSelf || p.enc == flags.None {
		return []rune{v}, nil
	}

	buf := []byte{byte(v)}
	for !utf8.FullRune(buf) && strings.HasPrefix(p.src[p.pos:], `\x`) {
		save := p.pos
		p.pos += 2
		b, n := p.hexDigits(2)
		if n == 0 {
			p.pos = save
			break
		}
		buf = append(buf, byte(b))
	}
	r, size := utf8.DecodeRune(buf)
	if (r == utf8.RuneError && size <= 1) || size != len(buf) {
		return nil, p.fail(start, "invalid multibyte escape")
	}
	return []rune{r}, nil
}

// unicodeEscape decodes \uHHHH and \u{H H ...}.
func (p *parser) unicodeEscape(start int) ([]rune, error) {
	var out []rune
	if p.peek('{') {
		p.pos++
		for {
			for p.peek(' ') || p.peek('\t') {
				p.pos++
			}
			if p.eof() {
				return nil, p.fail(start, "invalid Unicode list")
			}
			if p.peek('}') {
				p.pos++
				break
			}
			v, n := p.hexDigits(7)
			if n == 0 {
				return nil, p.fail(start, "invalid Unicode list")
			}
			if n > 6 || !validCodePoint(v) {
				return nil, p.fail(start, "invalid Unicode range")
			}
			out = append(out, v)
		}
		if len(out) == 0 {
			return nil, p.fail(start, "invalid Unicode list")
		}
	} else {
		v, n := p.hexDigits(4)
		if n < 4 {
			return nil, p.fail(start, "invalid Unicode escape")
		}
		if !validCodePoint(v) {
			return nil, p.fail(start, "invalid Unicode range")
		}
		out = []rune{v}
	}

	if p.enc == flags.None {
		for _, r := range out {
			if r >= utf8.RuneSelf {
				return nil, p.fail(start, "UTF-8 character in non UTF-8 regexp")
			}
		}
	}
	return out, nil
}

func validCodePoint(r rune) bool {
	return r <= utf8.MaxRune && (r < 0xd800 || r > 0xdfff)
}

func unhex(c byte) (rune, bool) {
	switch {
	case '0' <= c && c <= '9':
		return rune(c - '0'), true
	case 'a' <= c && c <= 'f':
		return rune(c-'a') + 10, true
	case 'A' <= c && c <= 'F':
		return rune(c-'A') + 10, true
	}
	return 0, false
}

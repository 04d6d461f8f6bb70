package rbregexp

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"go.dw1.io/rbregexp/flags"
)

const hexDigits = "0123456789ABCDEF"

// Escape returns s with every regexp metacharacter escaped, as Ruby's
// Regexp.escape does. Whitespace controls are written as their escape
// letters.
func Escape(s string) string {
	i := strings.IndexFunc(s, func(r rune) bool { return r < utf8.RuneSelf && needsEscape(byte(r)) })
	if i < 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 8)
	b.WriteString(s[:i])
	for ; i < len(s); i++ {
		c := s[i]
		if !needsEscape(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('\\')
		switch c {
		case '\t':
			b.WriteByte('t')
		case '\n':
			b.WriteByte('n')
		case '\v':
			b.WriteByte('v')
		case '\f':
			b.WriteByte('f')
		case '\r':
			b.WriteByte('r')
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func needsEscape(c byte) bool {
	switch c {
	case '[', ']', '{', '}', '(', ')', '|', '-', '*', '.', '\\',
		'?', '+', '^', '$', '#', ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// appendSource writes pattern the way Ruby prints a regexp source: an
// unescaped '/' gets a backslash, escapes are copied as is, and bytes that
// are not printable characters are written as \xHH.
func appendSource(dst []byte, pattern string, enc flags.Encoding) []byte {
	for i := 0; i < len(pattern); {
		c := pattern[i]
		if c == '\\' && i+1 < len(pattern) {
			n := 1
			if enc == flags.Fixed {
				_, n = utf8.DecodeRuneInString(pattern[i+1:])
			}
			dst = append(dst, pattern[i:i+1+n]...)
			i += 1 + n
			continue
		}

		if c < utf8.RuneSelf || enc == flags.None {
			switch {
			case c == '/':
				dst = append(dst, '\\', '/')
			case c >= utf8.RuneSelf || (!isPrint(c) && !isSpace(c)):
				dst = appendHex(dst, c)
			default:
				dst = append(dst, c)
			}
			i++
			continue
		}

		r, n := utf8.DecodeRuneInString(pattern[i:])
		if (r == utf8.RuneError && n == 1) || (!unicode.IsPrint(r) && !unicode.IsSpace(r)) {
			for _, b := range []byte(pattern[i : i+n]) {
				dst = appendHex(dst, b)
			}
		} else {
			dst = append(dst, pattern[i:i+n]...)
		}
		i += n
	}
	return dst
}

func appendHex(dst []byte, c byte) []byte {
	return append(dst, '\\', 'x', hexDigits[c>>4], hexDigits[c&0xf])
}

func isPrint(c byte) bool { return c >= 0x20 && c < 0x7f }

func isSpace(c byte) bool { return c == ' ' || (c >= '\t' && c <= '\r') }

package backend

import (
	"sort"
	"unicode/utf8"

	"go.dw1.io/rbregexp/internal/errs"
)

// CheckStart validates a byte start offset for the given mode.
func CheckStart(h []byte, mode Mode, start int) error {
	if start < 0 || start > len(h) {
		return errs.InvalidOffset(start, "offset out of range")
	}
	if mode == UTF8 && start < len(h) && !utf8.RuneStart(h[start]) {
		return errs.InvalidOffset(start, "offset is not on a character boundary")
	}
	return nil
}

// IsASCII reports whether every byte of b is below 0x80.
func IsASCII(b []byte) bool {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// Latin1 is a binary haystack re-encoded so that each byte becomes the
// code point of the same value, for engines that only read UTF-8.
type Latin1 struct {
	Text []byte
	// offs[i] is the position in Text of original byte i; offs[len] is
	// len(Text).
	offs []int
}

// NewLatin1 transcodes h. ASCII input is returned as is.
func NewLatin1(h []byte) *Latin1 {
	if IsASCII(h) {
		return &Latin1{Text: h}
	}
	text := make([]byte, 0, len(h)*2)
	offs := make([]int, len(h)+1)
	for i, c := range h {
		offs[i] = len(text)
		text = utf8.AppendRune(text, rune(c))
	}
	offs[len(h)] = len(text)
	return &Latin1{Text: text, offs: offs}
}

// To maps an original offset into Text.
func (l *Latin1) To(off int) int {
	if l.offs == nil {
		return off
	}
	return l.offs[off]
}

// From maps a Text offset back to the original haystack.
func (l *Latin1) From(off int) int {
	if l.offs == nil || off < 0 {
		return off
	}
	return sort.SearchInts(l.offs, off)
}

// Runes is a haystack decoded into characters for engines that index by
// rune.
type Runes struct {
	Runes []rune
	// offs[k] is the byte offset of rune k; offs[len] is the haystack
	// length.
	offs []int
}

// NewRunes decodes h: UTF-8 in UTF8 mode, one rune per byte in Binary mode.
func NewRunes(h []byte, mode Mode) *Runes {
	rs := make([]rune, 0, len(h))
	offs := make([]int, 0, len(h)+1)
	for i := 0; i < len(h); {
		offs = append(offs, i)
		if mode == Binary {
			rs = append(rs, rune(h[i]))
			i++
			continue
		}
		r, n := utf8.DecodeRune(h[i:])
		rs = append(rs, r)
		i += n
	}
	offs = append(offs, len(h))
	return &Runes{Runes: rs, offs: offs}
}

// Index maps a byte offset on a character boundary to a rune index.
func (r *Runes) Index(byteOff int) int {
	return sort.SearchInts(r.offs, byteOff)
}

// Offset maps a rune index to a byte offset.
func (r *Runes) Offset(idx int) int {
	if idx < 0 {
		return idx
	}
	return r.offs[idx]
}

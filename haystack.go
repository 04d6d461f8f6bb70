package rbregexp

import (
	"unicode/utf8"

	"go.dw1.io/rbregexp/backend"
	"go.dw1.io/rbregexp/flags"
	"go.dw1.io/rbregexp/internal/errs"
)

// Haystack is the text searched by one match call. Bytes is read only for
// the duration of the call; results never alias it.
type Haystack struct {
	Bytes []byte
	// Encoding is Fixed for UTF-8 strings and None for binary strings.
	Encoding flags.Encoding
}

// UTF8 returns a UTF-8 haystack for s.
func UTF8(s string) Haystack {
	return Haystack{Bytes: []byte(s), Encoding: flags.Fixed}
}

// Binary returns a binary haystack for b.
func Binary(b []byte) Haystack {
	return Haystack{Bytes: b, Encoding: flags.None}
}

// mode picks the character model for matching h against a pattern with
// the given encoding. asciiOnly reports whether the pattern itself is plain
// ASCII.
func (h Haystack) mode(enc flags.Encoding, asciiOnly bool) (backend.Mode, error) {
	if h.Encoding == flags.Fixed && !utf8.Valid(h.Bytes) {
		return 0, errs.Encoding("invalid byte sequence in UTF-8")
	}

	switch {
	case enc == flags.Fixed && h.Encoding == flags.Fixed:
		return backend.UTF8, nil
	case enc == flags.Fixed:
		if backend.IsASCII(h.Bytes) {
			return backend.UTF8, nil
		}
		return 0, errs.Encoding("incompatible encoding regexp match (UTF-8 regexp with ASCII-8BIT string)")
	case h.Encoding == flags.None:
		return backend.Binary, nil
	case asciiOnly:
		return backend.UTF8, nil
	case backend.IsASCII(h.Bytes):
		return backend.Binary, nil
	default:
		return 0, errs.Encoding("incompatible encoding regexp match (ASCII-8BIT regexp with UTF-8 string)")
	}
}

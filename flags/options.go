package flags

import (
	"errors"
	"fmt"
	"strings"

	"go.dw1.io/rbregexp/internal/cast"
)

// ErrInvalidOption indicates an option value or modifier letter that Ruby
// would reject.
var ErrInvalidOption = errors.New("unknown regexp option")

// Options is the set of Ruby regexp flags.
type Options uint8

const (
	// IgnoreCase enables case-insensitive matching (/i).
	IgnoreCase Options = 1
	// Extended enables free-spacing mode (/x).
	Extended Options = 2
	// Multiline lets '.' match a newline (/m).
	Multiline Options = 4

	// All is every option bit.
	All = IgnoreCase | Extended | Multiline
)

// Host bit values for encoding hints.
const (
	FixedEncodingBit = 16
	NoEncodingBit    = 32
)

// Has reports whether every bit of o2 is set in o.
func (o Options) Has(o2 Options) bool { return o&o2 == o2 }

// With returns o with the bits of o2 set.
func (o Options) With(o2 Options) Options { return o | o2 }

// Without returns o with the bits of o2 cleared.
func (o Options) Without(o2 Options) Options { return o &^ o2 }

// Bits returns the Ruby integer value of o.
func (o Options) Bits() int { return int(o & All) }

// Modifiers returns the enabled flag letters in Ruby's "mix" order.
func (o Options) Modifiers() string {
	var b strings.Builder
	if o.Has(Multiline) {
		b.WriteByte('m')
	}
	if o.Has(IgnoreCase) {
		b.WriteByte('i')
	}
	if o.Has(Extended) {
		b.WriteByte('x')
	}
	return b.String()
}

// Display returns the flag string used by Regexp#to_s, for example "i-mx".
func (o Options) Display() string {
	on := o.Modifiers()
	off := (All &^ o).Modifiers()
	if off == "" {
		return on
	}
	return on + "-" + off
}

func (o Options) String() string {
	if o == 0 {
		return "none"
	}
	return o.Modifiers()
}

// Letter returns the option bit for a modifier letter, if any.
func Letter(c byte) (Options, bool) {
	switch c {
	case 'i':
		return IgnoreCase, true
	case 'x':
		return Extended, true
	case 'm':
		return Multiline, true
	default:
		return 0, false
	}
}

// ParseModifiers parses literal flag letters such as "mix" or "in".
//
// 'n' selects [None]; 'u', 'e' and 's' select [Fixed] (the legacy EUC-JP and
// Windows-31J letters are accepted and treated as UTF-8). Repeating a letter
// is allowed. Conflicting encoding letters are an error.
func ParseModifiers(s string) (Options, Encoding, error) {
	var (
		opts   Options
		enc    = Fixed
		encSet bool
	)

	for i := 0; i < len(s); i++ {
		c := s[i]
		if o, ok := Letter(c); ok {
			opts |= o
			continue
		}

		var next Encoding
		switch c {
		case 'n':
			next = None
		case 'u', 'e', 's':
			next = Fixed
		default:
			return 0, Fixed, fmt.Errorf("%w - %s", ErrInvalidOption, s)
		}

		if encSet && next != enc {
			return 0, Fixed, fmt.Errorf("%w - %s: conflicting encodings", ErrInvalidOption, s)
		}
		enc, encSet = next, true
	}

	return opts, enc, nil
}

// FromBits decodes a Ruby options integer. Unknown bits are ignored, as Ruby
// masks them; setting both encoding bits is an error.
func FromBits(bits int) (Options, Encoding, error) {
	opts := Options(bits) & All

	fixed := bits&FixedEncodingBit != 0
	none := bits&NoEncodingBit != 0

	switch {
	case fixed && none:
		return 0, Fixed, fmt.Errorf("%w: FIXEDENCODING and NOENCODING are mutually exclusive", ErrInvalidOption)
	case none:
		return opts, None, nil
	default:
		return opts, Fixed, nil
	}
}

// FromValue coerces the second argument of Regexp.new.
//
// Integers are option bits, strings are modifier letters, nil and false mean
// no options, and every other value is truthy and means [IgnoreCase].
func FromValue(v any) (Options, Encoding, error) {
	switch t := v.(type) {
	case nil:
		return 0, Fixed, nil
	case bool:
		if t {
			return IgnoreCase, Fixed, nil
		}
		return 0, Fixed, nil
	case Options:
		return t & All, Fixed, nil
	case string, []byte:
		s, err := cast.String(t)
		if err != nil {
			return 0, Fixed, fmt.Errorf("%w: %w", ErrInvalidOption, err)
		}
		return ParseModifiers(s)
	}

	if cast.IsInteger(v) {
		bits, err := cast.Int[int](v)
		if err != nil {
			return 0, Fixed, fmt.Errorf("%w: %w", ErrInvalidOption, err)
		}
		return FromBits(bits)
	}

	return IgnoreCase, Fixed, nil
}

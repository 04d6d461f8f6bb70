package flags

// Encoding selects how pattern and haystack bytes are interpreted.
type Encoding uint8

const (
	// Fixed interprets bytes as UTF-8 text.
	Fixed Encoding = iota
	// None interprets bytes as binary (ASCII-8BIT): one byte is one
	// character.
	None
)

func (e Encoding) String() string {
	if e == None {
		return "ASCII-8BIT"
	}
	return "UTF-8"
}

// Modifier returns the literal suffix letter that Regexp#inspect prints.
func (e Encoding) Modifier() string {
	if e == None {
		return "n"
	}
	return ""
}

// Bits returns the Ruby encoding bit for e.
func (e Encoding) Bits() int {
	if e == None {
		return NoEncodingBit
	}
	return FixedEncodingBit
}

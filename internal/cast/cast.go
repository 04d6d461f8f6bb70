package cast

import (
	"github.com/spf13/cast"
	"go.dw1.io/safemath"
)

// Int converts v to the integer type I.
//
// Go integer values of any width are converted with safemath and fail with
// [safemath.ErrTruncation] (or a related safemath error) when they do not
// fit. Strings, floats and other basic values are parsed by spf13/cast.
func Int[I Number](v any) (I, error) {
	if IsInteger(v) {
		return safemath.ConvertAny[I](v)
	}

	return cast.ToE[I](v)
}

// String converts v to a string.
func String(v any) (string, error) {
	return cast.ToStringE(v)
}

// IsInteger reports whether v's dynamic type is one of Go's integer types.
func IsInteger(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr:
		return true
	default:
		return false
	}
}

// Package errs defines the error taxonomy shared by every layer of the
// regexp subsystem.
//
// Each typed error unwraps to a sentinel so hosts can branch with
// [errors.Is] and still recover details with [errors.As].
package errs

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrSyntax indicates that a pattern is not valid in any available grammar.
var ErrSyntax = errors.New("invalid regexp syntax")

// ErrUnsupported indicates that a pattern uses a construct which is valid Ruby
// syntax but that no available backend implements.
var ErrUnsupported = errors.New("unsupported regexp construct")

// ErrEncoding indicates invalid bytes for the declared encoding, or
// incompatible pattern/haystack encodings.
var ErrEncoding = errors.New("regexp encoding error")

// ErrInvalidOffset indicates a match start offset that is not on a valid
// boundary for the haystack encoding.
var ErrInvalidOffset = errors.New("invalid match offset")

// ErrMatchTimeout indicates that the backtracking engine exceeded its
// configured match budget.
var ErrMatchTimeout = errors.New("regexp match timeout")

// SyntaxError reports a malformed pattern.
type SyntaxError struct {
	// Pattern is the pattern text the error refers to.
	Pattern string
	// Offset is the approximate byte offset of the problem, or -1.
	Offset int
	// Reason is the human readable description.
	Reason string
}

// Error renders the error the way Ruby renders RegexpError messages.
func (e *SyntaxError) Error() string {
	return e.Reason + ": /" + e.Pattern + "/"
}

// Unwrap returns [ErrSyntax].
func (e *SyntaxError) Unwrap() error { return ErrSyntax }

// Syntax returns a new [SyntaxError].
func Syntax(pattern string, offset int, reason string) *SyntaxError {
	return &SyntaxError{Pattern: pattern, Offset: offset, Reason: reason}
}

// UnsupportedConstructError reports a recognized construct that no backend
// can execute.
type UnsupportedConstructError struct {
	Pattern   string
	Offset    int
	Construct string
}

func (e *UnsupportedConstructError) Error() string {
	return "unsupported construct " + strconv.Quote(e.Construct) +
		" at offset " + strconv.Itoa(e.Offset) + ": /" + e.Pattern + "/"
}

// Unwrap returns [ErrUnsupported].
func (e *UnsupportedConstructError) Unwrap() error { return ErrUnsupported }

// Unsupported returns a new [UnsupportedConstructError].
func Unsupported(pattern string, offset int, construct string) *UnsupportedConstructError {
	return &UnsupportedConstructError{Pattern: pattern, Offset: offset, Construct: construct}
}

// EncodingError reports invalid or incompatible encodings.
type EncodingError struct {
	Reason string
}

func (e *EncodingError) Error() string { return e.Reason }

// Unwrap returns [ErrEncoding].
func (e *EncodingError) Unwrap() error { return ErrEncoding }

// Encoding returns a new [EncodingError] with a formatted reason.
func Encoding(format string, args ...any) *EncodingError {
	return &EncodingError{Reason: fmt.Sprintf(format, args...)}
}

// InvalidOffsetError reports a start offset that splits a character.
type InvalidOffsetError struct {
	Offset int
	Reason string
}

func (e *InvalidOffsetError) Error() string {
	return e.Reason + " (offset " + strconv.Itoa(e.Offset) + ")"
}

// Unwrap returns [ErrInvalidOffset].
func (e *InvalidOffsetError) Unwrap() error { return ErrInvalidOffset }

// InvalidOffset returns a new [InvalidOffsetError].
func InvalidOffset(offset int, reason string) *InvalidOffsetError {
	return &InvalidOffsetError{Offset: offset, Reason: reason}
}

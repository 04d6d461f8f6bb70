package rbregexp

import (
	"go.dw1.io/rbregexp/flags"
	"go.dw1.io/rbregexp/internal/errs"
	"go.dw1.io/rbregexp/lazy"
)

type (
	// SyntaxError reports a malformed pattern.
	SyntaxError = errs.SyntaxError
	// UnsupportedConstructError reports valid Ruby syntax that no engine
	// implements.
	UnsupportedConstructError = errs.UnsupportedConstructError
	// EncodingError reports invalid or incompatible encodings.
	EncodingError = errs.EncodingError
	// InvalidOffsetError reports a start offset that is out of range or
	// inside a character.
	InvalidOffsetError = errs.InvalidOffsetError
)

var (
	ErrSyntax        = errs.ErrSyntax
	ErrUnsupported   = errs.ErrUnsupported
	ErrEncoding      = errs.ErrEncoding
	ErrInvalidOffset = errs.ErrInvalidOffset
	ErrMatchTimeout  = errs.ErrMatchTimeout
	ErrInvalidOption = flags.ErrInvalidOption
	ErrReleased      = lazy.ErrReleased
)

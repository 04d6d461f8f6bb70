package cast

import (
	"github.com/spf13/cast"
	"go.dw1.io/safemath"
)

// Integer is an alias for [safemath.Integer].
type Integer = safemath.Integer

// Number is a constraint that matches types that are both [cast.Basic] and
// [safemath.Integer].
type Number interface {
	cast.Basic
	safemath.Integer
}

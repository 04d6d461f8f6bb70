package syntax

import "go.dw1.io/rbregexp/flags"

// Node is a parsed pattern element.
type Node interface {
	node()
}

// Literal matches one character. Under binary encoding R is a byte value.
type Literal struct {
	R rune
}

// Any is '.'.
type Any struct{}

// AssertKind enumerates zero-width assertions.
type AssertKind uint8

const (
	LineStart       AssertKind = iota // ^
	LineEnd                           // $
	TextStart                         // \A
	TextEnd                           // \z
	TextEndNewline                    // \Z
	WordBoundary                      // \b
	NonWordBoundary                   // \B
	SearchStart                       // \G
)

// Assert is a zero-width assertion.
type Assert struct {
	Kind AssertKind
}

// Perl is a shorthand class: 'd', 'w', 's' or 'h'.
type Perl struct {
	Kind    byte
	Negated bool
}

// Property is \p{Name}.
type Property struct {
	Name    string
	Negated bool
}

// Posix is an ASCII bracket expression such as [:alpha:], used under binary
// encoding. Other encodings expand brackets to Unicode classes.
type Posix struct {
	Name    string
	Negated bool
}

// Range is an inclusive character range inside a class.
type Range struct {
	Lo, Hi rune
}

// ClassItem is one member of a character class: *Range, *Perl, *Property,
// *Posix or a nested *Class.
type ClassItem interface {
	Node
	classItem()
}

// Class is a bracketed character class. And, when set, is intersected with
// the class formed by Items.
type Class struct {
	Negated bool
	Items   []ClassItem
	And     *Class
}

// GroupKind enumerates group constructs.
type GroupKind uint8

const (
	Capture GroupKind = iota
	NonCapture
	Atomic
	LookAhead
	NegLookAhead
	LookBehind
	NegLookBehind
)

// Group is a parenthesized subpattern. Index is the capture number for
// Capture groups. On and Off are the inline flag changes applied to Body.
type Group struct {
	Kind    GroupKind
	Index   int
	Name    string
	On, Off flags.Options
	Body    Node
}

// Concat is a sequence.
type Concat struct {
	Subs []Node
}

// Alternate is a '|' alternation.
type Alternate struct {
	Subs []Node
}

// Repeat is a quantified subpattern. Max is -1 when unbounded.
type Repeat struct {
	Min, Max   int
	Lazy       bool
	Possessive bool
	Sub        Node
}

// Backref refers to one or more capture groups. With several indices (a
// duplicated name) the most recently defined group is tried first.
type Backref struct {
	Indices []int
	name    string
	offset  int
}

// Conditional is (?(cond)yes|no).
type Conditional struct {
	Index int
	Yes   Node
	No    Node
	name  string
	off   int
}

// Linebreak is \R.
type Linebreak struct{}

// Empty matches the empty string.
type Empty struct{}

func (*Literal) node()     {}
func (*Any) node()         {}
func (*Assert) node()      {}
func (*Perl) node()        {}
func (*Property) node()    {}
func (*Posix) node()       {}
func (*Range) node()       {}
func (*Class) node()       {}
func (*Group) node()       {}
func (*Concat) node()      {}
func (*Alternate) node()   {}
func (*Repeat) node()      {}
func (*Backref) node()     {}
func (*Conditional) node() {}
func (*Linebreak) node()   {}
func (*Empty) node()       {}

func (*Range) classItem()    {}
func (*Perl) classItem()     {}
func (*Property) classItem() {}
func (*Posix) classItem()    {}
func (*Class) classItem()    {}

package syntax

// Name maps a group name to the capture indices that carry it, in pattern
// order. Ruby allows a name to repeat across alternation branches.
type Name struct {
	Name    string
	Indices []int
}

// Info is the backend-independent shape of a compiled pattern.
type Info struct {
	// Groups is the number of capture groups, excluding group 0.
	Groups int
	// Names lists named groups in first-appearance order.
	Names []Name
	// ASCIIOnly reports that every literal character in the pattern is ASCII.
	ASCIIOnly bool
	// Multibyte reports that the pattern can consume or compare a non-ASCII
	// character through something other than a literal: '.', a negated or
	// non-ASCII class, a Unicode property, or case folding.
	Multibyte bool
}

// Lookup returns the indices carrying name.
func (in Info) Lookup(name string) ([]int, bool) {
	for _, n := range in.Names {
		if n.Name == name {
			return n.Indices, true
		}
	}
	return nil, false
}

// NameList returns the group names in first-appearance order.
func (in Info) NameList() []string {
	out := make([]string, len(in.Names))
	for i, n := range in.Names {
		out[i] = n.Name
	}
	return out
}

// Feature is a bitset of constructs found while parsing.
type Feature uint16

const (
	FeatBackref Feature = 1 << iota
	FeatLookaround
	FeatAtomic
	FeatPossessive
	FeatConditional
	FeatTextEndNewline
	FeatSearchStart
	FeatClassSet
)

// secondaryOnly are the features the primary grammar cannot express.
const secondaryOnly = FeatBackref | FeatLookaround | FeatAtomic | FeatPossessive |
	FeatConditional | FeatTextEndNewline | FeatSearchStart | FeatClassSet

var featureNames = []struct {
	f    Feature
	name string
}{
	{FeatBackref, "backref"},
	{FeatLookaround, "lookaround"},
	{FeatAtomic, "atomic"},
	{FeatPossessive, "possessive"},
	{FeatConditional, "conditional"},
	{FeatTextEndNewline, `\Z`},
	{FeatSearchStart, `\G`},
	{FeatClassSet, "class-set"},
}

func (f Feature) String() string {
	s := ""
	for _, fn := range featureNames {
		if f&fn.f == 0 {
			continue
		}
		if s != "" {
			s += ","
		}
		s += fn.name
	}
	if s == "" {
		return "none"
	}
	return s
}

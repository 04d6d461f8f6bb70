package rbregexp

import (
	"bytes"
	"unicode/utf8"

	"go.dw1.io/rbregexp/backend"
	"go.dw1.io/rbregexp/internal/json"
	"go.dw1.io/rbregexp/syntax"
)

// Span is a half-open byte range of the haystack.
type Span struct {
	Start, End int
}

// Len returns the span length in bytes.
func (s Span) Len() int { return s.End - s.Start }

// MatchResult is one successful match. It owns a copy of the haystack and
// stays valid after the haystack changes.
type MatchResult struct {
	text  []byte
	mode  backend.Mode
	caps  backend.Captures
	names []syntax.Name
}

func newMatchResult(h []byte, mode backend.Mode, caps backend.Captures, names []syntax.Name) *MatchResult {
	return &MatchResult{
		text:  bytes.Clone(h),
		mode:  mode,
		caps:  caps,
		names: names,
	}
}

// Span returns the whole match.
func (m *MatchResult) Span() Span {
	return Span{m.caps[0], m.caps[1]}
}

// Len returns the number of groups, counting group 0.
func (m *MatchResult) Len() int { return m.caps.Len() }

// Group returns the span of group i. ok is false when the group did not
// take part in the match; a group that matched the empty string reports an
// empty span and true.
func (m *MatchResult) Group(i int) (Span, bool) {
	if i < 0 {
		return Span{}, false
	}
	s, e, ok := m.caps.Group(i)
	if !ok {
		return Span{}, false
	}
	return Span{s, e}, true
}

// Named returns the span of the first participating group called name.
func (m *MatchResult) Named(name string) (Span, bool) {
	i, ok := m.namedIndex(name)
	if !ok {
		return Span{}, false
	}
	return m.Group(i)
}

func (m *MatchResult) namedIndex(name string) (int, bool) {
	for _, n := range m.names {
		if n.Name != name {
			continue
		}
		for _, i := range n.Indices {
			if _, _, ok := m.caps.Group(i); ok {
				return i, true
			}
		}
		return 0, false
	}
	return 0, false
}

// Names returns the group names in first-appearance order.
func (m *MatchResult) Names() []string {
	out := make([]string, len(m.names))
	for i, n := range m.names {
		out[i] = n.Name
	}
	return out
}

// PreMatch returns the span before the whole match.
func (m *MatchResult) PreMatch() Span { return Span{0, m.caps[0]} }

// PostMatch returns the span after the whole match.
func (m *MatchResult) PostMatch() Span { return Span{m.caps[1], len(m.text)} }

// Text returns the haystack bytes covered by s.
func (m *MatchResult) Text(s Span) []byte {
	return m.text[s.Start:s.End:s.End]
}

// Bytes returns the text of group i.
func (m *MatchResult) Bytes(i int) ([]byte, bool) {
	s, ok := m.Group(i)
	if !ok {
		return nil, false
	}
	return m.Text(s), true
}

// NamedBytes returns the text of the group called name.
func (m *MatchResult) NamedBytes(name string) ([]byte, bool) {
	s, ok := m.Named(name)
	if !ok {
		return nil, false
	}
	return m.Text(s), true
}

// Captures returns the texts of groups 1..n. Groups that did not
// participate are nil.
func (m *MatchResult) Captures() [][]byte {
	out := make([][]byte, m.Len()-1)
	for i := range out {
		out[i], _ = m.Bytes(i + 1)
	}
	return out
}

// Haystack returns the matched haystack.
func (m *MatchResult) Haystack() []byte { return m.text }

// CharOffset returns the span of group i counted in characters, as Ruby's
// MatchData#begin and #end report it. Binary matches count bytes.
func (m *MatchResult) CharOffset(i int) (start, end int, ok bool) {
	s, ok := m.Group(i)
	if !ok {
		return -1, -1, false
	}
	if m.mode == backend.Binary {
		return s.Start, s.End, true
	}
	start = utf8.RuneCount(m.text[:s.Start])
	end = start + utf8.RuneCount(m.text[s.Start:s.End])
	return start, end, true
}

type groupJSON struct {
	Index int     `json:"index"`
	Name  string  `json:"name,omitempty"`
	Span  *[2]int `json:"span"`
	Text  *string `json:"text"`
}

// MarshalJSON encodes the groups with their spans and texts. Groups that
// did not participate have null span and text.
func (m *MatchResult) MarshalJSON() ([]byte, error) {
	names := make(map[int]string)
	for _, n := range m.names {
		for _, i := range n.Indices {
			names[i] = n.Name
		}
	}

	groups := make([]groupJSON, m.Len())
	for i := range groups {
		g := groupJSON{Index: i, Name: names[i]}
		if s, ok := m.Group(i); ok {
			text := string(m.Text(s))
			g.Span = &[2]int{s.Start, s.End}
			g.Text = &text
		}
		groups[i] = g
	}
	return json.Marshal(struct {
		Groups []groupJSON `json:"groups"`
	}{groups})
}

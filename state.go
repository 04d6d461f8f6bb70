package rbregexp

// MatchState is the host's scoped last-match slot, the storage behind
// Ruby's $~ and the globals derived from it. The host owns its scope.
type MatchState interface {
	SetLastMatch(m *MatchResult)
	ClearLastMatch()
}

// MatchInto runs MatchAt and records the outcome in state: the result on a
// match, a cleared slot on a non-match. On error state is not touched.
func (re *Regexp) MatchInto(state MatchState, h Haystack, start int) (*MatchResult, error) {
	m, err := re.MatchAt(h, start)
	if err != nil {
		return nil, err
	}
	if m == nil {
		state.ClearLastMatch()
		return nil, nil
	}
	state.SetLastMatch(m)
	return m, nil
}

// Frame is a minimal [MatchState] for one call frame.
type Frame struct {
	last *MatchResult
}

// SetLastMatch records m.
func (f *Frame) SetLastMatch(m *MatchResult) { f.last = m }

// ClearLastMatch forgets the last match.
func (f *Frame) ClearLastMatch() { f.last = nil }

// LastMatch returns the recorded match, or nil.
func (f *Frame) LastMatch() *MatchResult { return f.last }

// Group returns the text of group i of the last match, like Ruby's $1.
func (f *Frame) Group(i int) ([]byte, bool) {
	if f.last == nil {
		return nil, false
	}
	return f.last.Bytes(i)
}

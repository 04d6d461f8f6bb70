// Package rbregexp implements Ruby regular expressions for an embedding
// language runtime.
//
// A pattern is normalized when a [Regexp] is built and compiled on first
// use. Patterns within the RE2 grammar run on coregex, a linear-time
// automaton engine; patterns that need backreferences, lookaround, atomic
// groups or other backtracking constructs run on regexp2. Both report byte
// offsets into the caller's haystack and number groups the same way, so a
// [MatchResult] does not depend on the engine that produced it.
//
// Errors are typed: [SyntaxError], [UnsupportedConstructError],
// [EncodingError] and [InvalidOffsetError], each matching a sentinel with
// [errors.Is]. A pattern that fails to compile returns the same error on
// every later call.
//
//	re, err := rbregexp.NewString(`(?<year>\d{4})-(?<month>\d{2})`, 0)
//	if err != nil {
//		return err
//	}
//	m, err := re.Match(rbregexp.UTF8("2024-05"))
//	if err != nil || m == nil {
//		return err
//	}
//	year, _ := m.NamedBytes("year")
package rbregexp

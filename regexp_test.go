package rbregexp

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"go.dw1.io/rbregexp/backend"
	"go.dw1.io/rbregexp/backend/backtrack"
	"go.dw1.io/rbregexp/backend/native"
	"go.dw1.io/rbregexp/config"
	"go.dw1.io/rbregexp/flags"
)

func mustNew(t *testing.T, pattern string, opts flags.Options, options ...Option) *Regexp {
	t.Helper()
	re, err := NewString(pattern, opts, options...)
	if err != nil {
		t.Fatalf("NewString(%q): %v", pattern, err)
	}
	return re
}

func mustMatch(t *testing.T, re *Regexp, h Haystack) *MatchResult {
	t.Helper()
	m, err := re.Match(h)
	if err != nil {
		t.Fatalf("Match(%q, %q): %v", re.Source(), h.Bytes, err)
	}
	if m == nil {
		t.Fatalf("Match(%q, %q): no match", re.Source(), h.Bytes)
	}
	return m
}

// spans flattens a result into group spans, with nil for groups that did
// not participate.
func spans(m *MatchResult) []*Span {
	if m == nil {
		return nil
	}
	out := make([]*Span, m.Len())
	for i := range out {
		if s, ok := m.Group(i); ok {
			out[i] = &s
		}
	}
	return out
}

func TestFallbackToBacktracking(t *testing.T) {
	re := mustNew(t, `(a)\1`, 0)
	m := mustMatch(t, re, UTF8("aa"))

	if re.Engine() != backend.Secondary {
		t.Fatalf("Engine: got %v, want secondary", re.Engine())
	}
	want := []*Span{{0, 2}, {0, 1}}
	if diff := cmp.Diff(want, spans(m)); diff != "" {
		t.Fatalf("spans mismatch (-want +got):\n%s", diff)
	}
}

func TestIgnoreCase(t *testing.T) {
	re := mustNew(t, "ABC", flags.IgnoreCase)
	m := mustMatch(t, re, UTF8("abc"))
	if m.Span() != (Span{0, 3}) {
		t.Fatalf("Span: got %+v", m.Span())
	}
	if re.Engine() != backend.Primary || !re.Casefold() {
		t.Fatalf("Engine %v, Casefold %v", re.Engine(), re.Casefold())
	}
}

func TestNamedCaptures(t *testing.T) {
	re := mustNew(t, `(?<year>\d{4})-(?<month>\d{2})`, 0)
	m := mustMatch(t, re, UTF8("2024-05"))

	if got, _ := m.NamedBytes("year"); string(got) != "2024" {
		t.Fatalf("year: got %q", got)
	}
	if got, _ := m.NamedBytes("month"); string(got) != "05" {
		t.Fatalf("month: got %q", got)
	}
	for i, name := range []string{"year", "month"} {
		byName, _ := m.Named(name)
		byIndex, _ := m.Group(i + 1)
		if byName != byIndex {
			t.Fatalf("%s: named %+v, numbered %+v", name, byName, byIndex)
		}
	}
	if whole, _ := m.Bytes(0); string(whole) != "2024-05" {
		t.Fatalf("group 0: got %q", whole)
	}

	if diff := cmp.Diff([]string{"year", "month"}, re.Names()); diff != "" {
		t.Fatalf("Names mismatch (-want +got):\n%s", diff)
	}
	want := map[string][]int{"year": {1}, "month": {2}}
	if diff := cmp.Diff(want, re.NamedCaptures()); diff != "" {
		t.Fatalf("NamedCaptures mismatch (-want +got):\n%s", diff)
	}
}

func TestNonParticipatingGroup(t *testing.T) {
	m := mustMatch(t, mustNew(t, "(a)|(b)", 0), UTF8("b"))
	if _, ok := m.Group(1); ok {
		t.Fatalf("group 1 must not participate")
	}
	if s, ok := m.Group(2); !ok || s != (Span{0, 1}) {
		t.Fatalf("group 2: got %+v %v", s, ok)
	}

	m = mustMatch(t, mustNew(t, "(a*)b", 0), UTF8("b"))
	if s, ok := m.Group(1); !ok || s != (Span{0, 0}) {
		t.Fatalf("empty group: got %+v %v, want participating empty span", s, ok)
	}
}

func TestCachedFailure(t *testing.T) {
	re, err := NewString("(", 0)
	if err != nil {
		t.Fatalf("NewString defers syntax errors, got %v", err)
	}

	_, err1 := re.Match(UTF8("x"))
	_, err2 := re.IsMatch(UTF8("y"))
	err3 := re.Err()

	var se *SyntaxError
	if !errors.As(err1, &se) {
		t.Fatalf("Match: err = %v, want *SyntaxError", err1)
	}
	if se.Error() != "end pattern with unmatched parenthesis: /(/" {
		t.Fatalf("message: got %q", se.Error())
	}
	if err1 != err2 || err2 != err3 {
		t.Fatalf("errors differ between calls: %v, %v, %v", err1, err2, err3)
	}

	if _, err := Compile("(", 0); !errors.Is(err, ErrSyntax) {
		t.Fatalf("Compile: err = %v, want ErrSyntax", err)
	}
}

type countingBackend struct {
	backend.Backend
	compiles atomic.Int32
}

func (b *countingBackend) Compile(cfg config.Config) (backend.Compiled, error) {
	b.compiles.Add(1)
	time.Sleep(10 * time.Millisecond)
	return b.Backend.Compile(cfg)
}

func TestCompileOnce(t *testing.T) {
	for _, pattern := range []string{"a+", `(a)\1`, "(", `\K`} {
		primary := &countingBackend{Backend: native.New()}
		secondary := &countingBackend{Backend: backtrack.New()}
		re := mustNew(t, pattern, 0, WithBackends(primary, secondary))

		var wg sync.WaitGroup
		for range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = re.Match(UTF8("aa"))
			}()
		}
		wg.Wait()

		total := primary.compiles.Load() + secondary.compiles.Load()
		if total > 1 {
			t.Fatalf("%q: %d compiles, want at most 1", pattern, total)
		}
	}
}

func TestBackendEquivalence(t *testing.T) {
	tests := []struct {
		pattern string
		opts    flags.Options
		h       string
	}{
		{"a+", 0, "baaac"},
		{"(a|ab)(c|bcd)(d*)", 0, "abcd"},
		{`(\w+)@(\w+)\.com`, 0, "mail bob@example.com now"},
		{`^(\d+)$`, 0, "12x\n345"},
		{"HeLLo", flags.IgnoreCase, "say hello"},
		{"a.c", flags.Multiline, "a\nc"},
		{"a.c", 0, "a\nc abc"},
		{"[[:alpha:]]+", 0, "123abc"},
		{`[^\d\s]+`, 0, "12 ab 3"},
		{`\p{Greek}+`, 0, "abc αβγ"},
		{"é+", 0, "caféé!"},
		{"(?<a>x)|(?<a>y)", 0, "zy"},
		{`\bfoo\b`, 0, "a foo b"},
		{`a{2,3}?`, 0, "aaaa"},
		{`(?i:a)b`, 0, "Ab AB"},
		{`\Aab|cd\z`, 0, "xxcd"},
		{`a # comment
		  b`, flags.Extended, "ab"},
		{"(x)?y", 0, "y"},
		{`[a-z&&[^aeiou]]+`, 0, "aabcd"},
		{`\h+`, 0, "zz1aF"},
		{".", 0, "é"},
		{`\D+`, 0, "日本"},
		{`[^\d]`, 0, "٣"},
		{`\P{L}`, 0, "é"},
		{`\b`, 0, "é"},
		{`\bx`, 0, "éx"},
		{`\B`, 0, "é"},
		{`x\b`, 0, "xé"},
		{"[[:alpha:]]+", 0, "éa1"},
		{"(a?)*?b", 0, "ab"},
		{"(a|b)*c", 0, "abc"},
		{"ǅ", flags.IgnoreCase, "ǆ"},
		{"É+", flags.IgnoreCase, "éÉ"},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			primary := mustNew(t, tt.pattern, tt.opts, WithEngine(backend.Primary))
			secondary := mustNew(t, tt.pattern, tt.opts, WithEngine(backend.Secondary))

			pm, err := primary.Match(UTF8(tt.h))
			if err != nil {
				t.Fatalf("primary: %v", err)
			}
			sm, err := secondary.Match(UTF8(tt.h))
			if err != nil {
				t.Fatalf("secondary: %v", err)
			}
			if primary.Engine() != backend.Primary || secondary.Engine() != backend.Secondary {
				t.Fatalf("engines: %v/%v", primary.Engine(), secondary.Engine())
			}
			if diff := cmp.Diff(spans(pm), spans(sm)); diff != "" {
				t.Fatalf("engines disagree (-primary +secondary):\n%s", diff)
			}
			if diff := cmp.Diff(primary.NamedCaptures(), secondary.NamedCaptures()); diff != "" {
				t.Fatalf("named captures disagree (-primary +secondary):\n%s", diff)
			}
		})
	}
}

func TestIsMatchAgreesWithMatch(t *testing.T) {
	tests := []struct {
		pattern string
		h       string
		want    bool
	}{
		{"ABC", "abc", true},
		{"ABC", "xabc", true},
		{"ABC", "zzabcz", true},
		{"ABC", "abd", false},
		{"É", "café", true},
		{"ǅ", "ǆ", true},
		{"(A)(b)", "xAB", true},
	}

	for _, tt := range tests {
		re := mustNew(t, tt.pattern, flags.IgnoreCase)
		ok, err := re.IsMatch(UTF8(tt.h))
		if err != nil {
			t.Fatalf("IsMatch(%q, %q): %v", tt.pattern, tt.h, err)
		}
		m, err := re.Match(UTF8(tt.h))
		if err != nil {
			t.Fatalf("Match(%q, %q): %v", tt.pattern, tt.h, err)
		}
		if ok != tt.want || (m != nil) != tt.want {
			t.Fatalf("%q on %q: IsMatch = %v, Match = %v, want %v", tt.pattern, tt.h, ok, m != nil, tt.want)
		}
	}
}

func TestPosixBrackets(t *testing.T) {
	tests := []struct {
		pattern string
		enc     flags.Encoding
		h       Haystack
		want    *Span
	}{
		{"[[:alpha:]]", flags.Fixed, UTF8("1é"), &Span{1, 3}},
		{"[[:digit:]]", flags.Fixed, UTF8("x٣"), &Span{1, 3}},
		{`\d`, flags.Fixed, UTF8("x٣"), nil},
		{"[[:^alpha:]]", flags.Fixed, UTF8("éa1"), &Span{3, 4}},
		{"[[:upper:]]+", flags.Fixed, UTF8("aÉB"), &Span{1, 4}},
		{"[[:punct:]]", flags.Fixed, UTF8("a$"), &Span{1, 2}},
		{"[[:space:]]", flags.Fixed, UTF8("a\u3000"), &Span{1, 4}},
		{"[[:alpha:]]", flags.None, Binary([]byte("\xe9a")), &Span{1, 2}},
	}

	for _, tt := range tests {
		re, err := New([]byte(tt.pattern), 0, tt.enc)
		if err != nil {
			t.Fatalf("New(%q): %v", tt.pattern, err)
		}
		m, err := re.Match(tt.h)
		if err != nil {
			t.Fatalf("Match(%q): %v", tt.pattern, err)
		}
		var got *Span
		if m != nil {
			s := m.Span()
			got = &s
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Fatalf("%q on %q mismatch (-want +got):\n%s", tt.pattern, tt.h.Bytes, diff)
		}
	}
}

func TestEncodingCompatibility(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		enc     flags.Encoding
		h       Haystack
		want    *Span
		wantErr bool
	}{
		{"utf8 on utf8", "é", flags.Fixed, UTF8("café"), &Span{3, 5}, false},
		{"utf8 on invalid utf8", "a", flags.Fixed, Haystack{Bytes: []byte("a\xff")}, nil, true},
		{"utf8 on ascii binary", "a", flags.Fixed, Binary([]byte("xa")), &Span{1, 2}, false},
		{"utf8 on binary", "a", flags.Fixed, Binary([]byte("a\xff")), nil, true},
		{"binary on binary", `\xff.`, flags.None, Binary([]byte("a\xff\xfe")), &Span{1, 3}, false},
		{"ascii binary on utf8", "c.f", flags.None, UTF8("céf"), &Span{0, 4}, false},
		{"ascii binary dot on utf8", "c.", flags.None, UTF8("cé"), &Span{0, 3}, false},
		{"binary on ascii utf8", `\xff`, flags.None, UTF8("abc"), nil, false},
		{"binary on utf8", `\xff`, flags.None, UTF8("é"), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re, err := New([]byte(tt.pattern), 0, tt.enc)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			m, err := re.Match(tt.h)
			if tt.wantErr {
				if !errors.Is(err, ErrEncoding) {
					t.Fatalf("err = %v, want ErrEncoding", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Match: %v", err)
			}
			var got *Span
			if m != nil {
				s := m.Span()
				got = &s
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("span mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := New([]byte("a\xff"), 0, flags.Fixed); !errors.Is(err, ErrEncoding) {
		t.Fatalf("New with invalid UTF-8 pattern: err = %v, want ErrEncoding", err)
	}
}

func TestMatchAt(t *testing.T) {
	re := mustNew(t, "a", 0)
	h := UTF8("aéa")

	tests := []struct {
		start int
		want  *Span
	}{
		{0, &Span{0, 1}},
		{1, &Span{3, 4}},
		{-1, &Span{3, 4}},
		{4, nil},
		{5, nil},
		{-9, nil},
	}
	for _, tt := range tests {
		m, err := re.MatchAt(h, tt.start)
		if err != nil {
			t.Fatalf("MatchAt(%d): %v", tt.start, err)
		}
		var got *Span
		if m != nil {
			s := m.Span()
			got = &s
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Fatalf("MatchAt(%d) mismatch (-want +got):\n%s", tt.start, diff)
		}
	}

	var oe *InvalidOffsetError
	if _, err := re.MatchAt(h, 2); !errors.As(err, &oe) || oe.Offset != 2 {
		t.Fatalf("MatchAt inside a character: err = %v", err)
	}
	if _, err := mustNew(t, `(a)\1`, 0).MatchAt(h, 2); !errors.Is(err, ErrInvalidOffset) {
		t.Fatalf("secondary MatchAt inside a character: err = %v", err)
	}

	bin, err := New([]byte("."), 0, flags.None)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m, err := bin.MatchAt(Binary([]byte("é")), 1)
	if err != nil || m == nil || m.Span() != (Span{1, 2}) {
		t.Fatalf("binary MatchAt inside a sequence: %v %v", m, err)
	}
}

func TestMatchAtValue(t *testing.T) {
	re := mustNew(t, "a", 0)
	h := UTF8("éaéa")

	for _, tt := range []struct {
		pos  any
		want Span
	}{
		{0, Span{2, 3}},
		{int64(2), Span{5, 6}},
		{"-1", Span{5, 6}},
		{uint8(3), Span{5, 6}},
	} {
		m, err := re.MatchAtValue(h, tt.pos)
		if err != nil || m == nil {
			t.Fatalf("MatchAtValue(%v): %v %v", tt.pos, m, err)
		}
		if m.Span() != tt.want {
			t.Fatalf("MatchAtValue(%v): got %+v, want %+v", tt.pos, m.Span(), tt.want)
		}
	}

	if m, err := re.MatchAtValue(h, 5); m != nil || err != nil {
		t.Fatalf("MatchAtValue past the end: %v %v", m, err)
	}
	if _, err := re.MatchAtValue(h, "x"); !errors.Is(err, ErrInvalidOffset) {
		t.Fatalf("MatchAtValue(\"x\"): err = %v", err)
	}
}

func TestStringAndInspect(t *testing.T) {
	tests := []struct {
		pattern string
		opts    flags.Options
		enc     flags.Encoding
		str     string
		inspect string
	}{
		{"a/b", flags.IgnoreCase, flags.Fixed, `(?i-mx:a\/b)`, `/a\/b/i`},
		{`(?m:a\/b)`, 0, flags.Fixed, `(?m-ix:a\/b)`, `/(?m:a\/b)/`},
		{"abc", 0, flags.Fixed, "(?-mix:abc)", "/abc/"},
		{"ab", flags.All, flags.Fixed, "(?mix:ab)", "/ab/mix"},
		{"\xff", 0, flags.None, `(?-mix:\xFF)`, `/\xFF/n`},
		{"a\x01é", 0, flags.Fixed, `(?-mix:a\x01é)`, `/a\x01é/`},
		{"a\nb", flags.Extended, flags.Fixed, "(?x-mi:a\nb)", "/a\nb/x"},
	}
	for _, tt := range tests {
		re, err := New([]byte(tt.pattern), tt.opts, tt.enc)
		if err != nil {
			t.Fatalf("New(%q): %v", tt.pattern, err)
		}
		if got := re.String(); got != tt.str {
			t.Fatalf("String(%q): got %q, want %q", tt.pattern, got, tt.str)
		}
		if got := re.Inspect(); got != tt.inspect {
			t.Fatalf("Inspect(%q): got %q, want %q", tt.pattern, got, tt.inspect)
		}
	}

	// to_s output embeds with the same meaning.
	inner := mustNew(t, "ab", flags.IgnoreCase)
	outer := mustNew(t, "x"+inner.String()+"y", 0)
	if ok, err := outer.IsMatch(UTF8("xABy")); err != nil || !ok {
		t.Fatalf("embedded to_s: %v %v", ok, err)
	}
	if ok, _ := outer.IsMatch(UTF8("XABY")); ok {
		t.Fatalf("embedded to_s leaked its flags")
	}
}

func TestEqualAndHash(t *testing.T) {
	a := mustNew(t, "abc", flags.IgnoreCase)
	b := mustNew(t, "abc", flags.IgnoreCase)
	c := mustNew(t, "(?i)abc", 0)

	if !a.Equal(b) || a.Hash() != b.Hash() {
		t.Fatalf("identical sources must be equal")
	}
	if a.Equal(c) {
		t.Fatalf("Equal compares sources, not normalized configs")
	}
	if !a.Config().Equal(c.Config()) {
		t.Fatalf("configs of %q and %q must be equal", a.Source(), c.Source())
	}
	if a.Equal(nil) {
		t.Fatalf("Equal(nil) must be false")
	}
}

func TestNewValue(t *testing.T) {
	tests := []struct {
		value any
		opts  flags.Options
		enc   flags.Encoding
	}{
		{nil, 0, flags.Fixed},
		{false, 0, flags.Fixed},
		{true, flags.IgnoreCase, flags.Fixed},
		{5, flags.IgnoreCase | flags.Multiline, flags.Fixed},
		{int64(32), 0, flags.None},
		{"mi", flags.IgnoreCase | flags.Multiline, flags.Fixed},
		{"n", 0, flags.None},
		{3.5, flags.IgnoreCase, flags.Fixed},
	}
	for _, tt := range tests {
		re, err := NewValue([]byte("abc"), tt.value)
		if err != nil {
			t.Fatalf("NewValue(%v): %v", tt.value, err)
		}
		if re.Options() != tt.opts || re.Encoding() != tt.enc {
			t.Fatalf("NewValue(%v): got %v/%v, want %v/%v", tt.value, re.Options(), re.Encoding(), tt.opts, tt.enc)
		}
	}

	if _, err := NewValue("abc", "q"); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("NewValue with bad letter: err = %v", err)
	}
	if _, err := NewValue("abc", 48); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("NewValue with both encoding bits: err = %v", err)
	}
}

func TestMatchInto(t *testing.T) {
	re := mustNew(t, `(\d+)`, 0)
	var frame Frame

	if _, err := re.MatchInto(&frame, UTF8("id 42"), 0); err != nil {
		t.Fatalf("MatchInto: %v", err)
	}
	if got, ok := frame.Group(1); !ok || string(got) != "42" {
		t.Fatalf("$1: got %q %v", got, ok)
	}

	if _, err := re.MatchInto(&frame, Haystack{Bytes: []byte("\xff")}, 0); err == nil {
		t.Fatalf("MatchInto with invalid haystack must fail")
	}
	if frame.LastMatch() == nil {
		t.Fatalf("an error must leave the last match untouched")
	}

	if _, err := re.MatchInto(&frame, UTF8("none"), 0); err != nil {
		t.Fatalf("MatchInto: %v", err)
	}
	if frame.LastMatch() != nil {
		t.Fatalf("a non-match must clear the last match")
	}
}

func TestMatchTimeout(t *testing.T) {
	re := mustNew(t, `(a+)+\1$`, 0, WithMatchTimeout(10*time.Millisecond))
	_, err := re.Match(UTF8(strings.Repeat("a", 40) + "!"))
	if !errors.Is(err, ErrMatchTimeout) {
		t.Fatalf("Match: err = %v, want ErrMatchTimeout", err)
	}
}

func TestRelease(t *testing.T) {
	re := mustNew(t, "a", 0)
	if ok, err := re.IsMatch(UTF8("a")); err != nil || !ok {
		t.Fatalf("IsMatch: %v %v", ok, err)
	}
	re.Release()
	re.Release()
	if _, err := re.IsMatch(UTF8("a")); !errors.Is(err, ErrReleased) {
		t.Fatalf("IsMatch after Release: err = %v", err)
	}
}

func TestUnsupported(t *testing.T) {
	for _, pattern := range []string{`\g<1>(a)`, `a\K`, `(?~abc)`, `\X`} {
		re := mustNew(t, pattern, 0)
		var ue *UnsupportedConstructError
		if err := re.Err(); !errors.As(err, &ue) {
			t.Fatalf("%q: err = %v, want *UnsupportedConstructError", pattern, err)
		}
	}
}

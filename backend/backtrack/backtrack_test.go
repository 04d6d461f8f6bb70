package backtrack

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/google/go-cmp/cmp"

	"go.dw1.io/rbregexp/backend"
	"go.dw1.io/rbregexp/config"
	"go.dw1.io/rbregexp/flags"
	"go.dw1.io/rbregexp/internal/errs"
)

func compile(t *testing.T, b *Backend, pattern string, opts flags.Options, enc flags.Encoding) backend.Compiled {
	t.Helper()
	cfg, err := config.Normalize(config.NewSource([]byte(pattern), opts, enc))
	if err != nil {
		t.Fatalf("Normalize(%q): %v", pattern, err)
	}
	re, err := b.Compile(cfg)
	if err != nil {
		t.Fatalf("Compile(%q): %v", pattern, err)
	}
	return re
}

func TestFindAt(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		opts    flags.Options
		enc     flags.Encoding
		mode    backend.Mode
		h       string
		start   int
		want    backend.Captures
	}{
		{"backref", `(a)\1`, 0, flags.Fixed, backend.UTF8, "xaa", 0, backend.Captures{1, 3, 1, 2}},
		{"alternation", "(a)|(b)", 0, flags.Fixed, backend.UTF8, "b", 0, backend.Captures{0, 1, -1, -1, 0, 1}},
		{"lookbehind", "(?<=é)x", 0, flags.Fixed, backend.UTF8, "éx", 0, backend.Captures{2, 3}},
		{"lookahead", `\w+(?=!)`, 0, flags.Fixed, backend.UTF8, "hi there!", 0, backend.Captures{3, 8}},
		{"atomic", "(?>a+)b", 0, flags.Fixed, backend.UTF8, "aab", 0, backend.Captures{0, 3}},
		{"possessive fails", "a*+a", 0, flags.Fixed, backend.UTF8, "aaa", 0, nil},
		{"named backref", `(?<q>['"]).*?\k<q>`, 0, flags.Fixed, backend.UTF8, `say "hi"`, 0, backend.Captures{4, 8, 4, 5}},
		{"duplicate names", `(?:(?<n>a)|(?<n>b))\k<n>`, 0, flags.Fixed, backend.UTF8, "bb", 0, backend.Captures{0, 2, -1, -1, 0, 1}},
		{"conditional", `(a)?(?(1)b|c)`, 0, flags.Fixed, backend.UTF8, "c", 0, backend.Captures{0, 1, -1, -1}},
		{"text end newline", `a\Z`, 0, flags.Fixed, backend.UTF8, "a\n", 0, backend.Captures{0, 1}},
		{"search start", `\Ga`, 0, flags.Fixed, backend.UTF8, "ba", 1, backend.Captures{1, 2}},
		{"ignorecase backref", `(a)\1`, flags.IgnoreCase, flags.Fixed, backend.UTF8, "aA", 0, backend.Captures{0, 2, 0, 1}},
		{"multibyte offsets", `(é)\1`, 0, flags.Fixed, backend.UTF8, "aéé", 0, backend.Captures{1, 5, 1, 3}},
		{"binary", `(.)\1`, 0, flags.None, backend.Binary, "a\xff\xff", 0, backend.Captures{1, 3, 1, 2}},
		{"linebreak", `a\Rb`, 0, flags.Fixed, backend.UTF8, "a\r\nb", 0, backend.Captures{0, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re := compile(t, New(), tt.pattern, tt.opts, tt.enc)
			got, err := re.FindAt([]byte(tt.h), tt.mode, tt.start)
			if err != nil {
				t.Fatalf("FindAt: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("captures mismatch (-want +got):\n%s", diff)
			}
			matched, err := re.IsMatch([]byte(tt.h), tt.mode, tt.start)
			if err != nil {
				t.Fatalf("IsMatch: %v", err)
			}
			if matched != (tt.want != nil) {
				t.Fatalf("IsMatch = %v, FindAt = %v", matched, got)
			}
		})
	}
}

func TestOptions(t *testing.T) {
	tests := []struct {
		opts flags.Options
		want regexp2.RegexOptions
	}{
		{0, regexp2.Multiline},
		{flags.IgnoreCase, regexp2.Multiline | regexp2.IgnoreCase},
		{flags.Multiline, regexp2.Multiline | regexp2.Singleline},
		{flags.All, regexp2.Multiline | regexp2.IgnoreCase | regexp2.Singleline},
	}
	for _, tt := range tests {
		if got := Options(tt.opts); got != tt.want {
			t.Fatalf("Options(%v): got %v, want %v", tt.opts, got, tt.want)
		}
	}
}

func TestMatchTimeout(t *testing.T) {
	re := compile(t, New(WithMatchTimeout(10*time.Millisecond)), `(a+)+$`, 0, flags.Fixed)
	h := []byte(strings.Repeat("a", 40) + "!")
	if _, err := re.FindAt(h, backend.UTF8, 0); !errors.Is(err, errs.ErrMatchTimeout) {
		t.Fatalf("FindAt: err = %v, want ErrMatchTimeout", err)
	}
}

func TestInvalidOffsetAndRelease(t *testing.T) {
	re := compile(t, New(), `(a)\1`, 0, flags.Fixed)
	if re.Engine() != backend.Secondary {
		t.Fatalf("Engine: got %v", re.Engine())
	}
	if _, err := re.FindAt([]byte("éaa"), backend.UTF8, 1); !errors.Is(err, errs.ErrInvalidOffset) {
		t.Fatalf("FindAt mid-character: err = %v, want ErrInvalidOffset", err)
	}

	re.Release()
	if _, err := re.IsMatch([]byte("aa"), backend.UTF8, 0); err == nil {
		t.Fatalf("IsMatch after Release must fail")
	}
}

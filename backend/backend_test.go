package backend

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"go.dw1.io/rbregexp/internal/errs"
)

func TestCapturesGroup(t *testing.T) {
	caps := Captures{0, 1, -1, -1, 0, 1}
	if caps.Len() != 3 {
		t.Fatalf("Len: got %d", caps.Len())
	}
	if s, e, ok := caps.Group(2); !ok || s != 0 || e != 1 {
		t.Fatalf("Group(2): got %d %d %v", s, e, ok)
	}
	if _, _, ok := caps.Group(1); ok {
		t.Fatalf("Group(1): non-participating group reported as set")
	}
	if _, _, ok := caps.Group(5); ok {
		t.Fatalf("Group(5): out of range group reported as set")
	}
}

func TestCheckStart(t *testing.T) {
	h := []byte("éa")
	tests := []struct {
		mode  Mode
		start int
		ok    bool
	}{
		{UTF8, 0, true},
		{UTF8, 1, false},
		{UTF8, 2, true},
		{UTF8, 3, true},
		{UTF8, 4, false},
		{UTF8, -1, false},
		{Binary, 1, true},
	}
	for _, tt := range tests {
		err := CheckStart(h, tt.mode, tt.start)
		if tt.ok && err != nil {
			t.Fatalf("CheckStart(%v, %d): %v", tt.mode, tt.start, err)
		}
		if !tt.ok && !errors.Is(err, errs.ErrInvalidOffset) {
			t.Fatalf("CheckStart(%v, %d): err = %v, want ErrInvalidOffset", tt.mode, tt.start, err)
		}
	}
}

func TestLatin1(t *testing.T) {
	ascii := NewLatin1([]byte("abc"))
	if string(ascii.Text) != "abc" || ascii.To(2) != 2 || ascii.From(2) != 2 {
		t.Fatalf("ASCII input must pass through unchanged")
	}

	l := NewLatin1([]byte("a\xffb"))
	if string(l.Text) != "aÿb" {
		t.Fatalf("Text: got %q", l.Text)
	}
	for orig, mapped := range []int{0, 1, 3, 4} {
		if got := l.To(orig); got != mapped {
			t.Fatalf("To(%d): got %d, want %d", orig, got, mapped)
		}
		if got := l.From(mapped); got != orig {
			t.Fatalf("From(%d): got %d, want %d", mapped, got, orig)
		}
	}
	if got := l.From(-1); got != -1 {
		t.Fatalf("From(-1): got %d", got)
	}
}

func TestRunes(t *testing.T) {
	r := NewRunes([]byte("aé€"), UTF8)
	if diff := cmp.Diff([]rune("aé€"), r.Runes); diff != "" {
		t.Fatalf("runes mismatch (-want +got):\n%s", diff)
	}
	for idx, off := range []int{0, 1, 3, 6} {
		if got := r.Offset(idx); got != off {
			t.Fatalf("Offset(%d): got %d, want %d", idx, got, off)
		}
		if got := r.Index(off); got != idx {
			t.Fatalf("Index(%d): got %d, want %d", off, got, idx)
		}
	}

	b := NewRunes([]byte("a\xc3\xa9"), Binary)
	if diff := cmp.Diff([]rune{'a', 0xc3, 0xa9}, b.Runes); diff != "" {
		t.Fatalf("binary runes mismatch (-want +got):\n%s", diff)
	}
	if b.Index(2) != 2 || b.Offset(3) != 3 {
		t.Fatalf("binary offsets must be identity")
	}
}

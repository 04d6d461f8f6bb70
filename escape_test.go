package rbregexp

import "testing"

func TestEscape(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"abc", "abc"},
		{"a.b*c", `a\.b\*c`},
		{"1+1=2?", `1\+1=2\?`},
		{"[x](y){z}|#-^$\\", `\[x\]\(y\)\{z\}\|\#\-\^\$\\`},
		{"a b\tc\nd\re\ff\vg", `a\ b\tc\nd\re\ff\vg`},
		{"café/ü", "café/ü"},
	}
	for _, tt := range tests {
		if got := Escape(tt.in); got != tt.want {
			t.Fatalf("Escape(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEscapeMatchesLiterally(t *testing.T) {
	for _, s := range []string{"a.b", "(x|y)", "1+1", "[a-z]", "tab\there", "# not a comment", "$^"} {
		re := mustNew(t, `\A`+Escape(s)+`\z`, 0)
		ok, err := re.IsMatch(UTF8(s))
		if err != nil || !ok {
			t.Fatalf("escaped %q does not match itself: %v %v", s, ok, err)
		}
	}
}

package strings

import "testing"

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"refs/heads/main", 255, "refs/heads/main"},
		{"abcdef", 3, "abc"},
		{"héllo", 2, "hé"},
		{"日本語テキスト", 3, "日本語"},
		{"🙂🙂🙂", 1, "🙂"},
		{"anything", 0, "anything"},
		{"", 5, ""},
	}
	for _, c := range cases {
		if got := Truncate(c.in, c.n); got != c.want {
			t.Fatalf("Truncate(%q,%d) = %q, want %q", c.in, c.n, got, c.want)
		}
	}
}

func TestTruncatePtr(t *testing.T) {
	if TruncatePtr(nil, 3) != nil {
		t.Fatalf("nil should stay nil")
	}
	s := "abcdef"
	if got := TruncatePtr(&s, 2); *got != "ab" || s != "abcdef" {
		t.Fatalf("TruncatePtr = %q (orig %q)", *got, s)
	}
}

func TestStripNUL(t *testing.T) {
	if StripNUL("a\x00b\x00") != "ab" || StripNUL("clean") != "clean" {
		t.Fatalf("StripNUL mismatch")
	}
	if !HasNUL("x\x00") || HasNUL("x") {
		t.Fatalf("HasNUL mismatch")
	}
}

func TestIfEmpty(t *testing.T) {
	def := []string{"GET"}
	if got := IfEmpty(nil, def); len(got) != 1 || got[0] != "GET" {
		t.Fatalf("IfEmpty(nil) = %v", got)
	}
	if got := IfEmpty([]string{"POST"}, def); got[0] != "POST" {
		t.Fatalf("IfEmpty kept default over input: %v", got)
	}
}

// Package strings provides text helpers for values headed to storage
package strings

import (
	std "strings"
	"unicode/utf8"
)

// IfEmpty returns def when in has no elements
func IfEmpty[T any](in []T, def []T) []T {
	if len(in) == 0 {
		return def
	}
	return in
}

// Truncate returns s cut to at most n characters without splitting a multi-byte rune
// n <= 0 returns s unchanged
func Truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	i, count := 0, 0
	for i < len(s) && count < n {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
		count++
	}
	return s[:i]
}

// TruncatePtr applies Truncate through a nullable value
func TruncatePtr(ps *string, n int) *string {
	if ps == nil {
		return nil
	}
	v := Truncate(*ps, n)
	return &v
}

// StripNUL removes every 0x00 byte from s
func StripNUL(s string) string {
	if std.IndexByte(s, 0) < 0 {
		return s
	}
	return std.ReplaceAll(s, "\x00", "")
}

// HasNUL reports whether s carries a 0x00 byte
func HasNUL(s string) bool { return std.IndexByte(s, 0) >= 0 }

package textutil

import (
	"strings"
	"testing"
)

func TestSanitizePathSegmentMapping(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "The Hobbit", "The Hobbit"},
		{"colon", "Dune: Messiah", "Dune- Messiah"},
		{"slashes", "AC/DC\\Live", "AC-DC-Live"},
		{"pipe", "A|B", "A-B"},
		{"removed", "Who? What* <Where>", "Who What Where"},
		{"quotes", `"Quoted"`, "'Quoted'"},
		{"trailing dots", "Jr...", "Jr"},
		{"leading space", "  padded  ", "padded"},
		{"collapsed dashes", "a :: b", "a - b"},
		{"control chars", "line\x00break\x1f", "linebreak"},
		{"empty", "", "unknown"},
		{"only unsafe", "???", "unknown"},
		{"only dots", "...", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizePathSegment(tt.input)
			if got != tt.want {
				t.Errorf("SanitizePathSegment(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizePathSegmentNoUnsafeOutput(t *testing.T) {
	inputs := []string{
		"normal title",
		`: / \ | ? * " < >`,
		"mixed:title/with|every?bad*char<here>\"",
		"\x01\x02\x03",
		strings.Repeat(":", 50),
	}
	for _, input := range inputs {
		got := SanitizePathSegment(input)
		if strings.ContainsAny(got, `:/\|?*"<>`) {
			t.Errorf("SanitizePathSegment(%q) = %q contains unsafe characters", input, got)
		}
	}
}

func TestSanitizePathSegmentIdempotent(t *testing.T) {
	inputs := []string{
		"Dune: Messiah",
		"  spaced  out  ",
		"trail...",
		`"Air" Quotes`,
		"a//b\\\\c",
		"",
		"???",
		"Séance", // combining accent, NFC folds it
	}
	for _, input := range inputs {
		once := SanitizePathSegment(input)
		twice := SanitizePathSegment(once)
		if once != twice {
			t.Errorf("sanitize not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

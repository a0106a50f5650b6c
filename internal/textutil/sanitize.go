package textutil

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// pathSegmentReplacer maps filesystem-unsafe characters to safe alternatives.
// Path separators and other reserved characters become dashes, wildcard-style
// characters are removed, and double quotes become apostrophes.
var pathSegmentReplacer = strings.NewReplacer(
	":", "-",
	"/", "-",
	"\\", "-",
	"|", "-",
	"?", "",
	"*", "",
	"<", "",
	">", "",
	"\"", "'",
)

// FallbackSegment is returned when sanitization leaves nothing usable.
const FallbackSegment = "unknown"

// SanitizePathSegment converts an arbitrary title or author string into a
// safe path segment. The function is total and idempotent: no output ever
// contains a replaced character, so running it twice yields the same string.
// Input is NFC-normalized first so the segment computed at staging time is
// byte-identical to the one computed when matching against server paths.
// An input that sanitizes to nothing yields FallbackSegment.
func SanitizePathSegment(name string) string {
	name = norm.NFC.String(name)
	name = pathSegmentReplacer.Replace(name)

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	name = b.String()

	name = collapseRuns(name, ' ')
	name = collapseRuns(name, '-')
	name = strings.Trim(name, " .")

	if name == "" {
		return FallbackSegment
	}
	return name
}

func collapseRuns(value string, ch byte) string {
	double := strings.Repeat(string(ch), 2)
	for strings.Contains(value, double) {
		value = strings.ReplaceAll(value, double, string(ch))
	}
	return value
}

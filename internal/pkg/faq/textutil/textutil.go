// Package textutil provides text processing helpers shared by the FAQ pipeline.
package textutil

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// StripDiacritics removes combining marks, so "compétition" becomes "competition".
// On transform failure the input is returned unchanged.
func StripDiacritics(s string) string {
	out, _, err := transform.String(diacriticStripper, s)
	if err != nil {
		return s
	}
	return out
}

// HashString returns the hex SHA-256 of s, used for cache keys and chunk IDs.
func HashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// TruncateString truncates s to at most maxLen Unicode characters.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen])
}

// Bulletify turns a multi-line answer into a dash list. Single-line answers
// are returned as-is.
func Bulletify(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) <= 1 {
		return strings.TrimSpace(s)
	}
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(line)
	}
	return b.String()
}

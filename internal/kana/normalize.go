// Package kana canonicalizes free-text answers for comparison.
package kana

import "strings"

// Katakana block folded to hiragana by a fixed codepoint offset. The range
// covers ァ (U+30A1) through ヶ (U+30F6); it deliberately excludes ・ and ー,
// which are stripped as punctuation instead.
const (
	katakanaLo = 0x30A1
	katakanaHi = 0x30F6
	kanaOffset = 0x60
)

// Punctuation and length marks ignored during comparison.
const stripped = "・、。，．｡｀ー－-―〜～「」『』"

// Normalize canonicalizes raw input for equality checks: trims surrounding
// whitespace, drops interior whitespace (including full-width space), drops a
// fixed set of punctuation and long-vowel marks, and folds katakana to
// hiragana. Deterministic and pure; whitespace-only input yields "".
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r == ' ' || r == '\t' || r == '　':
			// interior whitespace
		case strings.ContainsRune(stripped, r):
		case r >= katakanaLo && r <= katakanaHi:
			b.WriteRune(r - kanaOffset)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

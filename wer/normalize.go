package wer

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var lower = cases.Lower(language.Und)

// Normalize prepares a transcript for scoring: NFKC, lower case, hyphens,
// underscores and slashes become spaces, remaining punctuation and symbols
// are dropped except apostrophes inside words, and whitespace is collapsed.
func Normalize(text string) string {
	s := lower.String(norm.NFKC.String(text))
	runes := []rune(s)

	var b strings.Builder
	b.Grow(len(s))
	for i, r := range runes {
		switch {
		case r == '-' || r == '_' || r == '/' || r == '–' || r == '—':
			b.WriteRune(' ')
		case isApostrophe(r):
			if i > 0 && i < len(runes)-1 && isWordRune(runes[i-1]) && isWordRune(runes[i+1]) {
				b.WriteRune('\'')
			}
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Words splits normalized text into tokens.
func Words(text string) []string {
	return strings.Fields(text)
}

func isApostrophe(r rune) bool {
	return r == '\'' || r == '’' || r == 'ʼ'
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

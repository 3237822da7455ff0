// Package textnorm folds user input into a comparable form: lower case,
// no diacritics, collapsed whitespace. Both the intent detector and the flow
// vocabulary match against folded text so "Déclarer" and "declarer" agree.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lower-cases s, strips combining marks and collapses runs of
// whitespace to a single space.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = strings.ReplaceAll(out, "’", "'")
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

// Words splits folded text into words, treating any rune that is not a
// letter, digit or apostrophe as a separator.
func Words(s string) []string {
	return strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

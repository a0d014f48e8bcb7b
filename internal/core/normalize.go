package core

import "strings"

const (
	fullWidthZero = '０' // U+FF10
	fullWidthNine = '９' // U+FF19
)

// NormalizeDigits maps every full-width digit to its ASCII counterpart and
// leaves all other runes untouched. Total and idempotent.
func NormalizeDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= fullWidthZero && r <= fullWidthNine {
			return '0' + (r - fullWidthZero)
		}
		return r
	}, s)
}

// NormalizeSpaces converts full-width spaces to half-width ones so command
// and amount parsing see a single space form.
func NormalizeSpaces(s string) string {
	return strings.ReplaceAll(s, "　", " ")
}

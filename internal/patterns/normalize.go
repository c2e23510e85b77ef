package patterns

import (
	"regexp"
	"strings"
	"unicode"
)

const digitPlaceholder = "#"

var monthNames = map[string]struct{}{
	"january": {}, "february": {}, "march": {}, "april": {}, "may": {}, "june": {},
	"july": {}, "august": {}, "september": {}, "october": {}, "november": {}, "december": {},
	"jan": {}, "feb": {}, "mar": {}, "apr": {}, "jun": {}, "jul": {}, "aug": {},
	"sep": {}, "sept": {}, "oct": {}, "nov": {}, "dec": {},
}

var (
	// a number together with the separators inside it, e.g. 1,250.50
	numberRun = regexp.MustCompile(`[0-9](?:[0-9.,]*[0-9])?`)
	hashRun   = regexp.MustCompile(`#+`)
)

// NormalizeDescription reduces a transaction description to a grouping key.
// It lower-cases, replaces every number with one placeholder, drops
// punctuation and month names, and collapses neighbouring placeholders, so
// "Rent August" and "Rent Sept." match, as do "Power ₹1,250" and "Power ₹980".
func NormalizeDescription(desc string) string {
	withPlaceholders := numberRun.ReplaceAllString(desc, digitPlaceholder)
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '#':
			return r
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			return unicode.ToLower(r)
		default:
			return ' '
		}
	}, withPlaceholders)

	fields := strings.Fields(cleaned)
	kept := fields[:0]
	for _, f := range fields {
		if _, ok := monthNames[f]; ok {
			continue
		}
		f = hashRun.ReplaceAllString(f, digitPlaceholder)
		if f == digitPlaceholder && len(kept) > 0 && kept[len(kept)-1] == digitPlaceholder {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

package parser

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// first digit run, possibly broken up by thousands separators
	priceDigits = regexp.MustCompile(`\d[\d\s]*`)
	nonWord     = regexp.MustCompile(`[^\p{L}\p{N}_-]`)
	whitespace  = regexp.MustCompile(`\s+`)

	lower = cases.Lower(language.Ukrainian)
)

// ParsePrice extracts the integer amount from a price label such as
// "12 500 грн". It reports false when the text has no digits or the digits
// do not fit in an int, so such a card is skipped.
func ParsePrice(text string) (int, bool) {
	text = strings.ReplaceAll(text, "\u00a0", " ")
	match := priceDigits.FindString(text)
	if match == "" {
		return 0, false
	}
	price, err := strconv.Atoi(whitespace.ReplaceAllString(match, ""))
	if err != nil {
		return 0, false
	}
	return price, true
}

// AbsoluteLink prefixes href with the site base and drops any fragment.
func AbsoluteLink(base, href string) string {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		href = href[:i]
	}
	return strings.TrimSuffix(base, "/") + href
}

// Lower folds s to lower case using Ukrainian casing rules.
func Lower(s string) string {
	return lower.String(s)
}

// SanitizeQuery lowercases the query and replaces anything other than
// letters, digits, underscore and hyphen with an underscore.
func SanitizeQuery(query string) string {
	return nonWord.ReplaceAllString(Lower(query), "_")
}

package collection

import (
	"regexp"
	"strings"

	"github.com/ramonehamilton/mtg-binder/internal/cards"
)

// identifierPattern matches the identifier printed at the bottom of a card:
// a three character set code, optionally prefixed with "p" for promos, then
// a one to three digit number and an optional face suffix.
var identifierPattern = regexp.MustCompile(`^(p?[A-Z0-9][A-Z0-9]{2})([0-9]{1,3})([ab]?)$`)

// ParseIdentifier parses identifier text such as "WAR056" or "DOM123b".
// Leading zeros of the number are dropped as the card database omits them,
// and the promo prefix is upper-cased to match its set codes.
func ParseIdentifier(text string) (cards.Identity, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return cards.Identity{}, &ValidationError{Input: text, Reason: "identifier is empty"}
	}

	m := identifierPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return cards.Identity{}, &ValidationError{
			Input:  text,
			Reason: "expected a set code followed by a collector number, e.g. WAR056 (case sensitive)",
		}
	}

	number := strings.TrimLeft(m[2], "0")
	if number == "" {
		number = "0"
	}

	return cards.Identity{SetCode: strings.ToUpper(m[1]), Number: number + m[3]}, nil
}

package emailfinder

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// asciiFold strips combining marks so accented names produce plain-ASCII
// local parts ("José" -> "jose").
var asciiFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if folded, _, err := transform.String(asciiFold, s); err == nil {
		s = folded
	}
	return s
}

// Permutations generates the candidate addresses for a person at a domain,
// most common naming convention first. Callers must preserve the order: the
// finder returns the first candidate that verifies, so the order encodes the
// real-world frequency of corporate email formats.
//
// Order: first, first.last, flast, f.last, last, firstlast, lastfirst,
// last.first, first_last, first-last.
//
// Returns nil when the first name, last name, or domain is blank.
func Permutations(first, last, domain string) []string {
	first = normalizeName(first)
	last = normalizeName(last)
	domain = strings.ToLower(strings.TrimSpace(domain))

	if first == "" || last == "" || domain == "" {
		return nil
	}

	initial := first[:1]

	locals := []string{
		first,
		first + "." + last,
		initial + last,
		initial + "." + last,
		last,
		first + last,
		last + first,
		last + "." + first,
		first + "_" + last,
		first + "-" + last,
	}

	candidates := make([]string, len(locals))
	for i, local := range locals {
		candidates[i] = local + "@" + domain
	}
	return candidates
}

package parser

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// accentFold strips combining marks so "transferência" and "transferencia"
// compare equal.
var accentFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func foldAccents(s string) string {
	out, _, err := transform.String(accentFold, s)
	if err != nil {
		return s
	}
	return out
}

// Noise fragments that bank descriptions carry but the accounting export
// does not: document counters, CNPJ/CPF, payment shorthand, institution
// boilerplate and masked-digit bullets.
var descriptionNoise = []*regexp.Regexp{
	regexp.MustCompile(`\bdoc\.?\s*\d+\b`),
	regexp.MustCompile(`\b\d{2,3}\.?\d{3}\.?\d{3}[/-]?\d{2,4}[-\s]?\d{2}\b`),
	regexp.MustCompile(`\b(pgt|pgto|pagto)\.?\s*\d*\b`),
	regexp.MustCompile(`\b(nu\s+pagamentos|ip|agencia|conta)\s*:?\s*\d+[-\s]?\d*\b`),
	regexp.MustCompile(`•+`),
}

// NormalizeDescription canonicalizes a free-text description for matching:
// lowercase, accents folded, transaction noise removed, whitespace collapsed.
// The result is stable under re-normalization.
func NormalizeDescription(s string) string {
	s = foldAccents(strings.ToLower(strings.TrimSpace(s)))
	for _, re := range descriptionNoise {
		s = re.ReplaceAllString(s, "")
	}
	return strings.TrimSpace(multiSpace.ReplaceAllString(s, " "))
}

// CollapseSpaces trims and collapses runs of whitespace without altering
// case or accents. Parsers use it for the descriptions they emit, keeping the
// heavier NormalizeDescription for match keys only.
func CollapseSpaces(s string) string {
	return strings.TrimSpace(multiSpace.ReplaceAllString(s, " "))
}

// foldColumn canonicalizes a CSV header cell for role matching: uppercase
// with accents folded.
func foldColumn(s string) string {
	return strings.ToUpper(foldAccents(strings.TrimSpace(s)))
}

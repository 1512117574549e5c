package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	reParenYear  = regexp.MustCompile(`\(\s*\d{4}\s*\)`)
	reVolume     = regexp.MustCompile(`\b(?:vol\.?|volume)\s*\d+\b`)
	reNonAlnum   = regexp.MustCompile(`[^a-z0-9\s]+`)
	reMultiSpace = regexp.MustCompile(`\s+`)
)

// stripDiacritics removes combining marks after NFD decomposition.
func stripDiacritics(s string) string {
	decomp := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomp))
	for _, r := range decomp {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeTitle canonicalizes a series title for comparison: unicode
// folding, diacritic removal, lowercasing, and removal of parenthesized
// years, volume designations, a leading "the", and punctuation.
func NormalizeTitle(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	// Fold width/compatibility forms (full-width characters and similar).
	s = norm.NFKC.String(s)
	s = stripDiacritics(s)
	s = strings.ToLower(s)

	s = reParenYear.ReplaceAllString(s, " ")
	s = reVolume.ReplaceAllString(s, " ")
	s = reNonAlnum.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	s = strings.TrimPrefix(s, "the ")
	return strings.TrimSpace(s)
}

// NormalizeName lowercases and trims a free-text name (creator, character,
// publisher) without the title-specific stripping.
func NormalizeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = stripDiacritics(norm.NFKC.String(s))
	return reMultiSpace.ReplaceAllString(strings.ToLower(s), " ")
}

// SplitList splits a comma-joined free-text field into normalized entries,
// dropping empties and duplicates while preserving order.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		n := NormalizeName(part)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

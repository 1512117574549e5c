package match

import (
	"strings"

	"helixio/internal/textutil"
)

// corporateSuffixes are trailing tokens dropped during publisher
// normalization so "DC Comics, Inc." and "DC Comics" compare equal.
var corporateSuffixes = map[string]struct{}{
	"inc":           {},
	"llc":           {},
	"ltd":           {},
	"co":            {},
	"corp":          {},
	"publishing":    {},
	"publications":  {},
	"entertainment": {},
	"group":         {},
}

// publisherAliases maps normalized shorthand names onto a canonical form.
var publisherAliases = map[string]string{
	"dc":                 "dc comics",
	"detective comics":   "dc comics",
	"marvel":             "marvel comics",
	"marvel worldwide":   "marvel comics",
	"image":              "image comics",
	"dark horse":         "dark horse comics",
	"idw":                "idw publishing",
	"boom":               "boom studios",
	"boom studios":       "boom studios",
	"viz":                "viz media",
	"viz communications": "viz media",
	"kodansha usa":       "kodansha",
	"shogakukan asia":    "shogakukan",
	"dynamite":           "dynamite entertainment",
	"top cow":            "top cow productions",
	"vertigo comics":     "vertigo",
}

// NormalizePublisher canonicalizes a publisher name: punctuation and
// corporate suffixes are stripped and known shorthand forms are mapped to a
// canonical spelling.
func NormalizePublisher(name string) string {
	n := textutil.NormalizeTitle(name)
	if n == "" {
		return ""
	}

	tokens := strings.Fields(n)
	for len(tokens) > 1 {
		last := tokens[len(tokens)-1]
		if _, ok := corporateSuffixes[last]; !ok {
			break
		}
		tokens = tokens[:len(tokens)-1]
	}
	n = strings.Join(tokens, " ")

	if canonical, ok := publisherAliases[n]; ok {
		return canonical
	}
	return n
}

// PublishersMatch reports whether two publisher names normalize to the
// same canonical form. Empty names never match.
func PublishersMatch(a, b string) bool {
	na := NormalizePublisher(a)
	nb := NormalizePublisher(b)
	if na == "" || nb == "" {
		return false
	}
	return na == nb
}

package textutil

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// TitleSimilarity scores two titles in [0,1] after normalization.
// Exact normalized equality scores 1.0. One title containing the other
// scores 0.7 plus 0.3 times the length ratio. Otherwise the score is the
// better of token overlap and normalized Levenshtein similarity.
func TitleSimilarity(a, b string) float64 {
	na := NormalizeTitle(a)
	nb := NormalizeTitle(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1.0
	}

	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		shorter, longer := len(na), len(nb)
		if shorter > longer {
			shorter, longer = longer, shorter
		}
		return 0.7 + 0.3*float64(shorter)/float64(longer)
	}

	overlap := TokenOverlap(na, nb)
	lev := levenshteinSimilarity(na, nb)
	if overlap > lev {
		return overlap
	}
	return lev
}

// TokenOverlap computes the Jaccard overlap of the whitespace-separated
// token sets of two normalized strings.
func TokenOverlap(a, b string) float64 {
	return Jaccard(strings.Fields(a), strings.Fields(b))
}

func levenshteinSimilarity(a, b string) float64 {
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 0
	}
	dist := fuzzy.LevenshteinDistance(a, b)
	sim := 1.0 - float64(dist)/float64(maxLen)
	if sim < 0 {
		return 0
	}
	return sim
}

// Jaccard computes |A∩B| / |A∪B| over two string slices treated as sets.
// Returns 0 when either set is empty; two empty sets are not similar.
func Jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(a))
	for _, v := range a {
		setA[v] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, v := range b {
		setB[v] = struct{}{}
	}
	intersection := 0
	for v := range setA {
		if _, ok := setB[v]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

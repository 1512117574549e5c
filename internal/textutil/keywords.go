package textutil

import (
	"regexp"
	"sort"
	"strings"
)

// maxKeywords bounds the number of keywords extracted from a summary.
const maxKeywords = 20

// minKeywordLength filters out short connective words before the stopword check.
const minKeywordLength = 4

var wordPattern = regexp.MustCompile(`[a-z0-9]+`)

var stopwords = map[string]struct{}{
	"about": {}, "after": {}, "against": {}, "also": {}, "among": {},
	"back": {}, "because": {}, "been": {}, "before": {}, "being": {},
	"between": {}, "both": {}, "comic": {}, "comics": {}, "could": {},
	"does": {}, "down": {}, "each": {}, "even": {}, "every": {},
	"first": {}, "from": {}, "have": {}, "hers": {}, "himself": {},
	"into": {}, "issue": {}, "issues": {}, "just": {}, "know": {},
	"last": {}, "like": {}, "made": {}, "make": {}, "many": {},
	"more": {}, "most": {}, "much": {}, "must": {}, "never": {},
	"only": {}, "other": {}, "over": {}, "series": {}, "several": {},
	"some": {}, "soon": {}, "story": {}, "such": {}, "take": {},
	"than": {}, "that": {}, "their": {}, "them": {}, "then": {},
	"there": {}, "these": {}, "they": {}, "this": {}, "those": {},
	"through": {}, "upon": {}, "very": {}, "well": {},
	"were": {}, "what": {}, "when": {}, "where": {}, "which": {},
	"while": {}, "will": {}, "with": {}, "without": {}, "would": {},
	"your": {},
}

// Keywords extracts up to maxKeywords of the most frequent non-stopword
// words of at least minKeywordLength characters from free text. Ties break
// alphabetically so the result is deterministic.
func Keywords(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	counts := make(map[string]int)
	for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if len(word) < minKeywordLength {
			continue
		}
		if _, ok := stopwords[word]; ok {
			continue
		}
		counts[word]++
	}
	if len(counts) == 0 {
		return nil
	}

	words := make([]string, 0, len(counts))
	for word := range counts {
		words = append(words, word)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})

	if len(words) > maxKeywords {
		words = words[:maxKeywords]
	}
	return words
}

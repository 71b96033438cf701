// Package textutil provides the tokenization helpers used by the matching
// heuristic and the embedding request builder.
package textutil

import (
	"strings"

	"github.com/bbalet/stopwords"
)

// FilterStopwords lower-cases the text and removes English stop-words,
// returning the remaining words joined by single spaces.
func FilterStopwords(text string) string {
	cleaned := stopwords.CleanString(text, "en", false)
	return strings.Join(strings.Fields(cleaned), " ")
}

// TokenSet returns the set of stop-word-filtered, lower-cased tokens of the
// text.
func TokenSet(text string) map[string]struct{} {
	fields := strings.Fields(FilterStopwords(text))
	set := make(map[string]struct{}, len(fields))
	for _, tok := range fields {
		set[tok] = struct{}{}
	}
	return set
}

// JaccardDistance is 1 minus the ratio of intersection to union of the two
// token sets: 0 means identical sets, 1 means disjoint. Two empty sets are
// treated as disjoint.
func JaccardDistance(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	intersection := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return 1 - float64(intersection)/float64(union)
}

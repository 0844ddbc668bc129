// Package retrieval finds document lines that share keywords with a query.
package retrieval

import (
	"regexp"
	"strings"
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

var stopWords = map[string]struct{}{
	"is": {}, "the": {}, "on": {}, "in": {}, "who": {}, "a": {}, "an": {},
}

// ExtractKeywords lowercases query and returns its word tokens minus stop
// words. Order and duplicates are kept.
func ExtractKeywords(query string) []string {
	words := wordPattern.FindAllString(strings.ToLower(query), -1)
	keywords := make([]string, 0, len(words))
	for _, w := range words {
		if _, stop := stopWords[w]; stop {
			continue
		}
		keywords = append(keywords, w)
	}
	return keywords
}

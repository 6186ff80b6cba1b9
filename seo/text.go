package seo

import (
	"regexp"
	"sort"
	"strings"
)

const (
	DefaultDescriptionLength = 160
	DefaultMaxKeywords       = 10
)

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	nonWordPattern    = regexp.MustCompile(`\W+`)
	alphaPattern      = regexp.MustCompile(`^[a-z]+$`)
)

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {},
	"at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {}, "is": {}, "are": {},
	"was": {}, "were": {}, "be": {}, "been": {}, "have": {}, "has": {}, "had": {}, "do": {},
	"does": {}, "did": {}, "will": {}, "would": {}, "could": {}, "should": {}, "may": {},
	"might": {}, "must": {}, "can": {}, "this": {}, "that": {}, "these": {}, "those": {},
}

// StripHTML removes tags, collapses whitespace runs into one space and trims the result.
func StripHTML(content string) string {
	s := htmlTagPattern.ReplaceAllString(content, "")
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// TruncateForMetaDescription turns arbitrary (HTML) content into a meta description of at
// most maxLength characters plus a "..." suffix. It cuts at the last space when that
// space falls in the final 20% of the window, otherwise exactly at maxLength.
func TruncateForMetaDescription(content string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultDescriptionLength
	}
	clean := []rune(StripHTML(content))
	if len(clean) <= maxLength {
		return string(clean)
	}

	window := clean[:maxLength]
	lastSpace := -1
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == ' ' {
			lastSpace = i
			break
		}
	}
	if lastSpace >= 0 && float64(lastSpace) >= 0.8*float64(maxLength) {
		return string(window[:lastSpace]) + "..."
	}
	return string(window) + "..."
}

// ExtractKeywords returns up to maxKeywords of the most frequent words in content.
// Words shorter than three letters, stop words and tokens with non-letters are skipped.
// Equal counts keep the order in which the words first appeared.
func ExtractKeywords(content string, maxKeywords int) []string {
	if maxKeywords <= 0 {
		maxKeywords = DefaultMaxKeywords
	}
	text := strings.ToLower(htmlTagPattern.ReplaceAllString(content, ""))

	counts := make(map[string]int)
	var order []string
	for _, word := range nonWordPattern.Split(text, -1) {
		if len(word) <= 2 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		if !alphaPattern.MatchString(word) {
			continue
		}
		if counts[word] == 0 {
			order = append(order, word)
		}
		counts[word]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > maxKeywords {
		order = order[:maxKeywords]
	}
	return order
}

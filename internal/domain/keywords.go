package domain

import (
	"strings"
	"unicode/utf8"
)

// minKeywordLen is the shortest token kept; shorter ones are noise words.
const minKeywordLen = 3

// DeriveSearchKeywords builds the normalized keyword set of a posting.
// Title and description contribute their whitespace-separated words; each
// skill, the category, the city and the state contribute one keyword each.
// Keywords are lower-cased, kept only when longer than two characters and
// returned in first-occurrence order without duplicates.
func DeriveSearchKeywords(title, description string, skills []string, category, city, state string) []string {
	candidates := make([]string, 0, 16+len(skills))
	candidates = append(candidates, strings.Fields(strings.ToLower(title))...)
	candidates = append(candidates, strings.Fields(strings.ToLower(description))...)
	for _, s := range skills {
		candidates = append(candidates, strings.ToLower(strings.TrimSpace(s)))
	}
	candidates = append(candidates,
		strings.ToLower(strings.TrimSpace(category)),
		strings.ToLower(strings.TrimSpace(city)),
		strings.ToLower(strings.TrimSpace(state)),
	)

	seen := make(map[string]struct{}, len(candidates))
	keywords := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if utf8.RuneCountInString(c) < minKeywordLen {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		keywords = append(keywords, c)
	}
	return keywords
}

package search

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Highlight limits.
const (
	maxHighlights      = 3
	maxHighlightLength = 150
)

var sentenceRegex = regexp.MustCompile(`[^.!?]+[.!?]*`)

// highlights returns up to three sentences of title and description containing a query term,
// each truncated to 150 characters.
func highlights(terms []string, title, description string) []string {
	if len(terms) == 0 {
		return nil
	}

	var out []string
	for _, text := range []string{title, description} {
		for _, sentence := range sentenceRegex.FindAllString(text, -1) {
			sentence = strings.TrimSpace(sentence)
			if sentence == "" || !containsAny(strings.ToLower(sentence), terms) {
				continue
			}
			out = append(out, truncate(sentence, maxHighlightLength))
			if len(out) == maxHighlights {
				return out
			}
		}
	}
	return out
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if t != "" && strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

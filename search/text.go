package search

import "strings"

// Stop words to filter out when scoring term overlap
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// Terms splits text into words, lowercases, trims punctuation, and removes stop words
func Terms(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))

		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// verbatimBoost is added when every query term appears in the document.
const verbatimBoost = 0.3

// Score rates document against query: the fraction of distinct query terms
// found in the document, plus verbatimBoost when all of them are present.
// A document sharing no terms with the query scores zero.
func Score(document, query string) float64 {
	queryTerms := distinct(Terms(query))
	if len(queryTerms) == 0 {
		return 0
	}

	docTerms := make(map[string]bool)
	for _, term := range Terms(document) {
		docTerms[term] = true
	}

	matched := 0
	for _, term := range queryTerms {
		if docTerms[term] {
			matched++
		}
	}
	if matched == 0 {
		return 0
	}

	score := float64(matched) / float64(len(queryTerms))
	if matched == len(queryTerms) {
		score += verbatimBoost
	}
	return score
}

func distinct(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := terms[:0:0]
	for _, t := range terms {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

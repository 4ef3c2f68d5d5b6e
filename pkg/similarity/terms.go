// Package similarity provides text similarity utilities for work items.
package similarity

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/thebtf/worklog/pkg/models"
)

// MinTermLength is the shortest token, in runes, kept as a term.
const MinTermLength = 2

// DefaultKeyTerms is the number of terms ExtractKeyTerms returns by default.
const DefaultKeyTerms = 10

var defaultStopWords = []string{
	"a", "an", "the",
	"in", "on", "at", "to", "for", "of", "by", "with", "from", "into", "about", "as", "via",
	"and", "or", "but", "if", "then", "so", "not", "no",
	"is", "are", "was", "were", "be", "been", "being", "am",
	"have", "has", "had", "do", "does", "did",
	"will", "would", "could", "should", "may", "might", "must", "shall", "can",
	"this", "that", "these", "those",
	"it", "its", "we", "our", "you", "your", "my", "me", "he", "she", "they", "them",
	"which", "who", "what", "when", "where", "how", "why",
	"up", "out", "some", "all", "any",
}

// DefaultStopWords returns a copy of the built-in English stop-word list.
func DefaultStopWords() []string {
	words := make([]string, len(defaultStopWords))
	copy(words, defaultStopWords)
	return words
}

// TermSet maps a normalized term to its frequency within one piece of text.
type TermSet map[string]int

// Tokenizer turns work item text into normalized terms.
// A Tokenizer is immutable after construction and safe for concurrent use.
type Tokenizer struct {
	stopWords map[string]struct{}
	minLength int
}

// NewTokenizer creates a Tokenizer that drops the given stop words.
// Stop words are matched case-insensitively.
func NewTokenizer(stopWords []string) *Tokenizer {
	set := make(map[string]struct{}, len(stopWords))
	for _, w := range stopWords {
		set[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return &Tokenizer{stopWords: set, minLength: MinTermLength}
}

var defaultTokenizer = NewTokenizer(defaultStopWords)

// Default returns the shared Tokenizer built from DefaultStopWords.
func Default() *Tokenizer {
	return defaultTokenizer
}

// IsStopWord reports whether word is filtered out by this tokenizer.
func (t *Tokenizer) IsStopWord(word string) bool {
	_, ok := t.stopWords[strings.ToLower(word)]
	return ok
}

// Tokens lowercases text, splits it on anything that is not a letter or digit,
// and drops short tokens and stop words. Order and repeats are preserved.
func (t *Tokenizer) Tokens(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		if utf8.RuneCountInString(field) < t.minLength {
			continue
		}
		if _, stop := t.stopWords[field]; stop {
			continue
		}
		tokens = append(tokens, field)
	}
	return tokens
}

// Terms returns the term frequencies of an item's title and description.
func (t *Tokenizer) Terms(item models.WorkItem) TermSet {
	terms := make(TermSet)
	for _, tok := range t.Tokens(item.Text()) {
		terms[tok]++
	}
	return terms
}

// KeyTerms ranks terms across all items by total frequency, breaking ties by
// first occurrence, and returns at most topN of them.
func (t *Tokenizer) KeyTerms(items []models.WorkItem, topN int) []string {
	if topN <= 0 || len(items) == 0 {
		return []string{}
	}

	counts := make(map[string]int)
	var order []string
	for _, item := range items {
		for _, tok := range t.Tokens(item.Text()) {
			if _, seen := counts[tok]; !seen {
				order = append(order, tok)
			}
			counts[tok]++
		}
	}

	ranked := make([]string, len(order))
	copy(ranked, order)
	sort.SliceStable(ranked, func(i, j int) bool {
		return counts[ranked[i]] > counts[ranked[j]]
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// ExtractKeyTerms ranks the most significant terms across items using the default tokenizer.
func ExtractKeyTerms(items []models.WorkItem, topN int) []string {
	return defaultTokenizer.KeyTerms(items, topN)
}

// normalizedText lowercases the item text and collapses runs of whitespace.
func normalizedText(item models.WorkItem) string {
	return strings.Join(strings.Fields(strings.ToLower(item.Text())), " ")
}

package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// stopWords are ignored when fingerprinting so phrasing noise does not dominate similarity.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "that": {}, "this": {}, "from": {},
	"into": {}, "onto": {}, "are": {}, "was": {}, "were": {}, "has": {}, "have": {},
	"had": {}, "her": {}, "his": {}, "its": {}, "their": {}, "they": {}, "she": {},
	"him": {}, "but": {}, "not": {}, "out": {}, "off": {}, "over": {}, "then": {},
}

// Fold returns the Unicode case-folded form of s.
func Fold(s string) string {
	return folder.String(s)
}

// Words splits text into case-folded words. Apostrophes inside words are kept.
func Words(text string) []string {
	folded := Fold(text)
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '’'
	})
}

// Fingerprint is the set of significant tokens of a text with their counts.
type Fingerprint struct {
	tokens map[string]int
}

// NewFingerprint creates a fingerprint from the provided text.
// Returns nil if the text produces no valid tokens.
func NewFingerprint(text string) *Fingerprint {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	counts := make(map[string]int, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}
	return &Fingerprint{tokens: counts}
}

// Tokenize splits text into significant folded tokens, dropping short words and stop words.
func Tokenize(text string) []string {
	raw := Words(text)
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		token = strings.Trim(token, "'’")
		if len([]rune(token)) < 3 {
			continue
		}
		if _, stop := stopWords[token]; stop {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// Covers reports whether every token of other appears in f.
func (f *Fingerprint) Covers(other *Fingerprint) bool {
	if f == nil || other == nil {
		return false
	}
	return Recall(other, f) == 1
}

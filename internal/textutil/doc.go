// Package textutil provides text processing utilities for prose measurement,
// matching, and identifier normalization.
//
// The primary use cases are:
//   - Counting words and paragraphs and splitting prose into sentences
//   - Case-folded word tokenization used for entity and attribute matching
//   - Token fingerprints and cosine similarity for beat coverage
//   - Normalizing identifiers and title-casing labels
//
// Tokenization is Unicode-aware: text is case-folded with golang.org/x/text
// and split on anything that is not a letter or digit.
package textutil

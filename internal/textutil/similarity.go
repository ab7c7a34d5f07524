package textutil

// Recall returns the share of needle's distinct tokens that appear in haystack.
func Recall(needle, haystack *Fingerprint) float64 {
	if needle == nil || haystack == nil || len(needle.tokens) == 0 {
		return 0
	}
	hits := 0
	for token := range needle.tokens {
		if _, ok := haystack.tokens[token]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(needle.tokens))
}

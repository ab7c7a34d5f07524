package textutil

import (
	"strings"
	"unicode"
)

// WordCount counts whitespace-separated words, ignoring markdown heading markers.
func WordCount(text string) int {
	count := 0
	for _, field := range strings.Fields(text) {
		if strings.Trim(field, "#*_-") == "" {
			continue
		}
		count++
	}
	return count
}

// Paragraphs splits text on blank lines and returns the non-empty blocks.
func Paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	var current []string
	flush := func() {
		if len(current) == 0 {
			return
		}
		block := strings.TrimSpace(strings.Join(current, "\n"))
		if block != "" {
			out = append(out, block)
		}
		current = current[:0]
	}
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return out
}

// ParagraphCount returns the number of blank-line separated paragraphs.
func ParagraphCount(text string) int {
	return len(Paragraphs(text))
}

// Sentence is one sentence of prose with its 1-based paragraph position.
type Sentence struct {
	Paragraph int
	Text      string
}

// Sentences splits prose into sentences on terminal punctuation (. ! ?),
// keeping closing quotes with their sentence. Sentences never span paragraphs.
func Sentences(text string) []Sentence {
	var out []Sentence
	for i, para := range Paragraphs(text) {
		runes := []rune(strings.Join(strings.Fields(para), " "))
		start := 0
		for j := 0; j < len(runes); j++ {
			if !isTerminal(runes[j]) {
				continue
			}
			end := j + 1
			for end < len(runes) && (isTerminal(runes[end]) || isClosing(runes[end])) {
				end++
			}
			if end < len(runes) && !unicode.IsSpace(runes[end]) {
				continue
			}
			// A lowercase continuation is a dialogue tag ("Who?" she asked).
			if next := nextNonSpace(runes, end); next >= 0 && unicode.IsLower(runes[next]) {
				continue
			}
			if s := strings.TrimSpace(string(runes[start:end])); s != "" {
				out = append(out, Sentence{Paragraph: i + 1, Text: s})
			}
			start = end
			j = end - 1
		}
		if s := strings.TrimSpace(string(runes[start:])); s != "" {
			out = append(out, Sentence{Paragraph: i + 1, Text: s})
		}
	}
	return out
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '…'
}

func isClosing(r rune) bool {
	return r == '"' || r == '\'' || r == '”' || r == '’' || r == ')'
}

func nextNonSpace(runes []rune, from int) int {
	for i := from; i < len(runes); i++ {
		if !unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return -1
}

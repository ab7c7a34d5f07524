package continuity

import (
	"strings"
	"unicode"

	"storycodex/internal/story"
	"storycodex/internal/textutil"
)

var pronouns = setOf("he", "she", "they", "it", "his", "her", "hers", "their", "theirs", "its", "him", "them")

var copulas = setOf("is", "was", "were", "are", "be", "been", "looked", "seemed", "turned", "became", "remained", "stayed", "grew")

// fillers may sit between a copula and the value it introduces.
var fillers = setOf("a", "an", "the", "very", "still", "now", "so", "quite", "rather", "already", "all", "just")

// determiners never count as an attribute value.
var determiners = setOf("a", "an", "the", "her", "his", "their", "its", "my", "your", "our", "of", "and", "with", "no", "two", "both", "whose")

func setOf(words ...string) map[string]bool {
	out := make(map[string]bool, len(words))
	for _, w := range words {
		out[w] = true
	}
	return out
}

// normWord drops a trailing possessive.
func normWord(w string) string {
	for _, suffix := range []string{"'s", "’s"} {
		if strings.HasSuffix(w, suffix) {
			return strings.TrimSuffix(w, suffix)
		}
	}
	return w
}

func normWords(text string) []string {
	raw := textutil.Words(text)
	out := make([]string, len(raw))
	for i, w := range raw {
		out[i] = normWord(w)
	}
	return out
}

// phraseWords splits an entity id or attribute name into words.
func phraseWords(phrase string) []string {
	return normWords(strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(phrase))
}

// indexOf returns the position of needle as a contiguous run in words, or -1.
func indexOf(words, needle []string) int {
	if len(needle) == 0 {
		return -1
	}
outer:
	for i := 0; i+len(needle) <= len(words); i++ {
		for j, w := range needle {
			if words[i+j] != w {
				continue outer
			}
		}
		return i
	}
	return -1
}

func hasPronoun(words []string) bool {
	for _, w := range words {
		if pronouns[w] {
			return true
		}
	}
	return false
}

// cueMatch reports whether word is an inflection of cue ("eye" matches "eyes").
func cueMatch(word, cue string) bool {
	if word == cue {
		return true
	}
	for _, suffix := range []string{"s", "es", "d", "ed"} {
		if word == cue+suffix || cue == word+suffix {
			return true
		}
	}
	return false
}

// observedValue finds the value a sentence assigns to the attribute cued at
// position cue: the word after a copula ("eyes were blue") or, failing
// that, the modifier right before the cue ("blue eyes").
func observedValue(words []string, cue int, skip map[string]bool) (string, bool) {
	for i := cue + 1; i < len(words) && i <= cue+2; i++ {
		if !copulas[words[i]] {
			continue
		}
		for j := i + 1; j < len(words); j++ {
			if fillers[words[j]] {
				continue
			}
			if skip[words[j]] || determiners[words[j]] {
				return "", false
			}
			return words[j], true
		}
	}
	if cue > 0 {
		prev := words[cue-1]
		if !determiners[prev] && !skip[prev] && !pronouns[prev] && !copulas[prev] {
			return prev, true
		}
	}
	return "", false
}

// capitalizedRuns returns runs of capitalized words that are not at the start
// of the sentence or of a quotation. "I" and contractions of it are skipped.
func capitalizedRuns(sentence string) []string {
	fields := strings.Fields(sentence)
	var runs []string
	var current []string
	flush := func() {
		if len(current) > 0 {
			runs = append(runs, strings.Join(current, " "))
			current = nil
		}
	}
	start := true
	for _, field := range fields {
		core := strings.TrimLeftFunc(field, isOpener)
		opened := core != field
		trimmed := strings.TrimRightFunc(core, isTrailer)
		closes := trimmed != core
		r := firstRune(trimmed)
		capital := unicode.IsUpper(r) && !isPronounI(trimmed)
		switch {
		case start || opened:
			flush()
		case capital:
			current = append(current, normWord(trimmed))
		default:
			flush()
		}
		start = false
		if closes {
			flush()
			start = strings.ContainsAny(core[len(trimmed):], ".!?:…")
		}
	}
	flush()
	return runs
}

func isOpener(r rune) bool {
	return strings.ContainsRune("\"'“‘([—-*_", r)
}

func isTrailer(r rune) bool {
	return unicode.IsPunct(r) || r == '”' || r == '’'
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

func isPronounI(word string) bool {
	return word == "I" || strings.HasPrefix(word, "I'") || strings.HasPrefix(word, "I’")
}

// Known collects the names a draft may use without being flagged: the
// packet's cast, location, entities and glossary terms.
func Known(packet story.ContextPacket) []string {
	var out []string
	if scene := packet.RingA.Scene; scene != nil {
		out = append(out, scene.Cast...)
		out = append(out, scene.Setting.LocationID, scene.Title)
	}
	for _, entity := range packet.RingC.Entities {
		out = append(out, entity.ID)
		if name, ok := entity.Data.Get("name"); ok {
			out = append(out, name.Text())
		}
	}
	for _, term := range packet.RingC.Glossary {
		out = append(out, term.Term)
	}
	if packet.RingB.PriorScene != nil && packet.RingB.PriorScene.Plan != nil {
		out = append(out, packet.RingB.PriorScene.Plan.Cast...)
	}
	return out
}

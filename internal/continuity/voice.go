package continuity

import (
	"strings"

	"storycodex/internal/story"
	"storycodex/internal/textutil"
)

// Pronouns by grammatical person. Contractions count by their stem ("I'm").
var (
	firstPerson  = setOf("i", "me", "my", "mine", "myself", "we", "us", "our", "ours", "ourselves")
	secondPerson = setOf("you", "your", "yours", "yourself", "yourselves")
	thirdPerson  = setOf("he", "him", "his", "himself", "she", "her", "hers", "herself", "they", "them", "their", "theirs", "themselves")
)

// Auxiliaries that fix the tense of a clause. Contraction tails "'m" and
// "'re" count as present.
var (
	pastMarkers    = setOf("was", "were", "had", "did", "wasn't", "weren't", "hadn't", "didn't")
	presentMarkers = setOf("is", "are", "am", "has", "does", "isn't", "aren't", "hasn't", "doesn't")
)

// minVoiceEvidence is the fewest markers a verdict is drawn from.
const minVoiceEvidence = 3

// voiceTally counts POV and tense markers in narration, outside dialogue.
type voiceTally struct {
	pov   map[string]int
	tense map[string]int
	// first sentence carrying each marker kind
	where map[string]story.Evidence
}

func newVoiceTally() *voiceTally {
	return &voiceTally{
		pov:   map[string]int{story.POVFirst: 0, story.POVSecond: 0, story.POVThird: 0},
		tense: map[string]int{story.TensePast: 0, story.TensePresent: 0},
		where: map[string]story.Evidence{},
	}
}

func (v *voiceTally) add(narration string, evidence story.Evidence) {
	for _, w := range textutil.Words(narration) {
		w = strings.ReplaceAll(w, "’", "'")
		stem, tail := splitContraction(w)
		var kinds []string
		switch {
		case firstPerson[stem]:
			kinds = append(kinds, "pov:"+story.POVFirst)
			v.pov[story.POVFirst]++
		case secondPerson[stem]:
			kinds = append(kinds, "pov:"+story.POVSecond)
			v.pov[story.POVSecond]++
		case thirdPerson[stem]:
			kinds = append(kinds, "pov:"+story.POVThird)
			v.pov[story.POVThird]++
		}
		switch {
		case pastMarkers[w]:
			kinds = append(kinds, "tense:"+story.TensePast)
			v.tense[story.TensePast]++
		case presentMarkers[w], tail == "m", tail == "re":
			kinds = append(kinds, "tense:"+story.TensePresent)
			v.tense[story.TensePresent]++
		}
		for _, kind := range kinds {
			if _, ok := v.where[kind]; !ok {
				v.where[kind] = evidence
			}
		}
	}
}

func splitContraction(w string) (stem, tail string) {
	if i := strings.IndexByte(w, '\''); i > 0 {
		return w[:i], strings.TrimLeft(w[i:], "'")
	}
	return w, ""
}

// observedPOV names the narrating person. First and second person win on a
// third of the pronouns, since narrators still refer to others; third person
// needs the rest to stay under a tenth.
func (v *voiceTally) observedPOV() string {
	first, second, third := v.pov[story.POVFirst], v.pov[story.POVSecond], v.pov[story.POVThird]
	total := first + second + third
	switch {
	case total < minVoiceEvidence:
		return ""
	case first*3 >= total:
		return story.POVFirst
	case second*3 >= total:
		return story.POVSecond
	case (first+second)*10 <= total:
		return story.POVThird
	}
	return ""
}

// observedTense needs two thirds of the markers to agree.
func (v *voiceTally) observedTense() string {
	past, present := v.tense[story.TensePast], v.tense[story.TensePresent]
	total := past + present
	switch {
	case total < minVoiceEvidence:
		return ""
	case past*3 >= total*2:
		return story.TensePast
	case present*3 >= total*2:
		return story.TensePresent
	}
	return ""
}

func (v *voiceTally) verdict(axis, expected, observed string, counts map[string]int) story.VoiceCheck {
	check := story.VoiceCheck{Expected: expected, Observed: observed, Counts: counts, Status: story.CheckUnclear}
	if expected == "" || observed == "" {
		return check
	}
	if expected == observed {
		check.Status = story.CheckPass
		return check
	}
	check.Status = story.CheckMismatch
	if ev, ok := v.where[axis+":"+observed]; ok {
		check.Evidence = &ev
	}
	return check
}

func (v *voiceTally) povCheck(expected string) story.VoiceCheck {
	return v.verdict("pov", story.NormalizePOV(expected), v.observedPOV(), v.pov)
}

func (v *voiceTally) tenseCheck(expected string) story.VoiceCheck {
	return v.verdict("tense", story.NormalizeTense(expected), v.observedTense(), v.tense)
}

// narration drops quoted dialogue from s. open reports an unclosed straight
// or curly quote and is carried between sentences of one paragraph.
func narration(s string, open bool) (string, bool) {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			open = !open
			continue
		case '“':
			open = true
			continue
		case '”':
			open = false
			continue
		}
		if !open {
			b.WriteRune(r)
		}
	}
	return b.String(), open
}

// lockStatuses reports every lock. Keyed locks with an expected value are
// checked against the prose and pass unless a finding contradicts them;
// statement locks cannot be checked mechanically and stay unclear.
func lockStatuses(locks story.Locks, table []*tracked, findings []story.Finding) []story.LockStatus {
	checked := map[string]bool{}
	for _, t := range table {
		if t.lock != nil {
			checked[t.lock.ID] = true
		}
	}
	violated := map[string]story.Evidence{}
	for _, f := range findings {
		if f.Severity != story.FindingLockViolation {
			continue
		}
		if _, ok := violated[f.LockID]; !ok {
			violated[f.LockID] = f.Evidence
		}
	}
	out := make([]story.LockStatus, 0, len(locks.Locks))
	for _, lock := range locks.Locks {
		status := story.LockStatus{ID: lock.ID, Key: lock.Key, Severity: lock.Severity, Status: story.CheckUnclear}
		if ev, ok := violated[lock.ID]; ok {
			status.Status = story.CheckViolated
			status.Evidence = &ev
		} else if checked[lock.ID] {
			status.Status = story.CheckPass
		}
		out = append(out, status)
	}
	return out
}

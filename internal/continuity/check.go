package continuity

import (
	"fmt"
	"sort"
	"strings"

	"storycodex/internal/story"
	"storycodex/internal/textutil"
)

// Options describe the draft being checked.
type Options struct {
	SceneID int
	// Input is "draft" or "final".
	Input string
	// Beats are checked for must_include and must_avoid coverage.
	Beats []story.Beat
	// Known names are never reported as unknown references.
	Known []string
	// POV and Tense are Ring A's narration directives; empty leaves the
	// matching check unclear.
	POV   string
	Tense string
}

type tracked struct {
	fact     story.Fact
	words    []string // entity words
	cues     [][]string
	expected string
	lock     *story.Lock
}

// Check compares text with facts and locks. It never fails: problems with
// the prose are findings, and proposed fact changes go into the patch.
func Check(text string, facts story.Facts, locks story.Locks, opts Options) (story.ContinuityReport, story.Patch) {
	input := opts.Input
	if input == "" {
		input = story.InputDraft
	}
	report := story.ContinuityReport{
		SceneID:  opts.SceneID,
		Input:    input,
		Findings: []story.Finding{},
		Locks:    []story.LockStatus{},
		Beats:    []story.BeatCoverage{},
	}
	patch := story.Patch{SceneID: opts.SceneID, Entries: []story.PatchEntry{}}

	table := trackFacts(facts, locks)
	known := knownWords(opts.Known, table)
	skip := entityWordSet(table)

	voice := newVoiceTally()
	reportedRuns := map[string]bool{}
	var paragraph, ordinal int
	var carried []*tracked
	var quoted bool
	for _, sentence := range textutil.Sentences(text) {
		if sentence.Paragraph != paragraph {
			paragraph, ordinal, carried, quoted = sentence.Paragraph, 0, nil, false
		}
		ordinal++
		evidence := story.Evidence{Paragraph: sentence.Paragraph, Sentence: ordinal, Text: sentence.Text}
		words := normWords(sentence.Text)

		var narrated string
		narrated, quoted = narration(sentence.Text, quoted)
		voice.add(narrated, evidence)

		subjects := mentioned(table, words)
		if len(subjects) > 0 {
			carried = subjects
		} else if hasPronoun(words) {
			subjects = carried
		}
		for _, t := range subjects {
			if f, ok := compare(t, words, skip, evidence); ok {
				report.Findings = append(report.Findings, f)
			}
		}

		for _, run := range capitalizedRuns(sentence.Text) {
			key := textutil.Fold(run)
			if reportedRuns[key] || isKnown(run, known) {
				continue
			}
			reportedRuns[key] = true
			report.Findings = append(report.Findings, story.Finding{
				Entity:   run,
				Severity: story.FindingUnknownReference,
				Evidence: evidence,
			})
		}
	}

	sortFindings(report.Findings)
	patch.Entries = proposals(report.Findings)
	report.POV = voice.povCheck(opts.POV)
	report.Tense = voice.tenseCheck(opts.Tense)
	report.Locks = lockStatuses(locks, table, report.Findings)
	report.Beats = coverage(text, opts.Beats)
	report.Summary = summarize(report)
	return report, patch
}

// trackFacts pairs each fact with its cue words and any lock bound to it.
// Keyed locks whose fact is missing from the table still take part with the
// lock's own value.
func trackFacts(facts story.Facts, locks story.Locks) []*tracked {
	var out []*tracked
	seen := map[string]bool{}
	add := func(fact story.Fact) {
		t := &tracked{fact: fact, words: phraseWords(fact.Entity), expected: fact.Value.Text()}
		t.cues = append(t.cues, phraseWords(fact.Attribute))
		for _, kw := range fact.Keywords {
			t.cues = append(t.cues, phraseWords(kw))
		}
		if lock, ok := locks.ForKey(fact.Key); ok {
			t.lock = &lock
			if lock.Value != nil {
				t.expected = lock.Value.Text()
			}
		}
		if len(t.words) == 0 || strings.TrimSpace(t.expected) == "" {
			return
		}
		seen[fact.Key] = true
		out = append(out, t)
	}
	for _, fact := range facts.Items {
		add(fact)
	}
	for _, lock := range locks.Locks {
		if lock.Key == "" || lock.Value == nil || seen[lock.Key] {
			continue
		}
		entity, attribute, ok := story.SplitFactKey(lock.Key)
		if !ok {
			continue
		}
		add(story.Fact{Key: lock.Key, Entity: entity, Attribute: attribute, Value: *lock.Value})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].fact.Key < out[j].fact.Key })
	return out
}

// mentioned returns the tracked facts whose entity is named in words.
func mentioned(table []*tracked, words []string) []*tracked {
	var out []*tracked
	for _, t := range table {
		if indexOf(words, t.words) >= 0 {
			out = append(out, t)
		}
	}
	return out
}

func entityWordSet(table []*tracked) map[string]bool {
	out := map[string]bool{}
	for _, t := range table {
		for _, w := range t.words {
			out[w] = true
		}
	}
	return out
}

// compare looks for the attribute's cue in words and reports a finding when
// the stated value differs from the expected one.
func compare(t *tracked, words []string, skip map[string]bool, evidence story.Evidence) (story.Finding, bool) {
	expected := normWords(t.expected)
	if len(expected) == 0 {
		return story.Finding{}, false
	}
	for _, cue := range t.cues {
		if len(cue) == 0 {
			continue
		}
		for i, w := range words {
			if !cueMatch(w, cue[0]) {
				continue
			}
			if indexOf(words, expected) >= 0 {
				return story.Finding{}, false
			}
			observed, ok := observedValue(words, i, skip)
			if !ok || containsWord(expected, observed) || containsWord(cue, observed) {
				continue
			}
			finding := story.Finding{
				FactKey:   t.fact.Key,
				Entity:    t.fact.Entity,
				Attribute: t.fact.Attribute,
				Expected:  t.expected,
				Observed:  observed,
				Severity:  story.FindingFactMismatch,
				Evidence:  evidence,
			}
			if t.lock != nil {
				finding.Severity = story.FindingLockViolation
				finding.LockID = t.lock.ID
			}
			return finding, true
		}
	}
	return story.Finding{}, false
}

func containsWord(words []string, w string) bool {
	for _, candidate := range words {
		if candidate == w {
			return true
		}
	}
	return false
}

func knownWords(names []string, table []*tracked) map[string]bool {
	out := map[string]bool{}
	for _, name := range names {
		for _, w := range phraseWords(name) {
			out[w] = true
		}
	}
	for _, t := range table {
		for _, w := range t.words {
			out[w] = true
		}
	}
	return out
}

// isKnown accepts a run when any of its words belongs to a known name.
func isKnown(run string, known map[string]bool) bool {
	for _, w := range normWords(run) {
		if known[w] {
			return true
		}
	}
	return false
}

var severityRank = map[string]int{
	story.FindingLockViolation:    0,
	story.FindingFactMismatch:     1,
	story.FindingUnknownReference: 2,
}

func sortFindings(findings []story.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if ra, rb := severityRank[a.Severity], severityRank[b.Severity]; ra != rb {
			return ra < rb
		}
		if a.Evidence.Paragraph != b.Evidence.Paragraph {
			return a.Evidence.Paragraph < b.Evidence.Paragraph
		}
		if a.Evidence.Sentence != b.Evidence.Sentence {
			return a.Evidence.Sentence < b.Evidence.Sentence
		}
		return a.FactKey < b.FactKey
	})
}

// proposals turns findings into patch entries: a fact update for each
// mismatch and a manual resolution for each lock violation.
func proposals(findings []story.Finding) []story.PatchEntry {
	entries := []story.PatchEntry{}
	seen := map[string]bool{}
	for _, f := range findings {
		if f.FactKey == "" {
			continue
		}
		key := f.FactKey + "\x00" + f.Observed
		if seen[key] {
			continue
		}
		seen[key] = true
		entry := story.PatchEntry{FactKey: f.FactKey, From: f.Expected, To: f.Observed}
		switch f.Severity {
		case story.FindingLockViolation:
			entry.Op = story.PatchManualResolution
			entry.LockID = f.LockID
			entry.Reason = fmt.Sprintf("locked fact contradicted in paragraph %d; revise the prose or the lock", f.Evidence.Paragraph)
		default:
			entry.Op = story.PatchUpdateFact
			entry.Reason = fmt.Sprintf("prose states %q in paragraph %d", f.Observed, f.Evidence.Paragraph)
		}
		entries = append(entries, entry)
	}
	return entries
}

// coverage reports beat must_include and must_avoid items found in text.
func coverage(text string, beats []story.Beat) []story.BeatCoverage {
	out := []story.BeatCoverage{}
	prose := textutil.NewFingerprint(text)
	found := func(item string) bool {
		needle := textutil.NewFingerprint(item)
		if needle == nil {
			return true
		}
		return prose.Covers(needle)
	}
	for i, beat := range beats {
		c := story.BeatCoverage{Index: i + 1, Type: beat.Type, Covered: []string{}, Missing: []string{}, Violated: []string{}}
		for _, item := range beat.MustInclude {
			if found(item) {
				c.Covered = append(c.Covered, item)
			} else {
				c.Missing = append(c.Missing, item)
			}
		}
		for _, item := range beat.MustAvoid {
			if textutil.NewFingerprint(item) != nil && found(item) {
				c.Violated = append(c.Violated, item)
			}
		}
		out = append(out, c)
	}
	return out
}

func summarize(report story.ContinuityReport) story.ReportSummary {
	summary := story.ReportSummary{Counts: map[string]int{}}
	for _, severity := range story.FindingSeverities {
		summary.Counts[severity] = 0
	}
	for _, f := range report.Findings {
		summary.Counts[f.Severity]++
		summary.Total++
	}
	for _, b := range report.Beats {
		if len(b.Missing) > 0 {
			summary.BeatsMissing++
		}
	}
	return summary
}

package ringctx

import (
	"strings"

	"storycodex/internal/story"
	"storycodex/internal/textutil"
)

// buildRingA assembles the scene directives: story settings, plot intent,
// style profile, the scene plan and its beats.
func buildRingA(in *inputs) story.RingA {
	spec := in.spec
	tense := spec.VerbTense()
	pov := spec.PointOfView()

	var constraints []string
	for _, item := range spec.Constraints.Must {
		constraints = append(constraints, "MUST "+item)
	}
	for _, item := range spec.Constraints.MustNot {
		constraints = append(constraints, "MUST NOT "+item)
	}

	rules := []string{
		"Write in " + tense + " tense.",
		"Use " + pov + " POV.",
		"Keep paragraphs concise.",
		"Favor concrete sensory details.",
		"Maintain tonal consistency.",
	}
	tone := append([]string{}, spec.Tone...)
	if len(tone) > 0 {
		rules = append(rules, "Tone: "+strings.Join(tone, ", "))
	}

	if in.plot != nil {
		if arc := strings.TrimSpace(in.plot.Intent.CoreArc); arc != "" {
			constraints = append(constraints, "Core arc: "+arc)
		}
		if question := strings.TrimSpace(in.plot.Intent.CentralQuestion); question != "" {
			constraints = append(constraints, "Central question: "+question)
		}
		for _, theme := range in.plot.Intent.Themes {
			rules = append(rules, "Theme: "+theme)
		}
	}

	if in.style != nil {
		tone = story.AppendUnique(tone, in.style.Tone...)
		constraints = story.AppendUnique(constraints, in.style.Constraints()...)
		rules = story.AppendUnique(rules, in.style.Rules()...)
		if len(rules) > story.MaxStyleRules {
			rules = rules[:story.MaxStyleRules]
		}
	}

	plan := in.plan
	return story.RingA{
		Premise:           spec.PremiseText(),
		Tone:              tone,
		POV:               pov,
		Tense:             tense,
		GlobalConstraints: constraints,
		StyleRules:        rules,
		Scene:             &plan,
		Beats:             in.beats.Beats,
	}
}

// ringAWords returns the folded words of every Ring A text field. Glossary
// terms and tangential entities are matched against it.
func ringAWords(a story.RingA) []string {
	parts := []string{a.Premise}
	parts = append(parts, a.Tone...)
	parts = append(parts, a.GlobalConstraints...)
	parts = append(parts, a.StyleRules...)
	if a.Scene != nil {
		s := a.Scene
		parts = append(parts, s.Title, s.Goal, s.Stakes, s.Setting.LocationID, s.Setting.Time)
		parts = append(parts, s.Setting.MoodTags...)
		parts = append(parts, s.Cast...)
	}
	for _, beat := range a.Beats {
		parts = append(parts, beat.Description)
		parts = append(parts, beat.MustInclude...)
		parts = append(parts, beat.MustAvoid...)
	}
	return textutil.Words(strings.Join(parts, "\n"))
}

// mentions reports whether phrase appears as a contiguous run of words.
func mentions(words []string, phrase string) bool {
	needle := textutil.Words(strings.ReplaceAll(phrase, "_", " "))
	if len(needle) == 0 || len(needle) > len(words) {
		return false
	}
outer:
	for i := 0; i+len(needle) <= len(words); i++ {
		for j, w := range needle {
			if words[i+j] != w {
				continue outer
			}
		}
		return true
	}
	return false
}

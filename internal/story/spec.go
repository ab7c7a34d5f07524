package story

import (
	"strings"

	"storycodex/internal/services"
	"storycodex/internal/tree"
)

const (
	DefaultPOV   = "first"
	DefaultTense = "past"
)

// StorySpec is the typed view of inputs/story_spec.json. Unknown keys stay in
// the underlying document and are passed to planners verbatim.
type StorySpec struct {
	Title         string        `json:"title"`
	Premise       string        `json:"premise,omitempty"`
	Logline       string        `json:"logline,omitempty"`
	Genre         StringList    `json:"genre"`
	Tone          StringList    `json:"tone"`
	POV           string        `json:"pov"`
	Tense         string        `json:"tense"`
	TargetLength  TargetLength  `json:"target_length"`
	Constraints   Constraints   `json:"constraints"`
	Serialization Serialization `json:"serialization"`
}

type TargetLength struct {
	Unit  string `json:"unit"`
	Value int    `json:"value"`
}

type Constraints struct {
	Must    StringList `json:"must"`
	MustNot StringList `json:"must_not"`
}

type Serialization struct {
	Enabled bool `json:"enabled"`
}

// PremiseText returns the premise, falling back to the logline and then the title.
func (s StorySpec) PremiseText() string {
	for _, candidate := range []string{s.Premise, s.Logline, s.Title} {
		if text := strings.TrimSpace(candidate); text != "" {
			return text
		}
	}
	return ""
}

// PointOfView returns the configured POV or the default.
func (s StorySpec) PointOfView() string {
	if pov := strings.TrimSpace(s.POV); pov != "" {
		return pov
	}
	return DefaultPOV
}

// VerbTense returns the configured tense or the default.
func (s StorySpec) VerbTense() string {
	if tense := strings.TrimSpace(s.Tense); tense != "" {
		return tense
	}
	return DefaultTense
}

// Canonical POV and tense names.
const (
	POVFirst     = "first"
	POVSecond    = "second"
	POVThird     = "third"
	TensePast    = "past"
	TensePresent = "present"
)

// NormalizePOV maps free-form values such as "first person" or
// "Third limited" to a canonical POV, or "" when none is named.
func NormalizePOV(pov string) string {
	words := strings.Fields(strings.ToLower(pov))
	for _, canonical := range []string{POVFirst, POVSecond, POVThird} {
		for _, w := range words {
			if strings.TrimRight(w, "-,") == canonical {
				return canonical
			}
		}
	}
	return ""
}

// NormalizeTense maps values such as "Past tense" to a canonical tense, or ""
// when none is named.
func NormalizeTense(tense string) string {
	lower := strings.ToLower(tense)
	switch {
	case strings.Contains(lower, TensePast):
		return TensePast
	case strings.Contains(lower, TensePresent):
		return TensePresent
	}
	return ""
}

// CheckStorySpec verifies the minimal fields every generator relies on: a
// title and a premise (or logline).
func CheckStorySpec(doc tree.Value) error {
	if !doc.IsMapping() {
		return &services.SchemaError{Kind: "story_spec", Detail: "document must be an object"}
	}
	var missing []string
	if !stringField(doc, "title") {
		missing = append(missing, "title")
	}
	if !stringField(doc, "premise") && !stringField(doc, "logline") {
		missing = append(missing, "premise")
	}
	if len(missing) > 0 {
		return &services.SchemaError{Kind: "story_spec", Missing: missing}
	}
	if _, err := DecodeStorySpec(doc); err != nil {
		return err
	}
	return nil
}

// CheckPlotIntent accepts any object; plot intent has no required fields.
func CheckPlotIntent(doc tree.Value) error {
	if doc.IsNull() || doc.IsMapping() {
		return nil
	}
	return &services.SchemaError{Kind: "plot_intent", Detail: "document must be an object"}
}

// DecodeStorySpec converts a story spec document into its typed view.
func DecodeStorySpec(doc tree.Value) (StorySpec, error) {
	var spec StorySpec
	if err := doc.Decode(&spec); err != nil {
		return StorySpec{}, &services.SchemaError{Kind: "story_spec", Detail: err.Error()}
	}
	return spec, nil
}

func stringField(doc tree.Value, key string) bool {
	v, ok := doc.Get(key)
	if !ok {
		return false
	}
	s, ok := v.StringValue()
	return ok && strings.TrimSpace(s) != ""
}

// PlotIntent is the typed view of inputs/plot_intent.json.
type PlotIntent struct {
	Intent            IntentCore            `json:"plot_intent"`
	ProtagonistArc    ProtagonistArc        `json:"protagonist_arc"`
	PlotConstraints   PlotConstraints       `json:"plot_constraints"`
	ActShape          map[string]ActPurpose `json:"act_shape"`
	EndingConstraints EndingConstraints     `json:"ending_constraints"`
}

type IntentCore struct {
	CoreArc         string     `json:"core_arc"`
	Themes          StringList `json:"themes"`
	CentralQuestion string     `json:"central_question"`
}

type ProtagonistArc struct {
	StartingState string `json:"starting_state"`
	MidpointState string `json:"midpoint_state"`
	EndState      string `json:"end_state"`
}

type PlotConstraints struct {
	MustInclude StringList `json:"must_include"`
	MustNot     StringList `json:"must_not"`
}

type ActPurpose struct {
	Purpose string     `json:"purpose"`
	Beats   StringList `json:"beats"`
}

type EndingConstraints struct {
	ResolutionStyle     string `json:"resolution_style"`
	FinalImage          string `json:"final_image"`
	EmotionalAftertaste string `json:"emotional_aftertaste"`
}

// DecodePlotIntent converts a plot intent document into its typed view.
func DecodePlotIntent(doc tree.Value) (PlotIntent, error) {
	var intent PlotIntent
	if doc.IsNull() {
		return intent, nil
	}
	if err := CheckPlotIntent(doc); err != nil {
		return PlotIntent{}, err
	}
	if err := doc.Decode(&intent); err != nil {
		return PlotIntent{}, &services.SchemaError{Kind: "plot_intent", Detail: err.Error()}
	}
	return intent, nil
}

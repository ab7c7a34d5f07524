package story

import (
	"fmt"
	"strings"

	"storycodex/internal/services"
	"storycodex/internal/tree"
)

// MaxStyleRules caps Ring A style rules after the profile is applied.
const MaxStyleRules = 20

const profileListCap = 5

// StyleProfile is the optional seeds/style_profile document.
type StyleProfile struct {
	ProfileID      string         `json:"profile_id,omitempty"`
	ProfileName    string         `json:"profile_name,omitempty"`
	Intent         string         `json:"intent,omitempty"`
	Tone           StringList     `json:"tone,omitempty"`
	Syntax         SyntaxRules    `json:"syntax"`
	Sensory        SensoryRules   `json:"sensory"`
	Dialogue       DialogueRules  `json:"dialogue"`
	Diction        DictionRules   `json:"diction"`
	SceneRules     SceneRules     `json:"scene_rules"`
	OutputControls OutputControls `json:"output_controls"`
	HorrorEngine   HorrorEngine   `json:"horror_engine"`
	CharacterVoice CharacterVoice `json:"character_voice"`
}

type SyntaxRules struct {
	SentenceRhythm    string     `json:"sentence_rhythm,omitempty"`
	Paragraphing      string     `json:"paragraphing,omitempty"`
	RhetoricalDevices StringList `json:"rhetorical_devices,omitempty"`
}

type SensoryRules struct {
	PriorityOrder StringList `json:"priority_order,omitempty"`
	Motifs        StringList `json:"motifs,omitempty"`
}

type DialogueRules struct {
	Style       string     `json:"style,omitempty"`
	SubtextRule string     `json:"subtext_rule,omitempty"`
	CommonMoves StringList `json:"common_moves,omitempty"`
}

type DictionRules struct {
	Register string     `json:"register,omitempty"`
	Allowed  StringList `json:"allowed,omitempty"`
	Avoid    StringList `json:"avoid,omitempty"`
	Note     string     `json:"note,omitempty"`
}

type SceneRules struct {
	MustInclude StringList `json:"must_include,omitempty"`
	MustNot     StringList `json:"must_not,omitempty"`
}

type OutputControls struct {
	MetaphorDensity    string `json:"metaphor_density,omitempty"`
	ExpositionThrottle string `json:"exposition_throttle,omitempty"`
	Violence           string `json:"violence,omitempty"`
	Gore               string `json:"gore,omitempty"`
}

type HorrorEngine struct {
	Principles StringList `json:"principles,omitempty"`
	Taboos     StringList `json:"taboos,omitempty"`
}

type CharacterVoice struct {
	Habits        StringList `json:"habits,omitempty"`
	Unreliability StringList `json:"unreliability,omitempty"`
}

// DecodeStyleProfile converts a style profile document into its typed view.
func DecodeStyleProfile(doc tree.Value) (StyleProfile, error) {
	if !doc.IsMapping() {
		return StyleProfile{}, &services.SchemaError{Kind: "style_profile", Detail: "document must be an object"}
	}
	var profile StyleProfile
	if err := doc.Decode(&profile); err != nil {
		return StyleProfile{}, &services.SchemaError{Kind: "style_profile", Detail: err.Error()}
	}
	return profile, nil
}

// Constraints renders the profile's scene rules and taboos as global constraints.
func (p StyleProfile) Constraints() []string {
	var out []string
	for _, item := range p.SceneRules.MustInclude {
		out = append(out, "MUST: "+item)
	}
	for _, item := range p.SceneRules.MustNot {
		out = append(out, "MUST NOT: "+item)
	}
	for _, item := range p.HorrorEngine.Taboos {
		out = append(out, "MUST NOT: "+item)
	}
	return out
}

// Rules renders the profile as prose style rules in a fixed order.
func (p StyleProfile) Rules() []string {
	var rules []string
	add := func(label, value string) {
		if value = strings.TrimSpace(value); value != "" {
			rules = append(rules, fmt.Sprintf("%s: %s", label, value))
		}
	}
	add("Intent", p.Intent)
	add("Sentence rhythm", p.Syntax.SentenceRhythm)
	add("Paragraphing", p.Syntax.Paragraphing)
	add("Sensory priority", strings.Join(p.Sensory.PriorityOrder, " > "))
	add("Motifs", strings.Join(p.Sensory.Motifs, ", "))
	add("Dialogue subtext", p.Dialogue.SubtextRule)
	add("Dialogue style", p.Dialogue.Style)
	add("Diction register", p.Diction.Register)
	add("Diction note", p.Diction.Note)

	var controls []string
	for _, kv := range [][2]string{
		{"metaphor_density", p.OutputControls.MetaphorDensity},
		{"exposition_throttle", p.OutputControls.ExpositionThrottle},
		{"violence", p.OutputControls.Violence},
		{"gore", p.OutputControls.Gore},
	} {
		if v := strings.TrimSpace(kv[1]); v != "" {
			controls = append(controls, kv[0]+"="+v)
		}
	}
	add("Output controls", strings.Join(controls, ", "))

	for _, item := range head(p.HorrorEngine.Principles, profileListCap) {
		add("Horror principle", item)
	}
	for _, item := range head(p.CharacterVoice.Habits, profileListCap) {
		add("Voice habit", item)
	}
	for _, item := range head(p.CharacterVoice.Unreliability, profileListCap) {
		add("Unreliability", item)
	}
	return rules
}

func head(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

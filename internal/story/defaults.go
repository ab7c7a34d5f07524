package story

import (
	_ "embed"

	"storycodex/internal/tree"
)

var (
	//go:embed defaults/story_spec.json
	defaultStorySpec []byte
	//go:embed defaults/plot_intent.json
	defaultPlotIntent []byte
	//go:embed defaults/style_profile.example.json
	exampleStyleProfile []byte
)

// DefaultStorySpecJSON returns the template written to artifacts/defaults.
func DefaultStorySpecJSON() []byte { return clone(defaultStorySpec) }

// DefaultPlotIntentJSON returns the template written to artifacts/defaults.
func DefaultPlotIntentJSON() []byte { return clone(defaultPlotIntent) }

// ExampleStyleProfileJSON returns the example profile written to seeds/.
func ExampleStyleProfileJSON() []byte { return clone(exampleStyleProfile) }

// DefaultPlotIntent is used when no default plot intent file exists.
func DefaultPlotIntent() tree.Value {
	v, err := tree.ParseJSON(defaultPlotIntent)
	if err != nil {
		panic("story: embedded plot intent is invalid: " + err.Error())
	}
	return v
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

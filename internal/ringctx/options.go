package ringctx

import (
	"fmt"
	"strings"

	"storycodex/internal/services"
	"storycodex/internal/story"
)

// Options tune packet compilation.
type Options struct {
	// Budget is the token budget for the whole packet.
	Budget int
	// Resolution caps the detail level of referenced entities.
	Resolution string
	// Include selects the rings kept in the final packet.
	Include string
}

func (o Options) normalized() (Options, error) {
	o.Resolution = strings.TrimSpace(o.Resolution)
	if o.Resolution == "" {
		o.Resolution = story.ResolutionAuto
	}
	o.Include = strings.TrimSpace(o.Include)
	if o.Include == "" {
		o.Include = story.IncludeAll
	}
	if o.Budget < 1 {
		return o, services.Wrap(services.ErrValidation, "context", "options", fmt.Sprintf("budget must be positive, got %d", o.Budget), nil)
	}
	switch o.Resolution {
	case story.ResolutionAuto, story.ResolutionTiny, story.ResolutionMedium, story.ResolutionFull:
	default:
		return o, services.Wrap(services.ErrValidation, "context", "options", fmt.Sprintf("resolution must be one of auto, tiny, medium, full; got %q", o.Resolution), nil)
	}
	switch o.Include {
	case story.IncludeAll, story.IncludeRingA, story.IncludeRingB, story.IncludeRingC:
	default:
		return o, services.Wrap(services.ErrValidation, "context", "options", fmt.Sprintf("include must be one of all, ringA, ringB, ringC; got %q", o.Include), nil)
	}
	return o, nil
}

// levels returns the detail levels a direct reference may use, richest first.
func (o Options) levels() []string {
	switch o.Resolution {
	case story.ResolutionTiny:
		return []string{story.DetailTiny}
	case story.ResolutionMedium:
		return []string{story.DetailMedium, story.DetailTiny}
	default:
		return []string{story.DetailFull, story.DetailMedium, story.DetailTiny}
	}
}

package draft

import (
	"fmt"
	"strings"

	"storycodex/internal/services"
)

// Length presets in target words.
const (
	LengthShort  = "short"
	LengthMedium = "medium"
	LengthLong   = "long"
)

var presets = map[string]int{
	LengthShort:  600,
	LengthMedium: 1000,
	LengthLong:   1500,
}

// TargetWords resolves the word target: an explicit count wins over the preset.
func TargetWords(length string, explicit int) (int, error) {
	if explicit < 0 {
		return 0, services.Wrap(services.ErrValidation, "draft", "length", fmt.Sprintf("target words must be positive, got %d", explicit), nil)
	}
	if explicit > 0 {
		return explicit, nil
	}
	words, ok := presets[strings.TrimSpace(length)]
	if !ok {
		return 0, services.Wrap(services.ErrValidation, "draft", "length", fmt.Sprintf("length must be short, medium or long; got %q", length), nil)
	}
	return words, nil
}

// wordBounds is the accepted word range for target.
func wordBounds(target int) (lower, upper int) {
	return target * 6 / 10, target * 14 / 10
}

// expandBounds is the range requested by the expand prompt.
func expandBounds(target int) (lower, upper int) {
	return target * 7 / 10, target * 13 / 10
}

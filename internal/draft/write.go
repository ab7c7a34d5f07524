package draft

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"storycodex/internal/logging"
	"storycodex/internal/services"
	"storycodex/internal/services/llm"
	"storycodex/internal/story"
	"storycodex/internal/textutil"
)

const temperature = 0.7

// Options tune a single draft.
type Options struct {
	Model       string
	Length      string
	TargetWords int
	Logger      *slog.Logger
}

// Result is an accepted draft.
type Result struct {
	Text        string
	Length      string
	TargetWords int
	// Attempts counts generation calls, including retry and expand.
	Attempts int
}

// Validate reports why text is not an acceptable draft for target words and
// the packet's beats. An empty result means the draft passes.
func Validate(text string, target, beats int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return []string{"Draft is empty"}
	}
	var issues []string
	lower, upper := wordBounds(target)
	if n := textutil.WordCount(text); n < lower || n > upper {
		issues = append(issues, fmt.Sprintf("Word count %d outside %d-%d", n, lower, upper))
	}
	if beats > 0 && textutil.ParagraphCount(text) < (beats+1)/2 {
		issues = append(issues, "Paragraph count too low for beats")
	}
	return issues
}

// Write drafts the scene described by packet. A draft failing validation is
// retried once with the issues listed, then once more with an expand prompt;
// if it still fails the error carries the remaining issues.
func Write(ctx context.Context, packet story.ContextPacket, gen llm.Generator, opts Options) (Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	if gen == nil {
		return Result{}, &services.GenerationError{Op: "draft", Err: errors.New("generation backend not configured")}
	}
	length := strings.TrimSpace(opts.Length)
	if length == "" {
		length = LengthMedium
	}
	target, err := TargetWords(length, opts.TargetWords)
	if err != nil {
		return Result{}, err
	}
	encoded, err := packetJSON(packet)
	if err != nil {
		return Result{}, fmt.Errorf("encode context packet: %w", err)
	}

	beats := len(packet.RingA.Beats)
	result := Result{Length: length, TargetWords: target}
	call := func(messages []llm.Message) (string, error) {
		result.Attempts++
		return gen.Generate(ctx, llm.Request{
			Messages:    messages,
			Model:       opts.Model,
			Temperature: temperature,
			MaxTokens:   target * 2,
		})
	}

	text, err := call(writePrompt(encoded, target, length))
	if err != nil {
		return Result{}, err
	}
	issues := Validate(text, target, beats)
	if len(issues) > 0 {
		logger.Warn("draft failed validation; retrying",
			logging.Event("draft_retry"),
			logging.String("issues", strings.Join(issues, "; ")),
		)
		if text, err = call(retryPrompt(encoded, target, length, issues)); err != nil {
			return Result{}, err
		}
		issues = Validate(text, target, beats)
	}
	if len(issues) > 0 {
		logger.Warn("draft still invalid; requesting expansion",
			logging.Event("draft_expand"),
			logging.String("issues", strings.Join(issues, "; ")),
		)
		if text, err = call(expandPrompt(encoded, target, text)); err != nil {
			return Result{}, err
		}
		if issues = Validate(text, target, beats); len(issues) > 0 {
			return Result{}, services.Wrap(services.ErrValidation, "draft", "validate",
				"Draft failed validation: "+strings.Join(issues, "; "), nil)
		}
	}
	result.Text = strings.TrimRight(text, " \t\r\n") + "\n"
	return result, nil
}

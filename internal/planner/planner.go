package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"storycodex/internal/artifact"
	"storycodex/internal/logging"
	"storycodex/internal/services"
	"storycodex/internal/services/llm"
	"storycodex/internal/stage"
	"storycodex/internal/tree"
)

const (
	plannerSystem = "You are a careful story planner."
	repairSystem  = "You must output valid JSON only."
	temperature   = 0.4
)

// base holds what every planning stage shares.
type base struct {
	gen          llm.Generator
	defaultModel string
	logger       *slog.Logger
}

func newBase(gen llm.Generator, defaultModel string, logger *slog.Logger) base {
	logger = logging.NewComponentLogger(logger, "planner")
	return base{gen: gen, defaultModel: defaultModel, logger: logger}
}

// SetLogger implements stage.LoggerAware.
func (b *base) SetLogger(logger *slog.Logger) {
	if logger != nil {
		b.logger = logging.NewComponentLogger(logger, "planner")
	}
}

func (b *base) model(params stage.Params) string {
	if m := strings.TrimSpace(params.Model); m != "" {
		return m
	}
	return b.defaultModel
}

func (b *base) health(name string) stage.Health {
	if b.gen == nil {
		return stage.Unhealthy(name, "generation backend not configured")
	}
	return stage.Healthy(name)
}

// parseFunc parses a reply and returns the problems that make it unusable.
type parseFunc func(content string) []string

// generate runs the prompt, then one repair round when the reply is invalid.
func (b *base) generate(ctx context.Context, kind, model string, maxTokens int, messages []llm.Message, repair func(invalid string, problems []string) []llm.Message, parse parseFunc) error {
	if b.gen == nil {
		return &services.GenerationError{Op: kind, Err: errors.New("generation backend not configured")}
	}
	content, err := b.gen.Generate(ctx, llm.Request{Messages: messages, Model: model, Temperature: temperature, MaxTokens: maxTokens})
	if err != nil {
		return err
	}
	problems := parse(content)
	if len(problems) == 0 {
		return nil
	}
	b.logger.Warn("planner reply invalid; requesting repair",
		logging.Event("planner_repair"),
		logging.String("document", kind),
		logging.Int("problems", len(problems)),
		logging.String("first_problem", problems[0]),
	)
	repaired, err := b.gen.Generate(ctx, llm.Request{Messages: repair(content, problems), Model: model, Temperature: temperature, MaxTokens: maxTokens})
	if err != nil {
		return err
	}
	if problems = parse(repaired); len(problems) > 0 {
		return &services.SchemaError{
			Kind:   kind,
			Detail: "response could not be repaired into valid JSON: " + strings.Join(problems, "; "),
		}
	}
	return nil
}

// meta builds the sidecar for a generated artifact.
func (b *base) meta(ctx context.Context, store artifact.Store, req stage.Request, id stage.ID, model string, inputs ...artifact.Ref) (artifact.Meta, error) {
	m := artifact.NewMeta(string(id), req.RunID, req.Now)
	m.Model = model
	m.Backend = llm.BackendName(ctx, b.gen)
	hashes, err := artifact.HashInputs(ctx, store, inputs...)
	if err != nil {
		return m, err
	}
	m.InputHashes = hashes
	return m, nil
}

// loadOptional reads an optional JSON input as a document value.
func loadOptional(ctx context.Context, store artifact.Store, ref artifact.Ref) (tree.Value, bool, error) {
	doc, err := artifact.LoadTree(ctx, store, ref)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return tree.Value{}, false, nil
		}
		return tree.Value{}, false, err
	}
	return doc, true, nil
}

func prettyJSON(v any) string {
	data, err := tree.Pretty(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return strings.TrimRight(string(data), "\n")
}

func decodeReply(content string, out any) error {
	return llm.DecodeLLMJSON(llm.UnwrapContent(content), out)
}

func problemList(problems []string) string {
	lines := make([]string, len(problems))
	for i, p := range problems {
		lines[i] = "- " + p
	}
	return strings.Join(lines, "\n")
}

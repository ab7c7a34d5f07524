package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storycodex/internal/artifact"
	"storycodex/internal/fileutil"
	"storycodex/internal/services"
	"storycodex/internal/story"
	"storycodex/internal/tree"
)

const stageName = "seed"

// Use records one seed document that contributed to the inputs.
type Use struct {
	Path string `json:"path"`
	Hash string `json:"hash"`
}

// Manifest is written to artifacts/inputs/manifest.json.
type Manifest struct {
	Version        int               `json:"version"`
	CreatedAt      string            `json:"created_at"`
	SeedsUsed      []Use             `json:"seeds_used"`
	ResolvedInputs map[string]string `json:"resolved_inputs"`
}

// Report is written to out/seed_report.json.
type Report struct {
	Version       int        `json:"version"`
	ChangedKeys   []string   `json:"changed_keys"`
	PlotOverrides PlotReport `json:"plot_overrides"`
}

type PlotReport struct {
	ChangedKeys []string `json:"changed_keys"`
}

// Result holds the merged inputs and their bookkeeping documents.
type Result struct {
	StorySpec  tree.Value
	PlotIntent tree.Value
	Manifest   Manifest
	Report     Report
}

// Outputs lists the refs written by Stage.
func Outputs() []artifact.Ref {
	return []artifact.Ref{
		artifact.Of(artifact.KindInputStorySpec),
		artifact.Of(artifact.KindInputPlotIntent),
		artifact.Of(artifact.KindInputManifest),
		artifact.Of(artifact.KindSeedReport),
	}
}

// Merge overlays the seed overrides onto the default templates and checks the
// result. Nothing is written.
func Merge(ctx context.Context, store artifact.Store, now time.Time) (*Result, error) {
	baseRef := artifact.Of(artifact.KindDefaultStorySpec)
	baseSpec, _, err := loadDocument(ctx, store, baseRef)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return nil, &services.MissingDependencyError{
				Stage:       stageName,
				Requirement: string(baseRef.Kind),
				Path:        baseRef.Path(),
				Reason:      "default story spec template is missing",
				Hint:        "run storycodex init",
			}
		}
		return nil, err
	}

	basePlot := story.DefaultPlotIntent()
	plotRef := artifact.Of(artifact.KindDefaultPlotIntent)
	if doc, _, err := loadDocument(ctx, store, plotRef); err == nil {
		basePlot = doc
	} else if !errors.Is(err, services.ErrNotFound) {
		return nil, err
	}

	var used []Use
	specOverride, specPresent, err := loadSeed(ctx, store, artifact.KindSeedStoryOverrides, &used)
	if err != nil {
		return nil, err
	}
	plotOverride, plotPresent, err := loadSeed(ctx, store, artifact.KindSeedPlotOverrides, &used)
	if err != nil {
		return nil, err
	}
	profile, profilePresent, err := loadSeed(ctx, store, artifact.KindSeedStyleProfile, &used)
	if err != nil {
		return nil, err
	}
	if profilePresent {
		if _, err := story.DecodeStyleProfile(profile); err != nil {
			return nil, err
		}
	}

	mergedSpec := tree.Merge(baseSpec, specOverride, specPresent)
	if err := story.CheckStorySpec(mergedSpec); err != nil {
		return nil, err
	}
	mergedPlot := tree.Merge(basePlot, plotOverride, plotPresent)
	if err := story.CheckPlotIntent(mergedPlot); err != nil {
		return nil, err
	}

	if used == nil {
		used = []Use{}
	}
	return &Result{
		StorySpec:  mergedSpec,
		PlotIntent: mergedPlot,
		Manifest: Manifest{
			Version:   1,
			CreatedAt: now.UTC().Format(time.RFC3339Nano),
			SeedsUsed: used,
			ResolvedInputs: map[string]string{
				"story_spec":  artifact.Of(artifact.KindInputStorySpec).Path(),
				"plot_intent": artifact.Of(artifact.KindInputPlotIntent).Path(),
			},
		},
		Report: Report{
			Version:       1,
			ChangedKeys:   nonNil(tree.DiffKeys(baseSpec, mergedSpec)),
			PlotOverrides: PlotReport{ChangedKeys: nonNil(tree.DiffKeys(basePlot, mergedPlot))},
		},
	}, nil
}

// Stage queues the merged inputs, manifest and report on batch.
func (r *Result) Stage(batch *artifact.Batch) error {
	outputs := Outputs()
	docs := []any{r.StorySpec, r.PlotIntent, r.Manifest, r.Report}
	for i, ref := range outputs {
		if err := batch.PutJSON(ref, docs[i]); err != nil {
			return err
		}
	}
	return nil
}

// Apply merges the seeds and writes every output, or nothing on failure.
func Apply(ctx context.Context, store artifact.Store, now time.Time) (*Result, error) {
	result, err := Merge(ctx, store, now)
	if err != nil {
		return nil, err
	}
	var batch artifact.Batch
	if err := result.Stage(&batch); err != nil {
		return nil, err
	}
	if err := batch.Commit(ctx, store); err != nil {
		return nil, err
	}
	return result, nil
}

func loadSeed(ctx context.Context, store artifact.Store, kind artifact.Kind, used *[]Use) (tree.Value, bool, error) {
	ref, ok, err := artifact.ResolveSeed(ctx, store, kind)
	if err != nil || !ok {
		return tree.Value{}, false, err
	}
	doc, data, err := loadDocument(ctx, store, ref)
	if err != nil {
		return tree.Value{}, false, err
	}
	*used = append(*used, Use{Path: ref.Path(), Hash: fileutil.HashBytes(data)})
	return doc, true, nil
}

func loadDocument(ctx context.Context, store artifact.Store, ref artifact.Ref) (tree.Value, []byte, error) {
	data, err := store.Load(ctx, ref)
	if err != nil {
		return tree.Value{}, nil, err
	}
	var doc tree.Value
	if ref.IsYAML() {
		doc, err = tree.ParseYAML(data)
	} else {
		doc, err = tree.ParseJSON(data)
	}
	if err != nil {
		return tree.Value{}, nil, &services.SchemaError{Kind: string(ref.Kind), Detail: fmt.Sprintf("parse %s: %v", ref.Path(), err)}
	}
	return doc, data, nil
}

func nonNil(keys []string) []string {
	if keys == nil {
		return []string{}
	}
	return keys
}

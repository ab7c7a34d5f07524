package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"storycodex/internal/stage"
	"storycodex/internal/stageexec"
	"storycodex/internal/workflow"
)

// stageFlags are the flags shared by every stage command.
type stageFlags struct {
	force   bool
	runID   string
	model   string
	jsonOut bool
}

func (f *stageFlags) register(cmd *cobra.Command, withModel, withJSON bool) {
	cmd.Flags().BoolVar(&f.force, "force", false, "Regenerate outputs that already exist")
	cmd.Flags().StringVar(&f.runID, "run-id", "", "Run identifier recorded in meta sidecars (default: random UUID)")
	if withModel {
		cmd.Flags().StringVar(&f.model, "model", "", "Model override for this run")
	}
	if withJSON {
		cmd.Flags().BoolVar(&f.jsonOut, "json", false, "Print the outcome as JSON")
	}
}

func (f *stageFlags) options(params stage.Params) workflow.Options {
	params.Model = f.model
	return workflow.Options{Params: params, Force: f.force, RunID: f.runID}
}

type outcomeJSON struct {
	Stage   stage.ID `json:"stage"`
	Status  string   `json:"status"`
	Output  string   `json:"output"`
	Written []string `json:"written"`
}

// runStage executes one stage under the workspace lock and reports the outcome.
func runStage(cmd *cobra.Command, ctx *commandContext, id stage.ID, target stage.Target, flags *stageFlags, params stage.Params) error {
	return ctx.withPipeline(cmd, true, func(runCtx context.Context, p *workflow.Pipeline) error {
		outcome, err := p.Execute(runCtx, id, target, flags.options(params))
		if err != nil {
			return err
		}
		if flags.jsonOut {
			return writeJSON(cmd, toOutcomeJSON(outcome))
		}
		printOutcome(cmd, outcome)
		return nil
	})
}

func toOutcomeJSON(o stageexec.Outcome) outcomeJSON {
	written := make([]string, 0, len(o.Written))
	for _, ref := range o.Written {
		written = append(written, ref.Path())
	}
	return outcomeJSON{Stage: o.Stage, Status: o.Status, Output: o.Output.Path(), Written: written}
}

func printOutcome(cmd *cobra.Command, o stageexec.Outcome) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	if o.Skipped() {
		fmt.Fprintln(out, renderStatusLine(o.Stage.Label(), statusWarn, "skipped; "+o.Output.Path()+" exists (use --force)", colorize))
		return
	}
	fmt.Fprintln(out, renderStatusLine(o.Stage.Label(), statusOK, fmt.Sprintf("wrote %d artifacts", len(o.Written)), colorize))
	for _, ref := range o.Written {
		fmt.Fprintf(out, "%s  %s\n", statusIndent, ref.Path())
	}
}

func requireScene(scene int) error {
	if scene < 1 {
		return errSceneRequired
	}
	return nil
}

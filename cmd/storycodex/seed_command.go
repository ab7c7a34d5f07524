package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"storycodex/internal/artifact"
	"storycodex/internal/seed"
	"storycodex/internal/stage"
	"storycodex/internal/workflow"
)

func newSeedCommand(ctx *commandContext) *cobra.Command {
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed override commands",
	}
	seedCmd.AddCommand(newSeedApplyCommand(ctx))
	return seedCmd
}

func newSeedApplyCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Merge seed overrides into the input specs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPipeline(cmd, true, func(runCtx context.Context, p *workflow.Pipeline) error {
				outcome, err := p.Execute(runCtx, stage.Seed, stage.Target{}, workflow.Options{})
				if err != nil {
					return err
				}
				var report seed.Report
				if err := artifact.LoadJSON(runCtx, p.Store(), artifact.Of(artifact.KindSeedReport), &report); err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, report)
				}
				printOutcome(cmd, outcome)
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Changed keys: %s\n", joinOrNone(report.ChangedKeys))
				fmt.Fprintf(out, "Plot changed keys: %s\n", joinOrNone(report.PlotOverrides.ChangedKeys))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the seed report as JSON")
	return cmd
}

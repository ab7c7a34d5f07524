package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"storycodex/internal/workflow"
)

func newInitCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold default templates and the example style profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPipeline(cmd, true, func(runCtx context.Context, p *workflow.Pipeline) error {
				refs, err := p.Init(runCtx, force)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				fmt.Fprintln(out, renderStatusLine("Init", statusOK, fmt.Sprintf("wrote %d files", len(refs)), colorize))
				for _, ref := range refs {
					fmt.Fprintf(out, "%s  %s\n", statusIndent, ref.Path())
				}
				fmt.Fprintln(out, "Edit seeds/story_overrides.json (or .yaml), then run `storycodex seed apply`.")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing templates")
	return cmd
}

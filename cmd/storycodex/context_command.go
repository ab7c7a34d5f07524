package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"storycodex/internal/config"
	"storycodex/internal/stage"
)

func newBuildContextCommand(ctx *commandContext) *cobra.Command {
	flags := &stageFlags{}
	var (
		scene      int
		budget     int
		resolution string
		include    string
	)
	cmd := &cobra.Command{
		Use:   "build-context",
		Short: "Compile the budgeted context packet for one scene",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireScene(scene); err != nil {
				return err
			}
			if cmd.Flags().Changed("budget") && budget < config.MinContextBudget {
				return fmt.Errorf("--budget must be at least %d", config.MinContextBudget)
			}
			params := stage.Params{Resolution: resolution, Include: include}
			if cmd.Flags().Changed("budget") {
				params.Budget = budget
			}
			return runStage(cmd, ctx, stage.Context, stage.Target{Scene: scene}, flags, params)
		},
	}
	cmd.Flags().IntVar(&scene, "scene", 0, "Scene number")
	_ = cmd.MarkFlagRequired("scene")
	cmd.Flags().IntVar(&budget, "budget", 6500, "Token budget for the packet")
	cmd.Flags().StringVar(&resolution, "resolution", "", "Entity detail cap: auto, tiny, medium or full")
	cmd.Flags().StringVar(&include, "include", "", "Rings to keep: all, ringA, ringB or ringC")
	flags.register(cmd, false, true)
	return cmd
}

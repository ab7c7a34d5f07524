package main

import (
	"github.com/spf13/cobra"

	"storycodex/internal/stage"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate the spine, scene plans and beats",
	}
	planCmd.AddCommand(newPlanSpineCommand(ctx))
	planCmd.AddCommand(newPlanScenesCommand(ctx))
	planCmd.AddCommand(newPlanBeatsCommand(ctx))
	return planCmd
}

func newPlanSpineCommand(ctx *commandContext) *cobra.Command {
	flags := &stageFlags{}
	cmd := &cobra.Command{
		Use:   "spine",
		Short: "Generate artifacts/plot/spine.json from the input specs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStage(cmd, ctx, stage.Spine, stage.Target{}, flags, stage.Params{})
		},
	}
	flags.register(cmd, true, true)
	return cmd
}

func newPlanScenesCommand(ctx *commandContext) *cobra.Command {
	flags := &stageFlags{}
	var chapter int
	cmd := &cobra.Command{
		Use:   "scenes",
		Short: "Generate the scenes index and per-scene plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			if chapter < 0 {
				return errChapterNegative
			}
			return runStage(cmd, ctx, stage.Scenes, stage.Target{Chapter: chapter}, flags, stage.Params{})
		},
	}
	cmd.Flags().IntVar(&chapter, "chapter", 0, "Only plan the scenes of this chapter")
	flags.register(cmd, true, true)
	return cmd
}

func newPlanBeatsCommand(ctx *commandContext) *cobra.Command {
	flags := &stageFlags{}
	var scene int
	cmd := &cobra.Command{
		Use:   "beats",
		Short: "Generate the beat list of one scene",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireScene(scene); err != nil {
				return err
			}
			return runStage(cmd, ctx, stage.Beats, stage.Target{Scene: scene}, flags, stage.Params{})
		},
	}
	cmd.Flags().IntVar(&scene, "scene", 0, "Scene number")
	_ = cmd.MarkFlagRequired("scene")
	flags.register(cmd, true, true)
	return cmd
}

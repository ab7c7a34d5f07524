package main

import (
	"errors"

	"github.com/spf13/cobra"

	"storycodex/internal/stage"
)

func newWriteCommand(ctx *commandContext) *cobra.Command {
	writeCmd := &cobra.Command{
		Use:   "write",
		Short: "Prose generation commands",
	}
	writeCmd.AddCommand(newWriteSceneCommand(ctx))
	return writeCmd
}

func newWriteSceneCommand(ctx *commandContext) *cobra.Command {
	flags := &stageFlags{}
	var (
		scene       int
		length      string
		targetWords int
	)
	cmd := &cobra.Command{
		Use:   "scene",
		Short: "Draft one scene from its context packet",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireScene(scene); err != nil {
				return err
			}
			if targetWords < 0 {
				return errors.New("--target-words must be positive")
			}
			params := stage.Params{Length: length, TargetWords: targetWords}
			return runStage(cmd, ctx, stage.Draft, stage.Target{Scene: scene}, flags, params)
		},
	}
	cmd.Flags().IntVar(&scene, "scene", 0, "Scene number")
	_ = cmd.MarkFlagRequired("scene")
	cmd.Flags().StringVar(&length, "length", "", "Length preset: short, medium or long")
	cmd.Flags().IntVar(&targetWords, "target-words", 0, "Explicit target word count (overrides --length)")
	flags.register(cmd, true, false)
	return cmd
}

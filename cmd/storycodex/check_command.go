package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"storycodex/internal/artifact"
	"storycodex/internal/stage"
	"storycodex/internal/story"
	"storycodex/internal/workflow"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Checks over generated prose",
	}
	checkCmd.AddCommand(newCheckContinuityCommand(ctx))
	return checkCmd
}

func newCheckContinuityCommand(ctx *commandContext) *cobra.Command {
	flags := &stageFlags{}
	var (
		scene int
		input string
	)
	cmd := &cobra.Command{
		Use:   "continuity",
		Short: "Check a scene against facts and locks and propose a patch",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireScene(scene); err != nil {
				return err
			}
			if input != story.InputDraft && input != story.InputFinal {
				return fmt.Errorf("--input must be %s or %s", story.InputDraft, story.InputFinal)
			}
			target := stage.Target{Scene: scene, Input: input}
			return ctx.withPipeline(cmd, true, func(runCtx context.Context, p *workflow.Pipeline) error {
				outcome, err := p.Execute(runCtx, stage.Continuity, target, flags.options(stage.Params{}))
				if err != nil {
					return err
				}
				var report story.ContinuityReport
				if err := artifact.LoadJSON(runCtx, p.Store(), outcome.Output, &report); err != nil {
					return err
				}
				if flags.jsonOut {
					return writeJSON(cmd, report)
				}
				printOutcome(cmd, outcome)
				fmt.Fprintln(cmd.OutOrStdout(), renderFindings(report))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&scene, "scene", 0, "Scene number")
	_ = cmd.MarkFlagRequired("scene")
	cmd.Flags().StringVar(&input, "input", story.InputDraft, "Prose to check: draft or final")
	flags.register(cmd, false, true)
	return cmd
}

func renderFindings(report story.ContinuityReport) string {
	if len(report.Findings) == 0 {
		return fmt.Sprintf("Scene %d: no findings, %d beats with missing items.\n%s",
			report.SceneID, report.Summary.BeatsMissing, renderVoice(report))
	}
	rows := make([][]string, 0, len(report.Findings))
	for _, f := range report.Findings {
		subject := f.FactKey
		if subject == "" {
			subject = f.Entity
		}
		rows = append(rows, []string{
			f.Severity,
			subject,
			f.Expected,
			f.Observed,
			strconv.Itoa(f.Evidence.Paragraph) + ":" + strconv.Itoa(f.Evidence.Sentence),
		})
	}
	title := fmt.Sprintf("Scene %d continuity (%d findings)", report.SceneID, report.Summary.Total)
	return renderTable(title, []string{"Severity", "Subject", "Expected", "Observed", "Where"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight}) + "\n" + renderVoice(report)
}

// renderVoice summarizes the POV, tense and lock verdicts on one line.
func renderVoice(report story.ContinuityReport) string {
	locks := map[string]int{}
	for _, l := range report.Locks {
		locks[l.Status]++
	}
	return fmt.Sprintf("POV: %s, tense: %s, locks: %d pass, %d violated, %d unclear",
		voiceVerdict(report.POV), voiceVerdict(report.Tense),
		locks[story.CheckPass], locks[story.CheckViolated], locks[story.CheckUnclear])
}

func voiceVerdict(v story.VoiceCheck) string {
	if v.Observed == "" {
		return v.Status
	}
	return v.Status + " (" + v.Observed + ")"
}

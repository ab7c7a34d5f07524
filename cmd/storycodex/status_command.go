package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"storycodex/internal/workflow"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which stage outputs exist and what can run next",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPipeline(cmd, false, func(runCtx context.Context, p *workflow.Pipeline) error {
				summary, err := p.Status(runCtx)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, summary)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderStageTable(summary.Stages))
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("Stage handlers", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, h := range summary.Health {
					kind := statusOK
					if !h.Ready {
						kind = statusError
					}
					fmt.Fprintln(out, renderStatusLine(h.Name, kind, h.Detail, colorize))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the status report as JSON")
	return cmd
}

func renderStageTable(rows []workflow.StageStatus) string {
	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		scene := ""
		if row.Scene > 0 {
			scene = strconv.Itoa(row.Scene)
		}
		state := row.State
		if row.Reason != "" {
			state += " (" + row.Reason + ")"
		}
		lastRun := ""
		if row.LastRun != nil {
			lastRun = row.LastRun.Status
			if !row.LastRun.FinishedAt.IsZero() {
				lastRun += " " + row.LastRun.FinishedAt.Local().Format("2006-01-02 15:04")
			}
		}
		cells = append(cells, []string{string(row.Stage), scene, state, row.Output, lastRun})
	}
	return renderTable("Pipeline", []string{"Stage", "Scene", "State", "Output", "Last run"}, cells,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft})
}

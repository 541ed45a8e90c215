package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"convolens/internal/api"
	"convolens/internal/jobs"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status <task-id>",
		Short: "Show the lifecycle state of an analysis task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			resp, err := client.Status(args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, resp)
			}
			renderStatus(cmd, resp)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

func renderStatus(cmd *cobra.Command, resp api.StatusResponse) {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	fmt.Fprintln(stdout, renderStatusLine("Task", statusInfo, resp.TaskID, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Subject", statusInfo, resp.SubjectKey, colorize))
	if resp.FileName != "" {
		fmt.Fprintln(stdout, renderStatusLine("File", statusInfo, resp.FileName, colorize))
	}
	fmt.Fprintln(stdout, renderStatusLine("Status", statusKindFor(resp.Status), displayStatus(resp.Status), colorize))
	if resp.Superseded {
		fmt.Fprintln(stdout, renderStatusLine("Superseded by", statusWarn, resp.CurrentTaskID, colorize))
	}
	if resp.UpdatedAt != "" {
		fmt.Fprintln(stdout, renderStatusLine("Updated", statusInfo, resp.UpdatedAt, colorize))
	}
	if resp.Progress != nil && len(resp.Progress.Stages) > 0 {
		fmt.Fprintln(stdout)
		rows := stageRows(resp.Progress.Stages)
		fmt.Fprintln(stdout, renderTable([]string{"Stage", "State"}, rows, []columnAlignment{alignLeft, alignLeft}))
	}
}

func stageRows(stages map[string]string) [][]string {
	names := make([]string, 0, len(stages))
	for name := range stages {
		names = append(names, name)
	}
	sort.Strings(names)
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{name, stages[name]})
	}
	return rows
}

func displayStatus(status string) string {
	return jobs.Status(status).Display()
}

func statusKindFor(status string) statusKind {
	switch jobs.Status(status) {
	case jobs.StatusCompleted:
		return statusOK
	case jobs.StatusCompletedWithErrors:
		return statusWarn
	case jobs.StatusFailed:
		return statusError
	default:
		return statusInfo
	}
}

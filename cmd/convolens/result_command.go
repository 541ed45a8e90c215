package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"convolens/internal/api"
)

func newResultCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var wait bool

	cmd := &cobra.Command{
		Use:   "result <task-id>",
		Short: "Fetch the analysis report for a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}

			resp, pending, err := client.Result(args[0])
			for pending && wait {
				select {
				case <-cmd.Context().Done():
					return cmd.Context().Err()
				case <-time.After(500 * time.Millisecond):
				}
				resp, pending, err = client.Result(args[0])
			}
			if err != nil {
				return err
			}
			if pending {
				fmt.Fprintln(cmd.OutOrStdout(), "Analysis still in progress; retry later or pass --wait.")
				return nil
			}
			if jsonOut {
				return writeJSON(cmd, resp)
			}
			renderResult(cmd, resp)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the full report as JSON")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Poll until the report is ready")
	return cmd
}

func renderResult(cmd *cobra.Command, resp api.ResultResponse) {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	fmt.Fprintln(stdout, renderStatusLine("Task", statusInfo, resp.TaskID, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Subject", statusInfo, resp.SubjectKey, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Outcome", statusKindFor(resp.Report.Outcome), displayStatus(resp.Report.Outcome), colorize))

	names := make([]string, 0, len(resp.Report.Results))
	for name := range resp.Report.Results {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names)+len(resp.Report.Failures))
	for _, name := range names {
		rows = append(rows, []string{name, "ok", ""})
	}
	failed := make([]string, 0, len(resp.Report.Failures))
	for name := range resp.Report.Failures {
		failed = append(failed, name)
	}
	sort.Strings(failed)
	for _, name := range failed {
		rows = append(rows, []string{name, "failed", resp.Report.Failures[name]})
	}

	if len(rows) > 0 {
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, renderTable([]string{"Stage", "Result", "Detail"}, rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft}))
	}
	fmt.Fprintln(stdout, "Pass --json for the full stage payloads.")
}

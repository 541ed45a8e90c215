package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"convolens/internal/ipc"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Daemon control",
	}
	daemonCmd.AddCommand(newDaemonStatusCommand(ctx))
	daemonCmd.AddCommand(newDaemonStopCommand(ctx))
	daemonCmd.AddCommand(newDaemonSweepCommand(ctx))
	return daemonCmd
}

func newDaemonStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon runtime status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Status()
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, resp)
				}

				status := resp.Status
				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)

				runningKind := statusError
				runningText := "stopped"
				if status.Running {
					runningKind = statusOK
					runningText = "running"
				}
				fmt.Fprintln(stdout, renderStatusLine("Daemon", runningKind, runningText, colorize))
				fmt.Fprintln(stdout, renderStatusLine("PID", statusInfo, strconv.Itoa(status.PID), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Workers", statusInfo, strconv.Itoa(status.Workers), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Queue depth", statusInfo, strconv.Itoa(status.QueueDepth), colorize))
				fmt.Fprintln(stdout, renderStatusLine("State store", statusInfo, status.StorePath, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Lock file", statusInfo, status.LockFilePath, colorize))

				if len(status.Conversations) > 0 {
					fmt.Fprintln(stdout)
					rows := make([][]string, 0, len(status.Conversations))
					statuses := make([]string, 0, len(status.Conversations))
					for name := range status.Conversations {
						statuses = append(statuses, name)
					}
					sort.Strings(statuses)
					for _, name := range statuses {
						rows = append(rows, []string{displayStatus(name), strconv.Itoa(status.Conversations[name])})
					}
					fmt.Fprintln(stdout, renderTable([]string{"Status", "Count"}, rows,
						[]columnAlignment{alignLeft, alignRight}))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

func newDaemonStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the convolens daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Stop()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if resp.Stopped {
					fmt.Fprintln(stdout, "Daemon stopped")
				} else {
					fmt.Fprintln(stdout, "Stop request sent")
				}
				return nil
			})
		},
	}
}

func newDaemonSweepCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Purge expired records immediately",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Sweep()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Purged %d expired records\n", resp.Removed)
				return nil
			})
		},
	}
}

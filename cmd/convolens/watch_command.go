package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"convolens/internal/jobs"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [subject-key]",
		Short: "Stream live analysis progress",
		Long: "Stream per-stage progress over the daemon's websocket feed. With a " +
			"subject key only that conversation is shown; without one every run is.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			subjectKey := ""
			if len(args) == 1 {
				subjectKey = args[0]
			}

			header := make(map[string][]string)
			if client.token != "" {
				header["Authorization"] = []string{"Bearer " + client.token}
			}
			conn, _, err := websocket.DefaultDialer.DialContext(cmd.Context(), client.wsURL(subjectKey), header)
			if err != nil {
				return fmt.Errorf("connect to progress feed: %w", err)
			}
			defer conn.Close()

			// Close the feed when the command is interrupted so ReadJSON
			// unblocks.
			done := make(chan struct{})
			defer close(done)
			go func() {
				select {
				case <-cmd.Context().Done():
					conn.Close()
				case <-done:
				}
			}()

			stdout := cmd.OutOrStdout()
			fmt.Fprintln(stdout, "Watching analysis progress (Ctrl-C to stop)")
			for {
				var snapshot jobs.ProgressSnapshot
				if err := conn.ReadJSON(&snapshot); err != nil {
					if cmd.Context().Err() != nil {
						return nil
					}
					return fmt.Errorf("progress feed closed: %w", err)
				}
				fmt.Fprintf(stdout, "%s %s %s\n",
					snapshot.SubjectKey, snapshot.TaskID, formatStages(snapshot.Stages))
			}
		},
	}
	return cmd
}

func formatStages(stages map[string]string) string {
	names := make([]string, 0, len(stages))
	for name := range stages {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+stages[name])
	}
	return strings.Join(parts, " ")
}

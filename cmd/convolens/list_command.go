package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"convolens/internal/api"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var (
		jsonOut        bool
		statusFilter   string
		languageFilter string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List uploaded conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			resp, err := client.List(statusFilter, languageFilter)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, resp)
			}
			renderListing(cmd, resp.Items)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	cmd.Flags().StringVar(&statusFilter, "status", "", "Only show conversations in this status")
	cmd.Flags().StringVar(&languageFilter, "language", "", "Only show conversations in this language")
	return cmd
}

func renderListing(cmd *cobra.Command, items []api.ConversationSummary) {
	stdout := cmd.OutOrStdout()
	if len(items) == 0 {
		fmt.Fprintln(stdout, "No conversations uploaded")
		return
	}

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.SubjectKey,
			item.FileName,
			item.Language,
			displayStatus(item.Status),
			item.UpdatedAt,
		})
	}
	fmt.Fprintln(stdout, renderTable(
		[]string{"Subject", "File", "Lang", "Status", "Updated"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
	))
}

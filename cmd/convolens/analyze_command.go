package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var force bool
	var jsonOut bool
	var language string

	cmd := &cobra.Command{
		Use:   "analyze <subject-key>",
		Short: "Start analysis for an uploaded conversation",
		Long: "Submit an uploaded conversation for analysis. A conversation that " +
			"is processing or already analyzed is refused unless --force is given.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			resp, err := client.Analyze(args[0], language, force)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, resp)
			}
			stdout := cmd.OutOrStdout()
			fmt.Fprintf(stdout, "Analysis started for %s\n", resp.SubjectKey)
			fmt.Fprintf(stdout, "  Task: %s\n", resp.TaskID)
			fmt.Fprintf(stdout, "Track it with `convolens status %s`.\n", resp.TaskID)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Re-analyze even if a run exists or is in flight")
	cmd.Flags().StringVarP(&language, "language", "l", "", "Override the conversation language for this run")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"convolens/internal/conversation"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var language string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a conversation transcript",
		Long: "Upload a transcript file for later analysis. Supported formats: " +
			formatListing() + ".",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			resp, err := client.Upload(args[0], language)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, resp)
			}
			stdout := cmd.OutOrStdout()
			fmt.Fprintf(stdout, "Uploaded %s\n", resp.FileName)
			fmt.Fprintf(stdout, "  Subject:  %s\n", resp.SubjectKey)
			fmt.Fprintf(stdout, "  Format:   %s\n", resp.Format)
			fmt.Fprintf(stdout, "  Language: %s\n", resp.Language)
			fmt.Fprintf(stdout, "Run `convolens analyze %s` to start analysis.\n", resp.SubjectKey)
			return nil
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "", "Language hint for the transcript (name or ISO code)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}

func formatListing() string {
	formats := conversation.AllowedFormats()
	out := ""
	for i, format := range formats {
		if i > 0 {
			out += ", "
		}
		out += format
	}
	return out
}

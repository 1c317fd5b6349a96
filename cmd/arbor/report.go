package main

import (
	"strings"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report <text>...",
	Short: "Queue a feedback message for a session",
	Long:  `Queues a scope-less message that the next page rendered for the session displays.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, _ := cmd.Flags().GetString("session")
		level, _ := cmd.Flags().GetString("level")

		rt, err := runtimeFor(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		return cli.RunReport(cmd.Context(), rt, session, level, strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringP("session", "s", "default", "Target session")
	reportCmd.Flags().StringP("level", "l", "info", "Message level: debug, info, success, warning, error, fatal")
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render <page>",
	Short: "Render a page for a session",
	Long: `Renders a page, displaying and consuming the feedback messages queued
for the session. With --watch the page is rendered again whenever its
definitions change.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, _ := cmd.Flags().GetString("session")
		jsonMode, _ := cmd.Flags().GetBool("json")
		watchMode, _ := cmd.Flags().GetBool("watch")

		rt, err := runtimeFor(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		if watchMode {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return cli.RunWatch(ctx, rt, cmd.OutOrStdout(), session, args[0])
		}
		return cli.RunRender(cmd.Context(), rt, cmd.OutOrStdout(), session, args[0], jsonMode)
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringP("session", "s", "default", "Session whose feedback is displayed")
	renderCmd.Flags().Bool("json", false, "Print the rendered view as JSON")
	renderCmd.Flags().BoolP("watch", "w", false, "Render again when page definitions change")
}

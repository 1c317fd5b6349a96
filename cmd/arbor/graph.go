package main

import (
	"github.com/aretw0/arbor/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <page>",
	Short: "Export the page tree visualization",
	Long: `Builds a page and outputs a Mermaid diagram (graph TD) of its component tree.
With --session the page is rendered for that session first and each
collector shows how many messages it displayed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, _ := cmd.Flags().GetString("session")

		rt, err := runtimeFor(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()
		return cli.RunGraph(cmd.Context(), rt, cmd.OutOrStdout(), args[0], session)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().StringP("session", "s", "", "Overlay the feedback displayed for this session")
}

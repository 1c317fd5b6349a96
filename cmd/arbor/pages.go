package main

import (
	"github.com/aretw0/arbor/internal/cli"
	"github.com/spf13/cobra"
)

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "List the available pages",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := runtimeFor(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()
		return cli.RunPages(cmd.Context(), rt, cmd.OutOrStdout())
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that every page builds",
	Long:  `Builds every page and reports unknown kinds, bad properties and duplicate ids.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := runtimeFor(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()
		return cli.RunValidate(cmd.Context(), rt, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(pagesCmd)
	rootCmd.AddCommand(validateCmd)
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts the Arbor engine in server mode, exposing a JSON API, server-sent
events and Prometheus metrics over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")

		rt, err := runtimeFor(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return cli.RunServe(ctx, rt, ":"+port)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
}

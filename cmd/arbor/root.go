package main

import (
	"fmt"
	"os"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "Arbor renders component trees with routed feedback messages",
	Long: `Arbor builds pages from Markdown and YAML definitions, renders them as
component trees and routes per-session feedback messages to the collectors
that should display them.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("dir", ".", "Directory containing the page definitions")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("session-dir", "", "Keep session logs in this directory")
	flags.String("redis", "", "Keep session logs in Redis at this address")
	flags.String("redis-password", "", "Redis password")
	flags.Int("redis-db", 0, "Redis database")
	flags.Duration("session-ttl", 0, "Expire idle Redis sessions after this duration")
	flags.String("encryption-key", "", "Hex AES-256 key encrypting persisted messages (default $ARBOR_ENCRYPTION_KEY)")
	flags.StringSlice("fallback-key", nil, "Hex keys that decrypt messages written before a rotation")
	flags.StringSlice("redact", nil, "Regular expressions masked in persisted messages")
	flags.Bool("debug", false, "Log every lifecycle event")
}

// runtimeFor builds the engine described by the global flags.
func runtimeFor(cmd *cobra.Command) (*cli.Runtime, error) {
	flags := cmd.Flags()
	opts := cli.Options{}
	opts.Dir, _ = flags.GetString("dir")
	opts.LogLevel, _ = flags.GetString("log-level")
	opts.SessionDir, _ = flags.GetString("session-dir")
	opts.RedisAddr, _ = flags.GetString("redis")
	opts.RedisPassword, _ = flags.GetString("redis-password")
	opts.RedisDB, _ = flags.GetInt("redis-db")
	opts.SessionTTL, _ = flags.GetDuration("session-ttl")
	opts.EncryptionKey, _ = flags.GetString("encryption-key")
	if opts.EncryptionKey == "" {
		opts.EncryptionKey = os.Getenv("ARBOR_ENCRYPTION_KEY")
	}
	opts.FallbackKeys, _ = flags.GetStringSlice("fallback-key")
	opts.Redact, _ = flags.GetStringSlice("redact")
	opts.Debug, _ = flags.GetBool("debug")

	return cli.NewRuntime(opts)
}

package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	listenAddr string
)

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Document question answering over uploaded collections",
	Long: `docqa ingests documents into collections, indexes them in a vector store and
answers questions from their contents.

Without a subcommand it runs the HTTP API (same as "docqa serve").

Configuration is read from an optional --config file (toml or yaml), then .env,
then the environment (OPENAI_API_KEY, GOOGLE_API_KEY, QDRANT_HOST, REDIS_ADDR, ...).`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a toml or yaml config file")
	rootCmd.PersistentFlags().StringVar(&listenAddr, "listen-addr", "", "server listen address (overrides LISTEN_ADDR)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

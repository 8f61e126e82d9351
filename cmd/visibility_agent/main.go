// Package main provides the entry point for the AI visibility agent CLI and HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "visibility_agent",
	Short: "AI visibility analytics for brands",
	Long: `Measures how AI assistants talk about a brand and its competitors: per-model AI scores,
citation metrics, AI traffic share and the RAVI index.

Configuration is read from --config, then the environment (.env is loaded if present), then defaults.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.json file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print debug logs and formatted summaries")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

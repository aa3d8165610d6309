// Package main provides the cleanops command line: the HTTP API server plus
// maintenance commands for migrations, recurring schedules and reports.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "cleanops",
	Short:        "Cleanops HTTP API server",
	Long:         "Cleanops manages clients, recurring cleaning jobs, on-site timers and branded job reports for cleaning businesses.",
	SilenceUsage: true,
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON config file; environment variables take precedence")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

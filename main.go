package main

import (
	"os"

	"github.com/spf13/cobra"

	"recpanel/config"
)

var rootCmd = &cobra.Command{
	Use:   "recpanel",
	Short: "Control panel for a recording server",
	Long:  "recpanel polls a recording server, serves a live control panel and proxies downloads of finished recordings.",
	PersistentPreRun: func(*cobra.Command, []string) {
		config.Load()
	},
	SilenceUsage: true,
	RunE:         runServe,
}

func main() {
	rootCmd.AddCommand(serveCmd, statusCmd, startCmd, stopCmd, listCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for dirharvest.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dirharvest",
		Short: "Resumable harvester for paginated doctor directories",
		Long: `dirharvest crawls a doctor directory region by region, follows every
listing to its profile page, looks up the phone numbers of each office and
appends one CSV row per office.

The crawl checkpoints the last completed page of every region and the set of
harvested doctors. Rerunning after an interruption resumes without writing the
same doctor twice.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON lines")
	cmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (default warn)")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .dirharvest in current or home directory)")
	cmd.PersistentFlags().String("state-dir", "",
		"Directory for relative output and checkpoint paths (default: current directory)")
	cmd.PersistentFlags().Bool("xdg", false,
		"Keep output and checkpoint in the XDG data directory")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewRegionsCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"errors"

	"github.com/nao1215/dirharvest/internal/report"
	"github.com/spf13/cobra"
)

// errConflictingFormats is returned when both --json and --markdown are given.
var errConflictingFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the checkpoint: progress per region and known doctors",
		Long: `Status reads the checkpoint without touching the network and prints the last
completed page of every region and the number of doctors already harvested.

Examples:
  dirharvest status
  dirharvest status --backend sqlite --json`,
		Args: cobra.NoArgs,
		RunE: runStatusCmd,
	}

	addCheckpointFlags(cmd)
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")

	return cmd
}

func runStatusCmd(cmd *cobra.Command, _ []string) error {
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	asMarkdown, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if asJSON && asMarkdown {
		return errConflictingFormats
	}

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	state, err := loadState(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	st := report.NewStatus(cfg.CheckpointPath(), cfg.CheckpointBackend, state)

	out := cmd.OutOrStdout()
	var w report.Writer
	switch {
	case asJSON:
		w = report.NewJSONWriter(out, report.WithPrettyPrint())
	case asMarkdown:
		w = report.NewMarkdownWriter(out)
	default:
		w = report.NewSimpleWriter(out)
	}
	_, err = w.WriteStatus(st)
	return err
}

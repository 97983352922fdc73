package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/nao1215/dirharvest/internal/checkpoint"
	"github.com/nao1215/dirharvest/internal/crawler"
	"github.com/nao1215/dirharvest/internal/model"
	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"
)

// NewRegionsCmd creates the regions command.
func NewRegionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regions",
		Short: "List the directory's regions and where a crawl would resume",
		Long: `Regions fetches the region list from the directory and prints every region
with the page the next crawl starts at, read from the checkpoint.

Examples:
  dirharvest regions
  dirharvest regions -r /tehran --markdown`,
		Args: cobra.NoArgs,
		RunE: runRegionsCmd,
	}

	addSiteFlags(cmd)
	addCheckpointFlags(cmd)
	cmd.Flags().BoolP("markdown", "m", false, "Print a Markdown table")

	return cmd
}

func runRegionsCmd(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	asMarkdown, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}
	regionsURL, err := cfg.RegionsURL()
	if err != nil {
		return err
	}

	regions, err := crawler.NewEnumerator(client, regionsURL,
		crawler.WithInclude(cfg.Regions),
		crawler.WithEnumeratorLogger(logger),
	).Regions(ctx)
	if err != nil {
		return err
	}

	state, err := loadState(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if asMarkdown {
		return writeRegionsMarkdown(cmd.OutOrStdout(), regions, state)
	}
	return writeRegionsText(cmd.OutOrStdout(), regions, state)
}

func writeRegionsText(out io.Writer, regions []model.Region, state *checkpoint.State) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tRESUME PAGE")
	for _, r := range regions {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", r.ID, r.String(), state.ResumePage(r.ID))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "\n%d region(s)\n", len(regions))
	return err
}

func writeRegionsMarkdown(out io.Writer, regions []model.Region, state *checkpoint.State) error {
	md := markdown.NewMarkdown(out)
	md.H2("Regions")
	md.PlainText("")

	rows := make([][]string, 0, len(regions))
	for _, r := range regions {
		rows = append(rows, []string{"`" + r.ID + "`", r.String(), strconv.Itoa(state.ResumePage(r.ID))})
	}
	md.Table(markdown.TableSet{
		Header: []string{"ID", "Name", "Resume page"},
		Rows:   rows,
	})
	return md.Build()
}

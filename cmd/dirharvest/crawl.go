package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/moby/sys/atomicwriter"
	"github.com/nao1215/dirharvest/internal/checkpoint"
	"github.com/nao1215/dirharvest/internal/config"
	"github.com/nao1215/dirharvest/internal/crawler"
	"github.com/nao1215/dirharvest/internal/extract"
	"github.com/nao1215/dirharvest/internal/model"
	"github.com/nao1215/dirharvest/internal/pipeline"
	"github.com/nao1215/dirharvest/internal/report"
	"github.com/nao1215/dirharvest/internal/sink"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Harvest the directory into a CSV file",
		Long: `Crawl walks every region of the directory, pages through its listings,
resolves each doctor's profile and office phones, and appends one row per
office to the output CSV.

Progress is checkpointed after every page. Interrupt with Ctrl-C at any time;
the next crawl resumes from the last completed page of each region and never
writes a doctor that is already in the output.

Examples:
  # Crawl everything with the default pacing
  dirharvest crawl

  # Crawl two regions with a session cookie
  dirharvest crawl -r /tehran -r /shiraz --cookie "PHPSESSID=..."

  # Keep state in SQLite under the XDG data directory
  dirharvest crawl --xdg --backend sqlite

  # Write a Markdown run report
  dirharvest crawl --report harvest.md`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	addSiteFlags(cmd)
	addCheckpointFlags(cmd)

	cmd.Flags().Duration("page-delay", config.DefaultPageDelay, "Pause between two listing pages")
	cmd.Flags().Duration("region-delay", config.DefaultRegionDelay, "Pause before the next region")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency, "Regions crawled at once")
	cmd.Flags().StringP("output", "o", config.DefaultOutputFile, "CSV output file")
	cmd.Flags().Bool("stop-on-error", false, "End the run when a region fails")
	cmd.Flags().String("report", "",
		"Write a run report to this file (Markdown, or JSON for a .json file)")

	return cmd
}

func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cfg, logger, cmd.OutOrStdout())
}

// runCrawl performs one harvest run and prints its summary to out.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	runID := uuid.NewString()

	base, err := cfg.Base()
	if err != nil {
		return err
	}
	regionsURL, err := cfg.RegionsURL()
	if err != nil {
		return err
	}
	phonesURL, err := cfg.PhonesURL()
	if err != nil {
		return err
	}

	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}
	parser := extract.NewParser(cfg.Selectors)

	store, err := checkpoint.Open(cfg.CheckpointBackend, cfg.CheckpointPath(), checkpoint.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to open checkpoint: %w", err)
	}
	defer store.Close()

	state, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}

	csv, err := sink.OpenCSV(cfg.OutputPath())
	if err != nil {
		return err
	}
	defer csv.Close()

	orch, err := pipeline.NewOrchestrator(pipeline.Components{
		Regions: crawler.NewEnumerator(client, regionsURL,
			crawler.WithInclude(cfg.Regions),
			crawler.WithEnumeratorLogger(logger),
		),
		Pagers: func(region model.Region, startPage int) pipeline.PageSource {
			return crawler.NewPager(client, base, region, startPage,
				crawler.WithPageDelay(cfg.PageDelay),
				crawler.WithParser(parser),
				crawler.WithPagerLogger(logger),
			)
		},
		Extractor: crawler.NewExtractor(client, phonesURL,
			crawler.WithExtractorParser(parser),
			crawler.WithExtractorLogger(logger),
		),
		Sink:  csv,
		Store: store,
		State: state,
	},
		pipeline.WithLogger(logger),
		pipeline.WithRunID(runID),
		pipeline.WithRegionDelay(cfg.RegionDelay),
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithContinueOnError(cfg.ContinueOnError),
	)
	if err != nil {
		return err
	}

	logger.Info("starting crawl",
		"run_id", runID,
		"base_url", cfg.BaseURL,
		"output", csv.Path(),
		"checkpoint", store.Path(),
		"resumed_regions", len(state.Regions()),
		"known_identities", state.KnownCount(),
	)

	summary, runErr := orch.Run(ctx)

	rr := report.NewRunReport(summary, getVersion(), csv.Path(), store.Path())
	if _, err := report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose)).WriteRun(rr); err != nil {
		logger.Error("failed to print summary", "error", err)
	}
	if cfg.ReportFile != "" {
		if err := writeReportFile(cfg.ReportFile, rr); err != nil {
			logger.Error("failed to write report", "path", cfg.ReportFile, "error", err)
		} else {
			fmt.Fprintf(out, "Report written to %s\n", cfg.ReportFile)
		}
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			return errors.New("crawl interrupted: rerun to resume from the checkpoint")
		}
		return fmt.Errorf("crawl failed: %w", runErr)
	}
	return nil
}

// writeReportFile writes the run report. The format follows the file
// extension: .json writes JSON, anything else Markdown.
func writeReportFile(path string, rr *report.RunReport) error {
	return writeFileAtomic(path, func(w io.Writer) error {
		var rw report.Writer = report.NewMarkdownWriter(w)
		if strings.EqualFold(filepath.Ext(path), ".json") {
			rw = report.NewJSONWriter(w, report.WithPrettyPrint())
		}
		_, err := rw.WriteRun(rr)
		return err
	})
}

// writeFileAtomic renders into memory and replaces path only when render
// succeeds.
func writeFileAtomic(path string, render func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}
	if err := atomicwriter.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}

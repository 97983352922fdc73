package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/dirharvest/internal/checkpoint"
	"github.com/nao1215/dirharvest/internal/crawler"
	"github.com/nao1215/dirharvest/internal/model"
	"github.com/nao1215/dirharvest/internal/sink"
)

// RegionSource lists the regions to crawl.
type RegionSource interface {
	Regions(ctx context.Context) ([]model.Region, error)
}

// PageSource yields the listing pages of one region.
type PageSource interface {
	Next(ctx context.Context) (crawler.Outcome, error)
}

// PagerFactory creates the PageSource of region starting at startPage.
type PagerFactory func(region model.Region, startPage int) PageSource

// RecordExtractor resolves a listing entry into a Record. A nil Record with
// a nil error marks the entry unresolved.
type RecordExtractor interface {
	Extract(ctx context.Context, region model.Region, entry model.ListingEntry) (*model.Record, error)
}

// Components are the collaborators of an Orchestrator. All are required.
type Components struct {
	Regions   RegionSource
	Pagers    PagerFactory
	Extractor RecordExtractor
	Sink      sink.Sink
	Store     checkpoint.Store
	State     *checkpoint.State
}

func (c Components) validate() error {
	switch {
	case c.Regions == nil:
		return fmt.Errorf("%w: regions", ErrMissingComponent)
	case c.Pagers == nil:
		return fmt.Errorf("%w: pagers", ErrMissingComponent)
	case c.Extractor == nil:
		return fmt.Errorf("%w: extractor", ErrMissingComponent)
	case c.Sink == nil:
		return fmt.Errorf("%w: sink", ErrMissingComponent)
	case c.Store == nil:
		return fmt.Errorf("%w: store", ErrMissingComponent)
	case c.State == nil:
		return fmt.Errorf("%w: state", ErrMissingComponent)
	}
	return nil
}

// Orchestrator drives one harvest run.
type Orchestrator struct {
	c     Components
	dedup *crawler.Dedup

	logger          *slog.Logger
	runID           string
	regionDelay     time.Duration
	concurrency     int
	continueOnError bool

	// persistMu orders sink syncs and checkpoint saves across regions.
	persistMu sync.Mutex
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithRunID sets the identifier reported in logs and the run summary.
func WithRunID(id string) Option {
	return func(o *Orchestrator) {
		o.runID = id
	}
}

// WithRegionDelay sets the pause between two regions.
func WithRegionDelay(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.regionDelay = d
	}
}

// WithConcurrency sets how many regions are crawled at once.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithContinueOnError sets whether a region failure moves the run on to
// the next region (the default) or ends it.
func WithContinueOnError(continueOnError bool) Option {
	return func(o *Orchestrator) {
		o.continueOnError = continueOnError
	}
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(c Components, opts ...Option) (*Orchestrator, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	o := &Orchestrator{
		c:               c,
		dedup:           crawler.NewDedup(c.State),
		concurrency:     1,
		continueOnError: true,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.runID != "" {
		o.logger = o.logger.With("run_id", o.runID)
	}
	return o, nil
}

// Run crawls every region and returns what it did. The summary is never
// nil, also when an error is returned.
//
// A failed region is logged and recorded in the summary; the run moves on
// unless continue-on-error is off. Region enumeration failures, output
// failures and context cancellation end the run.
func (o *Orchestrator) Run(ctx context.Context) (*model.RunSummary, error) {
	summary := &model.RunSummary{
		RunID:     o.runID,
		StartedAt: time.Now(),
	}
	defer func() {
		summary.FinishedAt = time.Now()
		summary.KnownIdentities = o.c.State.KnownCount()
	}()

	o.logger.Info("run started", "known_identities", o.c.State.KnownCount())

	regions, err := o.c.Regions.Regions(ctx)
	if err != nil {
		summary.Cancelled = ctx.Err() != nil
		return summary, fmt.Errorf("failed to enumerate regions: %w", err)
	}

	summary.Regions = make([]*model.RegionSummary, len(regions))
	for i, r := range regions {
		summary.Regions[i] = &model.RegionSummary{
			Region:    r,
			StartPage: o.c.State.ResumePage(r.ID),
			LastPage:  o.c.State.LastPage(r.ID),
		}
	}

	batch := NewRegionBatch(
		WithBatchConcurrency(o.concurrency),
		WithBatchLogger(o.logger),
	)
	err = batch.Run(ctx, regions, func(ctx context.Context, i int, region model.Region) error {
		if i > 0 {
			if err := sleepCtx(ctx, o.regionDelay); err != nil {
				return err
			}
		}

		err := o.crawlRegion(ctx, region, summary.Regions[i])
		switch {
		case err == nil:
			return nil
		case ctx.Err() != nil, errors.Is(err, ErrOutput), !o.continueOnError:
			return err
		default:
			return nil
		}
	})

	if ctx.Err() != nil {
		summary.Cancelled = true
		o.logger.Warn("run cancelled", "error", ctx.Err())
		return summary, ctx.Err()
	}
	if err != nil {
		return summary, err
	}

	o.logger.Info("run finished",
		"regions", len(regions),
		"failed_regions", len(summary.FailedRegions()),
		"records", summary.TotalRecords(),
		"rows", summary.TotalRows(),
	)
	return summary, nil
}

// crawlRegion walks one region from its resume page to its stop condition.
func (o *Orchestrator) crawlRegion(ctx context.Context, region model.Region, rs *model.RegionSummary) error {
	start := o.c.State.ResumePage(region.ID)
	rs.StartPage = start

	logger := o.logger.With("region", region.ID)
	logger.Info("crawling region", "name", region.Name, "start_page", start)

	pager := o.c.Pagers(region, start)
	for {
		out, err := pager.Next(ctx)
		if err != nil {
			return o.fail(ctx, logger, rs, err)
		}
		if out.Kind == crawler.Stop {
			logger.Debug("stop condition reached", "page", out.Page, "reason", string(out.Reason))
			break
		}

		rs.PagesFetched++
		rs.Entries += len(out.Entries)
		for _, entry := range out.Entries {
			if err := o.handleEntry(ctx, region, entry, rs); err != nil {
				return o.fail(ctx, logger, rs, err)
			}
		}

		o.c.State.RecordProgress(region.ID, out.Page)
		rs.LastPage = o.c.State.LastPage(region.ID)
		if err := o.persist(ctx); err != nil {
			return o.fail(ctx, logger, rs, err)
		}
		logger.Debug("page completed", "page", out.Page, "entries", len(out.Entries))
	}

	if err := o.persist(ctx); err != nil {
		return o.fail(ctx, logger, rs, err)
	}
	rs.Completed = true

	logger.Info("region finished",
		"last_page", rs.LastPage,
		"pages", rs.PagesFetched,
		"records", rs.Records,
		"rows", rs.Rows,
		"duplicates", rs.Duplicates,
	)
	return nil
}

// handleEntry admits, extracts and writes one listing entry.
func (o *Orchestrator) handleEntry(ctx context.Context, region model.Region, entry model.ListingEntry, rs *model.RegionSummary) error {
	id := crawler.Normalize(entry.Identity)
	if id == "" {
		rs.Unresolved++
		return nil
	}
	if !o.dedup.Admit(id) {
		rs.Duplicates++
		return nil
	}

	rec, err := o.c.Extractor.Extract(ctx, region, entry)
	if err != nil {
		o.dedup.Forget(id)
		return fmt.Errorf("failed to extract %q: %w", id, err)
	}
	if rec == nil {
		o.dedup.Forget(id)
		rs.Unresolved++
		return nil
	}

	// The identity is saved before its rows are written. A crash in between
	// loses this record's rows but never writes them twice.
	o.dedup.Commit(id)
	if err := o.save(ctx); err != nil {
		return err
	}

	rows := rec.Rows()
	for _, row := range rows {
		if err := o.c.Sink.Write(row); err != nil {
			return fmt.Errorf("%w: %w", ErrOutput, err)
		}
	}
	if err := o.sync(); err != nil {
		return err
	}

	rs.Records++
	rs.Rows += len(rows)
	return nil
}

// persist syncs the sink and then saves a snapshot of the state. The save
// is not interrupted by cancellation of ctx.
func (o *Orchestrator) persist(ctx context.Context) error {
	if err := o.sync(); err != nil {
		return err
	}
	return o.save(ctx)
}

func (o *Orchestrator) sync() error {
	o.persistMu.Lock()
	defer o.persistMu.Unlock()

	if err := o.c.Sink.Sync(); err != nil {
		return fmt.Errorf("%w: %w", ErrOutput, err)
	}
	return nil
}

func (o *Orchestrator) save(ctx context.Context) error {
	o.persistMu.Lock()
	defer o.persistMu.Unlock()

	if err := o.c.Store.Save(context.WithoutCancel(ctx), o.c.State.Snapshot()); err != nil {
		return fmt.Errorf("%w: failed to save checkpoint: %w", ErrOutput, err)
	}
	return nil
}

// fail records err against the region. The interrupted page itself is not
// recorded, so a later run fetches it again.
func (o *Orchestrator) fail(ctx context.Context, logger *slog.Logger, rs *model.RegionSummary, err error) error {
	rs.Error = err.Error()

	if !errors.Is(err, ErrOutput) {
		if perr := o.persist(ctx); perr != nil {
			logger.Error("failed to persist after region failure", "error", perr)
		}
	}

	if ctx.Err() != nil {
		logger.Warn("region interrupted", "page", rs.LastPage, "error", err)
	} else {
		logger.Error("region failed", "last_page", rs.LastPage, "error", err)
	}
	return err
}

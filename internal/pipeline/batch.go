package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/dirharvest/internal/model"
)

// RegionFunc crawls one region. index is the region's position in the
// enumerated list.
type RegionFunc func(ctx context.Context, index int, region model.Region) error

// RegionBatch runs a RegionFunc over a list of regions with bounded
// concurrency. With a concurrency of 1 regions run strictly in order.
type RegionBatch struct {
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a RegionBatch.
type BatchOption func(*RegionBatch)

// WithBatchLogger sets the logger.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *RegionBatch) {
		b.logger = logger
	}
}

// WithBatchConcurrency sets how many regions may run at once.
// Non-positive values keep the default of 1.
func WithBatchConcurrency(n int) BatchOption {
	return func(b *RegionBatch) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewRegionBatch creates a RegionBatch.
func NewRegionBatch(opts ...BatchOption) *RegionBatch {
	b := &RegionBatch{concurrency: 1}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// Concurrency returns the configured concurrency.
func (b *RegionBatch) Concurrency() int {
	return b.concurrency
}

// Run calls fn for every region. The first error returned by fn cancels
// the regions still running and is returned once all have finished;
// regions not yet started are skipped.
func (b *RegionBatch) Run(ctx context.Context, regions []model.Region, fn RegionFunc) error {
	b.logger.Debug("starting region batch",
		"regions", len(regions),
		"concurrency", b.concurrency,
	)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, region := range regions {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i, region)
		})
	}

	err := g.Wait()

	b.logger.Debug("region batch finished",
		"regions", len(regions),
		"elapsed", time.Since(start),
	)
	return err
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

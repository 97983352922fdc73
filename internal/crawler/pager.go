package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/dirharvest/internal/extract"
	"github.com/nao1215/dirharvest/internal/model"
	"github.com/nao1215/dirharvest/internal/transport"
)

// OutcomeKind tells the caller whether a region has more pages.
type OutcomeKind int

const (
	// Continue means the page had entries and the next page may follow.
	Continue OutcomeKind = iota

	// Stop means the region is exhausted.
	Stop
)

func (k OutcomeKind) String() string {
	switch k {
	case Continue:
		return "continue"
	case Stop:
		return "stop"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// StopReason says which termination condition ended a region.
type StopReason string

// Stop reasons.
const (
	StopEmptyMarker StopReason = "empty marker"
	StopNoEntries   StopReason = "no entries"
	StopNotFound    StopReason = "not found"
)

// Outcome is the result of one page fetch.
type Outcome struct {
	Kind OutcomeKind

	// Page is the page number that was fetched.
	Page int

	// Entries is set for Continue outcomes.
	Entries []model.ListingEntry

	// Reason is set for Stop outcomes.
	Reason StopReason
}

// Pager walks the listing pages of one region.
//
// It fetches page n, returns Continue with the entries and moves to n+1, or
// returns Stop when the page is past the end. A failed fetch leaves the
// pager on n so the caller may retry or give up.
type Pager struct {
	fetcher Fetcher
	parser  *extract.Parser
	base    *url.URL
	region  model.Region
	delay   time.Duration
	logger  *slog.Logger

	fetched   bool
	page      int
	completed int
	stopped   bool
	reason    StopReason
}

// PagerOption configures a Pager.
type PagerOption func(*Pager)

// WithPageDelay sets the pause taken before every fetch after the first.
// The pause starts when Next is called, so time the caller spends on a page
// never shortens it.
func WithPageDelay(d time.Duration) PagerOption {
	return func(p *Pager) {
		if d < 0 {
			d = 0
		}
		p.delay = d
	}
}

// WithParser sets the markup parser.
func WithParser(parser *extract.Parser) PagerOption {
	return func(p *Pager) {
		if parser != nil {
			p.parser = parser
		}
	}
}

// WithPagerLogger sets the logger.
func WithPagerLogger(logger *slog.Logger) PagerOption {
	return func(p *Pager) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPager creates a Pager for region starting at startPage. Pages below 1
// start at 1.
func NewPager(f Fetcher, base *url.URL, region model.Region, startPage int, opts ...PagerOption) *Pager {
	if startPage < 1 {
		startPage = 1
	}
	p := &Pager{
		fetcher: f,
		parser:  extract.NewParser(extract.Selectors{}),
		base:    base,
		region:  region,
		logger:  slog.Default(),
		page:    startPage,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Page returns the page the next call to Next will fetch.
func (p *Pager) Page() int {
	return p.page
}

// LastCompleted returns the last page fetched with entries, or 0 when no
// such page has been fetched yet.
func (p *Pager) LastCompleted() int {
	return p.completed
}

// Stopped reports whether the region is exhausted.
func (p *Pager) Stopped() bool {
	return p.stopped
}

// PageURL returns the listing URL of page n: the region path for page 1
// and "<region>/page-<n>" after that.
func (p *Pager) PageURL(n int) string {
	u := strings.TrimRight(p.base.String(), "/") + RegionPath(p.region.ID)
	if n > 1 {
		u += fmt.Sprintf("/page-%d", n)
	}
	return u
}

// Next fetches the current page.
func (p *Pager) Next(ctx context.Context) (Outcome, error) {
	if p.stopped {
		return Outcome{Kind: Stop, Page: p.page, Reason: p.reason}, nil
	}

	if p.fetched {
		if err := sleepCtx(ctx, p.delay); err != nil {
			return Outcome{}, err
		}
	}
	p.fetched = true

	n := p.page
	pageURL := p.PageURL(n)
	p.logger.Debug("fetching listing page", "region", p.region.ID, "page", n, "url", pageURL)

	resp, err := p.fetcher.Get(ctx, pageURL)
	if err != nil {
		if transport.IsNotFound(err) {
			return p.stop(n, StopNotFound), nil
		}
		return Outcome{}, fmt.Errorf("failed to fetch page %d of %s: %w", n, p.region.ID, err)
	}

	base, err := url.Parse(resp.URL)
	if err != nil {
		base = p.base
	}
	listing, err := p.parser.Listing(resp.Body, base)
	if err != nil {
		return Outcome{}, err
	}

	switch {
	case listing.Empty:
		return p.stop(n, StopEmptyMarker), nil
	case len(listing.Entries) == 0:
		return p.stop(n, StopNoEntries), nil
	}

	p.completed = n
	p.page = n + 1
	return Outcome{Kind: Continue, Page: n, Entries: listing.Entries}, nil
}

func (p *Pager) stop(n int, reason StopReason) Outcome {
	p.stopped = true
	p.reason = reason
	p.logger.Debug("region exhausted", "region", p.region.ID, "page", n, "reason", string(reason))
	return Outcome{Kind: Stop, Page: n, Reason: reason}
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

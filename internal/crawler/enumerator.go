package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nao1215/dirharvest/internal/model"
)

// Enumerator produces the ordered list of regions to crawl.
type Enumerator struct {
	fetcher    Fetcher
	regionsURL string
	include    []string
	logger     *slog.Logger
}

// EnumeratorOption configures an Enumerator.
type EnumeratorOption func(*Enumerator)

// WithInclude keeps only the listed region IDs. "tehran" and "/tehran"
// are treated alike. An empty list keeps every region.
func WithInclude(ids []string) EnumeratorOption {
	return func(e *Enumerator) {
		e.include = nil
		for _, id := range ids {
			if id = RegionPath(id); id != "" {
				e.include = append(e.include, id)
			}
		}
	}
}

// WithEnumeratorLogger sets the logger.
func WithEnumeratorLogger(logger *slog.Logger) EnumeratorOption {
	return func(e *Enumerator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEnumerator creates an Enumerator reading the region list at regionsURL.
func NewEnumerator(f Fetcher, regionsURL string, opts ...EnumeratorOption) *Enumerator {
	e := &Enumerator{
		fetcher:    f,
		regionsURL: regionsURL,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Regions fetches the region list. Entries without an ID are skipped and
// the server's order is kept. Any failure is returned to the caller.
func (e *Enumerator) Regions(ctx context.Context) ([]model.Region, error) {
	resp, err := e.fetcher.Get(ctx, e.regionsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch region list: %w", err)
	}

	var raw []model.Region
	if err := json.Unmarshal(resp.Body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRegionList, err)
	}

	regions := make([]model.Region, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		r.ID = strings.TrimSpace(r.ID)
		r.Name = strings.TrimSpace(r.Name)
		if r.ID == "" {
			continue
		}
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		regions = append(regions, r)
	}

	if len(e.include) > 0 {
		regions = e.filter(regions)
	}

	e.logger.Debug("regions enumerated", "count", len(regions))
	return regions, nil
}

// filter keeps the included regions in server order and warns about
// included IDs the server does not know.
func (e *Enumerator) filter(regions []model.Region) []model.Region {
	wanted := make(map[string]bool, len(e.include))
	for _, id := range e.include {
		wanted[id] = false
	}

	kept := regions[:0]
	for _, r := range regions {
		if _, ok := wanted[RegionPath(r.ID)]; ok {
			wanted[RegionPath(r.ID)] = true
			kept = append(kept, r)
		}
	}

	for _, id := range e.include {
		if !wanted[id] {
			e.logger.Warn("included region not offered by the directory", "region", id)
		}
	}
	return kept
}

// RegionPath returns id as a path with exactly one leading slash and no
// trailing slash.
func RegionPath(id string) string {
	id = strings.Trim(strings.TrimSpace(id), "/")
	if id == "" {
		return ""
	}
	return "/" + id
}

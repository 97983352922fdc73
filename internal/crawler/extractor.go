package crawler

import (
	"context"
	"log/slog"

	"github.com/nao1215/dirharvest/internal/extract"
	"github.com/nao1215/dirharvest/internal/model"
	"github.com/nao1215/dirharvest/internal/transport"
)

// officeIDField is the form field of the phone lookup.
const officeIDField = "office_id"

// Extractor resolves listing entries into Records.
type Extractor struct {
	fetcher   Fetcher
	parser    *extract.Parser
	phonesURL string
	logger    *slog.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithExtractorParser sets the markup parser.
func WithExtractorParser(parser *extract.Parser) ExtractorOption {
	return func(e *Extractor) {
		if parser != nil {
			e.parser = parser
		}
	}
}

// WithExtractorLogger sets the logger.
func WithExtractorLogger(logger *slog.Logger) ExtractorOption {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExtractor creates an Extractor that looks phones up at phonesURL.
func NewExtractor(f Fetcher, phonesURL string, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		fetcher:   f,
		parser:    extract.NewParser(extract.Selectors{}),
		phonesURL: phonesURL,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract fetches the detail page of entry and builds its Record, with one
// phone lookup per office in office order.
//
// A nil Record with a nil error means the entry could not be resolved: it
// has no identity or detail link, or the detail page answered with an
// error status. Network failures are returned as errors. Missing optional
// fields never fail the record.
func (e *Extractor) Extract(ctx context.Context, region model.Region, entry model.ListingEntry) (*model.Record, error) {
	identity := Normalize(entry.Identity)
	if identity == "" || entry.DetailURL == "" {
		return nil, nil
	}

	resp, err := e.fetcher.Get(ctx, entry.DetailURL)
	if err != nil {
		if transport.IsStatus(err) {
			e.logger.Warn("detail page unavailable", "identity", identity, "url", entry.DetailURL, "error", err)
			return nil, nil
		}
		return nil, err
	}

	detail, err := e.parser.Detail(resp.Body)
	if err != nil {
		return nil, err
	}

	rec := &model.Record{
		Identity: identity,
		Category: model.OrDefault(entry.Category),
		Portrait: model.OrDefault(entry.Portrait),
		Offices:  make([]model.Office, 0, len(detail.Offices)),
	}

	for _, o := range detail.Offices {
		phones, err := e.phones(ctx, identity, o.OfficeID)
		if err != nil {
			return nil, err
		}
		rec.Offices = append(rec.Offices, model.Office{
			Region:         region.String(),
			StreetAddress:  o.StreetAddress,
			LicenseNumber:  detail.LicenseNumber,
			Phones:         phones,
			WazeLink:       o.WazeLink,
			GoogleMapsLink: o.GoogleMapsLink,
		})
	}

	return rec, nil
}

// phones looks up the numbers of one office. Error statuses and
// undecodable answers yield no numbers; network failures are returned.
func (e *Extractor) phones(ctx context.Context, identity, officeID string) ([]string, error) {
	if officeID == "" {
		return nil, nil
	}

	resp, err := e.fetcher.PostForm(ctx, e.phonesURL, map[string]string{officeIDField: officeID})
	if err != nil {
		if transport.IsStatus(err) {
			e.logger.Warn("phone lookup rejected", "identity", identity, "office_id", officeID, "error", err)
			return nil, nil
		}
		return nil, err
	}

	phones, err := extract.Phones(resp.Body)
	if err != nil {
		e.logger.Warn("phone lookup unreadable", "identity", identity, "office_id", officeID, "error", err)
		return nil, nil
	}
	return phones, nil
}

package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/dirharvest/internal/model"
)

// ListingPage is what one region listing page holds.
type ListingPage struct {
	// Empty is true when the page carries the "no more results" marker.
	Empty bool

	// Entries are the listing cards in page order.
	Entries []model.ListingEntry
}

// DetailPage is what one profile detail page holds.
type DetailPage struct {
	LicenseNumber string
	Offices       []DetailOffice
}

// DetailOffice is one office panel of a detail page.
type DetailOffice struct {
	// OfficeID keys the phone lookup. Empty means no lookup is possible.
	OfficeID string

	StreetAddress  string
	WazeLink       string
	GoogleMapsLink string
}

// Parser reads directory pages using a Selectors grammar.
type Parser struct {
	sel Selectors
}

// NewParser creates a Parser. Blank selectors use the defaults.
func NewParser(sel Selectors) *Parser {
	return &Parser{sel: sel.WithDefaults()}
}

// Selectors returns the effective grammar.
func (p *Parser) Selectors() Selectors {
	return p.sel
}

// Listing parses a region listing page. Detail links are resolved against
// base.
func (p *Parser) Listing(body []byte, base *url.URL) (*ListingPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing page: %w", err)
	}

	page := &ListingPage{
		Empty: doc.Find(p.sel.Empty).Length() > 0,
	}
	if page.Empty {
		return page, nil
	}

	doc.Find(p.sel.Card).Each(func(_ int, card *goquery.Selection) {
		entry := model.ListingEntry{
			Identity:  clean(card.Find(p.sel.CardName).First().Text()),
			Category:  model.OrDefault(clean(card.Find(p.sel.CardCategory).First().Text())),
			Portrait:  model.OrDefault(p.portrait(card)),
			DetailURL: resolve(base, attr(card, "href")),
		}
		page.Entries = append(page.Entries, entry)
	})

	return page, nil
}

// portrait returns the portrait reference of a listing card.
func (p *Parser) portrait(card *goquery.Selection) string {
	img := card.Find(p.sel.CardPortrait).First()
	if v := attr(img, p.sel.PortraitAttr); v != "" {
		return v
	}
	return attr(img, "src")
}

// Detail parses a profile detail page.
func (p *Parser) Detail(body []byte) (*DetailPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse detail page: %w", err)
	}

	page := &DetailPage{
		LicenseNumber: model.OrDefault(clean(doc.Find(p.sel.License).First().Text())),
	}

	var ids []string
	doc.Find(p.sel.OfficeID).Each(func(_ int, s *goquery.Selection) {
		ids = append(ids, attr(s, p.sel.OfficeIDAttr))
	})

	doc.Find(p.sel.Office).Each(func(i int, panel *goquery.Selection) {
		page.Offices = append(page.Offices, DetailOffice{
			OfficeID:       officeID(ids, i),
			StreetAddress:  model.OrDefault(clean(panel.Find(p.sel.OfficeStreet).First().Text())),
			WazeLink:       model.OrDefault(attr(panel.Find(p.sel.OfficeWaze).First(), "href")),
			GoogleMapsLink: model.OrDefault(attr(panel.Find(p.sel.OfficeMaps).First(), "href")),
		})
	})

	return page, nil
}

// officeID pairs the i-th office panel with the i-th identifier. When the
// counts disagree the first identifier is used.
func officeID(ids []string, i int) string {
	if i < len(ids) && ids[i] != "" {
		return ids[i]
	}
	if len(ids) > 0 {
		return ids[0]
	}
	return ""
}

func attr(s *goquery.Selection, name string) string {
	v, _ := s.Attr(name)
	return strings.TrimSpace(v)
}

// clean trims s and collapses inner whitespace runs to one space.
func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// resolve makes ref absolute against base. An empty ref stays empty.
func resolve(base *url.URL, ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base == nil {
		return u.String()
	}
	return base.ResolveReference(u).String()
}

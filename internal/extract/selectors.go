package extract

// Selectors is the CSS grammar used to read the directory markup.
// Blank fields fall back to DefaultSelectors.
type Selectors struct {
	// Empty marks a listing page past the last page of results.
	Empty string `yaml:"empty"`

	// Card matches one listing entry. Its href is the detail link.
	Card         string `yaml:"card"`
	CardName     string `yaml:"card_name"`
	CardCategory string `yaml:"card_category"`
	CardPortrait string `yaml:"card_portrait"`

	// PortraitAttr is the attribute holding the portrait URL. Lazy loaded
	// images keep it in data-src; src is tried when it is absent.
	PortraitAttr string `yaml:"portrait_attr"`

	License string `yaml:"license"`

	// Office matches one office panel on the detail page; the remaining
	// Office* selectors are evaluated inside it.
	Office       string `yaml:"office"`
	OfficeStreet string `yaml:"office_street"`
	OfficeWaze   string `yaml:"office_waze"`
	OfficeMaps   string `yaml:"office_maps"`

	// OfficeID matches the elements carrying office identifiers, in the
	// same order as the office panels.
	OfficeID     string `yaml:"office_id"`
	OfficeIDAttr string `yaml:"office_id_attr"`
}

// DefaultSelectors returns the grammar of the nobat.ir markup.
func DefaultSelectors() Selectors {
	return Selectors{
		Empty:        "div.empty",
		Card:         "a.doctor-ui",
		CardName:     "h2.doctor-ui-name span",
		CardCategory: "span.doctor-ui-specialty",
		CardPortrait: "div.doctor-ui-profile img",
		PortraitAttr: "data-src",
		License:      "div.doctor-code span:nth-child(2)",
		Office:       "div.locations-panel-item",
		OfficeStreet: "p",
		OfficeWaze:   `a[href*="waze.com"]`,
		OfficeMaps:   `a[href*="google.com/maps"]`,
		OfficeID:     "div.offices div.office",
		OfficeIDAttr: "data-officeid",
	}
}

// WithDefaults returns s with every blank field taken from DefaultSelectors.
func (s Selectors) WithDefaults() Selectors {
	d := DefaultSelectors()
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&s.Empty, d.Empty)
	fill(&s.Card, d.Card)
	fill(&s.CardName, d.CardName)
	fill(&s.CardCategory, d.CardCategory)
	fill(&s.CardPortrait, d.CardPortrait)
	fill(&s.PortraitAttr, d.PortraitAttr)
	fill(&s.License, d.License)
	fill(&s.Office, d.Office)
	fill(&s.OfficeStreet, d.OfficeStreet)
	fill(&s.OfficeWaze, d.OfficeWaze)
	fill(&s.OfficeMaps, d.OfficeMaps)
	fill(&s.OfficeID, d.OfficeID)
	fill(&s.OfficeIDAttr, d.OfficeIDAttr)
	return s
}

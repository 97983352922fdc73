package model

import "strings"

// NotAvailable is the value written for any field that could not be extracted.
const NotAvailable = "N/A"

// PhoneSeparator joins the phone numbers of one office in the output.
const PhoneSeparator = ","

// ListingEntry is a reference to a candidate Record found on a listing page.
// It is transient and never persisted.
type ListingEntry struct {
	// Identity is the identity hint shown on the listing card (the profile name).
	// Empty means the card carried no usable name.
	Identity string

	// Category is the specialty label shown on the card.
	Category string

	// Portrait is the portrait image reference.
	Portrait string

	// DetailURL is the absolute URL of the profile detail page.
	DetailURL string
}

// Record is one harvested profile.
// Identity uniqueness is enforced by the dedup filter, not by Record itself.
type Record struct {
	Identity string
	Category string
	Portrait string

	// Offices are kept in the order they appear on the detail page.
	Offices []Office
}

// Office is a location and contact sub-record owned by exactly one Record.
type Office struct {
	// Region is the display name of the region the record was found in.
	Region string

	StreetAddress  string
	LicenseNumber  string
	Phones         []string
	WazeLink       string
	GoogleMapsLink string
}

// PhoneNumbers returns the office phone numbers as one output field.
func (o Office) PhoneNumbers() string {
	return strings.Join(o.Phones, PhoneSeparator)
}

// Rows flattens the record into one Row per Office.
// A record without offices yields no rows.
func (r *Record) Rows() []Row {
	rows := make([]Row, 0, len(r.Offices))
	for _, o := range r.Offices {
		rows = append(rows, Row{
			Name:           r.Identity,
			Specialty:      r.Category,
			ImageURL:       r.Portrait,
			City:           o.Region,
			StreetAddress:  o.StreetAddress,
			LicenseNumber:  o.LicenseNumber,
			PhoneNumbers:   o.PhoneNumbers(),
			WazeLink:       o.WazeLink,
			GoogleMapsLink: o.GoogleMapsLink,
		})
	}
	return rows
}

// OrDefault returns s trimmed, or NotAvailable when it is blank.
func OrDefault(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return NotAvailable
	}
	return s
}

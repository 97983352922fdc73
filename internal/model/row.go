package model

// Row is one line of the output file: a Record joined with one of its Offices.
// Rows are written once and never mutated.
//
// The csv tags define the fixed column order of the output file.
type Row struct {
	Name           string `csv:"Name"`
	Specialty      string `csv:"Specialty"`
	ImageURL       string `csv:"Image URL"`
	City           string `csv:"City"`
	StreetAddress  string `csv:"Street Address"`
	LicenseNumber  string `csv:"License Number"`
	PhoneNumbers   string `csv:"Phone Numbers"`
	WazeLink       string `csv:"Waze Link"`
	GoogleMapsLink string `csv:"Google Maps Link"`
}

// Columns is the header of the output file, in order.
var Columns = []string{
	"Name",
	"Specialty",
	"Image URL",
	"City",
	"Street Address",
	"License Number",
	"Phone Numbers",
	"Waze Link",
	"Google Maps Link",
}

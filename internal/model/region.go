package model

// Region is a geographic partition of the directory listing.
// It is immutable once returned by the region enumerator.
type Region struct {
	// ID is the region path on the directory site, e.g. "/tehran".
	// It doubles as the checkpoint key for the region.
	ID string `json:"url"`

	// Name is the human-readable display name, e.g. "Tehran".
	Name string `json:"tit"`
}

// String returns the display name, falling back to the ID.
func (r Region) String() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}

package crawler

import "errors"

// ErrInvalidRegionList is returned when the region list answer cannot be
// decoded.
var ErrInvalidRegionList = errors.New("invalid region list")

package domain

import "errors"

// Domain errors returned at command boundaries.
var (
	ErrInvalidBSSID   = errors.New("invalid BSSID")
	ErrInvalidAzimuth = errors.New("azimuth must be a finite number of degrees")
	ErrNotTracking    = errors.New("no station is being tracked")
)

package domain

import (
	"math"
	"regexp"
	"strings"
)

// Validation Helpers

var macRegex = regexp.MustCompile(`^([0-9A-Fa-f]{2}[:-]){5}([0-9A-Fa-f]{2})$`)

// IsValidBSSID checks if the string is a valid hardware address
func IsValidBSSID(bssid string) bool {
	return macRegex.MatchString(bssid)
}

// NormalizeBSSID returns the canonical lowercase, colon separated form of a
// hardware address. Stations are keyed by this form everywhere.
func NormalizeBSSID(bssid string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(bssid)), "-", ":")
}

// ValidateAzimuth rejects NaN and infinite compass readings.
func ValidateAzimuth(deg float64) error {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return ErrInvalidAzimuth
	}
	return nil
}

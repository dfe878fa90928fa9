package domain

// Band is the coarse frequency range a channel belongs to.
type Band string

const (
	Band24GHz   Band = "2.4ghz"
	Band5GHz    Band = "5ghz"
	Band6GHz    Band = "6ghz"
	BandUnknown Band = "unknown"
)

// BandInfo is the display metadata attached to a Band.
type BandInfo struct {
	Label  string `json:"label"`
	MinMHz int    `json:"min_mhz"`
	MaxMHz int    `json:"max_mhz"`
}

var bandInfo = map[Band]BandInfo{
	Band24GHz:   {Label: "2.4 GHz", MinMHz: 2412, MaxMHz: 2484},
	Band5GHz:    {Label: "5 GHz", MinMHz: 5170, MaxMHz: 5825},
	Band6GHz:    {Label: "6 GHz", MinMHz: 5955, MaxMHz: 7115},
	BandUnknown: {Label: "Unknown"},
}

// Info returns the display metadata of the band.
func (b Band) Info() BandInfo {
	if info, ok := bandInfo[b]; ok {
		return info
	}
	return bandInfo[BandUnknown]
}

// Contains reports whether freq falls inside the band.
func (b Band) Contains(freq int) bool {
	info := b.Info()
	return info.MaxMHz > 0 && freq >= info.MinMHz && freq <= info.MaxMHz
}

// BandForFrequency classifies a frequency in MHz. Frequencies outside every
// known band yield BandUnknown rather than an error.
func BandForFrequency(freq int) Band {
	for _, b := range []Band{Band24GHz, Band5GHz, Band6GHz} {
		if b.Contains(freq) {
			return b
		}
	}
	return BandUnknown
}

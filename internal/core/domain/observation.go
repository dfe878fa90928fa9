package domain

import (
	"strings"
	"time"
)

// HiddenSSID is the display name used for networks that do not broadcast an SSID.
const HiddenSSID = "<hidden>"

// NetworkObservation is one transmitter as seen in a single scan snapshot.
// It is a value type and is never mutated after construction.
type NetworkObservation struct {
	BSSID        string    `json:"bssid"`
	SSID         string    `json:"ssid"`
	RSSI         int       `json:"rssi"`
	Frequency    int       `json:"freq"`
	Channel      int       `json:"channel"`
	Band         Band      `json:"band"`
	Capabilities string    `json:"capabilities,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewObservation builds an observation and derives its channel and band from the frequency.
// An empty SSID is replaced by the HiddenSSID sentinel.
func NewObservation(bssid, ssid string, rssi, freq int, caps string, ts time.Time) NetworkObservation {
	if strings.TrimSpace(ssid) == "" {
		ssid = HiddenSSID
	}
	return NetworkObservation{
		BSSID:        NormalizeBSSID(bssid),
		SSID:         ssid,
		RSSI:         rssi,
		Frequency:    freq,
		Channel:      FrequencyToChannel(freq),
		Band:         BandForFrequency(freq),
		Capabilities: caps,
		Timestamp:    ts,
	}
}

// IsHidden reports whether the network hides its SSID.
func (o NetworkObservation) IsHidden() bool {
	return o.SSID == HiddenSSID
}

// Snapshot is the complete set of transmitters visible at one scan moment.
type Snapshot struct {
	Observations []NetworkObservation `json:"observations"`
	Timestamp    time.Time            `json:"timestamp"`
	Source       string               `json:"source,omitempty"`
}

// Find returns the observation for bssid, if present.
func (s Snapshot) Find(bssid string) (NetworkObservation, bool) {
	bssid = NormalizeBSSID(bssid)
	for _, o := range s.Observations {
		if o.BSSID == bssid {
			return o, true
		}
	}
	return NetworkObservation{}, false
}

// FrequencyToChannel converts a carrier frequency in MHz to its channel number.
// Unknown frequencies map to channel 0.
func FrequencyToChannel(freq int) int {
	// 2.4 GHz band (channels 1-14)
	if freq >= 2412 && freq <= 2484 {
		if freq == 2484 {
			return 14
		}
		return (freq - 2407) / 5
	}

	// 5 GHz band (channels 36-165)
	if freq >= 5170 && freq <= 5825 {
		return (freq - 5000) / 5
	}

	// 6 GHz band - WiFi 6E (channels 1-233)
	if freq >= 5955 && freq <= 7115 {
		return (freq - 5950) / 5
	}

	return 0
}

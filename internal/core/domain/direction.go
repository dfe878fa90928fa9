package domain

import (
	"math"
	"time"
)

// DirectionReading pairs a compass azimuth with the RSSI of the tracked station
// at the moment the reading was captured.
type DirectionReading struct {
	Azimuth   float64   `json:"azimuth"`
	RSSI      int       `json:"rssi"`
	BSSID     string    `json:"bssid"`
	Timestamp time.Time `json:"timestamp"`
}

// DirectionProfile maps bucketed azimuths to the mean RSSI seen in that direction.
type DirectionProfile struct {
	BSSID           string          `json:"bssid"`
	BucketWidth     int             `json:"bucket_width"`
	Buckets         map[int]float64 `json:"buckets"`
	Samples         map[int]int     `json:"samples"`
	SignalDirection *float64        `json:"signal_direction,omitempty"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// NewDirectionProfile returns an empty profile for bssid.
func NewDirectionProfile(bssid string, width int) DirectionProfile {
	return DirectionProfile{
		BSSID:       bssid,
		BucketWidth: width,
		Buckets:     make(map[int]float64),
		Samples:     make(map[int]int),
	}
}

// IsEmpty reports whether the profile holds no buckets.
func (p DirectionProfile) IsEmpty() bool {
	return len(p.Buckets) == 0
}

// NormalizeAzimuth folds any angle in degrees into [0, 360).
func NormalizeAzimuth(deg float64) float64 {
	n := math.Mod(deg, 360)
	if n < 0 {
		n += 360
	}
	if n >= 360 {
		n = 0
	}
	return n
}

// AzimuthBucket returns the start angle of the width-degree bucket containing deg.
func AzimuthBucket(deg float64, width int) int {
	return int(math.Floor(NormalizeAzimuth(deg)/float64(width))) * width
}

// MonitorState is a consistent read-only view over everything the engine publishes.
type MonitorState struct {
	Channels     []ChannelStats    `json:"channels"`
	Events       []AttackEvent     `json:"events"`
	Profile      *DirectionProfile `json:"profile,omitempty"`
	Bearing      *float64          `json:"bearing,omitempty"`
	TrackedBSSID string            `json:"tracked_bssid,omitempty"`
	Azimuth      float64           `json:"azimuth"`
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Severity represents the criticality of a detection.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// AttackCategory is the inferred kind of attack behind a suspicious channel.
type AttackCategory string

const (
	AttackDeauth      AttackCategory = "DEAUTH"
	AttackEvilTwin    AttackCategory = "EVIL_TWIN"
	AttackBeaconFlood AttackCategory = "BEACON_FLOOD"
	AttackUnknown     AttackCategory = "SUSPICIOUS"
)

// AttackInfo is the descriptive metadata carried by an AttackCategory.
type AttackInfo struct {
	DisplayName string   `json:"display_name"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

var attackInfo = map[AttackCategory]AttackInfo{
	AttackDeauth: {
		DisplayName: "Deauthentication",
		Description: "Repeated sudden signal drops consistent with forced disconnections",
		Severity:    SeverityCritical,
	},
	AttackEvilTwin: {
		DisplayName: "Evil Twin",
		Description: "Several transmitters advertising the same network name on one channel",
		Severity:    SeverityHigh,
	},
	AttackBeaconFlood: {
		DisplayName: "Beacon Flood",
		Description: "Unusually many networks crowding a single channel",
		Severity:    SeverityMedium,
	},
	AttackUnknown: {
		DisplayName: "Suspicious Activity",
		Description: "Channel activity above the suspicion threshold without a clear signature",
		Severity:    SeverityLow,
	},
}

// Info returns the display metadata for the category.
func (c AttackCategory) Info() AttackInfo {
	if info, ok := attackInfo[c]; ok {
		return info
	}
	return attackInfo[AttackUnknown]
}

// AttackCategories lists every category in classification priority order.
func AttackCategories() []AttackCategory {
	return []AttackCategory{AttackDeauth, AttackEvilTwin, AttackBeaconFlood, AttackUnknown}
}

// UnknownSignal is the signal strength reported when a channel has no stations.
const UnknownSignal = -100

// AttackEvent is an append-only record of one classification.
type AttackEvent struct {
	ID             string         `json:"id"`
	Category       AttackCategory `json:"category"`
	TargetBSSID    string         `json:"target_bssid,omitempty"`
	TargetSSID     string         `json:"target_ssid,omitempty"`
	TargetVendor   string         `json:"target_vendor,omitempty"`
	Channel        int            `json:"channel"`
	Bearing        *float64       `json:"bearing,omitempty"`
	SignalStrength int            `json:"signal_strength"`
	Confidence     int            `json:"confidence"`
	Timestamp      time.Time      `json:"timestamp"`
}

// NewAttackEvent creates an event with a fresh identifier.
func NewAttackEvent(category AttackCategory, channel, confidence int, at time.Time) AttackEvent {
	return AttackEvent{
		ID:             uuid.New().String(),
		Category:       category,
		Channel:        channel,
		SignalStrength: UnknownSignal,
		Confidence:     confidence,
		Timestamp:      at,
	}
}

// Age returns the time elapsed since the event was created.
func (e AttackEvent) Age(now time.Time) time.Duration {
	if now.Before(e.Timestamp) {
		return 0
	}
	return now.Sub(e.Timestamp)
}

// IsActive reports whether the event is still within its active window.
func (e AttackEvent) IsActive(now time.Time, window time.Duration) bool {
	return e.Age(now) <= window
}

package domain

import (
	"time"
)

// MaxSuspiciousScore is the upper bound of a channel suspicious-activity score.
const MaxSuspiciousScore = 100

// ChannelStats is the per-channel aggregate derived from the latest snapshot.
// It is recomputed in full on every snapshot.
type ChannelStats struct {
	Channel         int       `json:"channel"`
	Band            Band      `json:"band"`
	NetworkCount    int       `json:"network_count"`
	AverageRSSI     int       `json:"avg_rssi"`
	SuspiciousScore int       `json:"suspicious_score"`
	ErrorPackets    int       `json:"error_packets"`
	LastUpdate      time.Time `json:"updated_at"`
}

// IsStale returns true if the stats haven't been updated within the given TTL.
func (s *ChannelStats) IsStale(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.LastUpdate) > ttl
}

// ClampScore bounds a raw score to [0, MaxSuspiciousScore].
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > MaxSuspiciousScore {
		return MaxSuspiciousScore
	}
	return score
}

package analysis

import (
	"time"

	"github.com/lcalzada-xor/wsentry/internal/core/domain"
	"github.com/lcalzada-xor/wsentry/internal/core/ports"
)

// Classification thresholds.
const (
	ScoreGate            = 50
	UnknownScoreGate     = 70
	DeauthErrorThreshold = 50
	EvilTwinMinGroup     = 2
	BeaconFloodMinCount  = 20
)

// Classifier maps scored channels to at most one attack category each.
type Classifier struct {
	bearings ports.BearingSource
}

// NewClassifier creates a classifier. bearings may be nil.
func NewClassifier(bearings ports.BearingSource) *Classifier {
	return &Classifier{bearings: bearings}
}

// Categorize applies the priority rules to one channel. It returns false when
// the channel does not warrant an event.
func (c *Classifier) Categorize(stats domain.ChannelStats, group []domain.NetworkObservation) (domain.AttackCategory, bool) {
	if stats.SuspiciousScore < ScoreGate {
		return "", false
	}
	switch {
	case stats.ErrorPackets > DeauthErrorThreshold:
		return domain.AttackDeauth, true
	case largestDuplicateGroup(group) > EvilTwinMinGroup:
		return domain.AttackEvilTwin, true
	case stats.NetworkCount > BeaconFloodMinCount:
		return domain.AttackBeaconFlood, true
	case stats.SuspiciousScore >= UnknownScoreGate:
		return domain.AttackUnknown, true
	}
	return "", false
}

// Classify produces the events of one snapshot, at most one per channel.
func (c *Classifier) Classify(stats []domain.ChannelStats, groups ChannelGroups, now time.Time) []domain.AttackEvent {
	var events []domain.AttackEvent
	for _, st := range stats {
		group := groups[st.Channel]
		category, ok := c.Categorize(st, group)
		if !ok {
			continue
		}

		event := domain.NewAttackEvent(category, st.Channel, st.SuspiciousScore, now)
		if target, found := strongest(group); found {
			event.TargetBSSID = target.BSSID
			event.TargetSSID = target.SSID
			event.SignalStrength = target.RSSI
			if c.bearings != nil {
				if bearing, ok := c.bearings.BearingFor(target.BSSID); ok {
					event.Bearing = &bearing
				}
			}
		}
		events = append(events, event)
	}
	return events
}

// strongest returns the observation with the highest RSSI; the first wins ties.
func strongest(group []domain.NetworkObservation) (domain.NetworkObservation, bool) {
	if len(group) == 0 {
		return domain.NetworkObservation{}, false
	}
	best := group[0]
	for _, o := range group[1:] {
		if o.RSSI > best.RSSI {
			best = o
		}
	}
	return best, true
}

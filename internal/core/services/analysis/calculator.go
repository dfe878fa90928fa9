package analysis

import (
	"sort"
	"time"

	"github.com/lcalzada-xor/wsentry/internal/core/domain"
	"github.com/lcalzada-xor/wsentry/internal/core/services/history"
)

// ChannelGroups maps a channel number to the observations currently on it.
type ChannelGroups map[int][]domain.NetworkObservation

// GroupByChannel groups observations by their derived channel, preserving
// snapshot order inside each group.
func GroupByChannel(observations []domain.NetworkObservation) ChannelGroups {
	groups := make(ChannelGroups)
	for _, o := range observations {
		groups[o.Channel] = append(groups[o.Channel], o)
	}
	return groups
}

// Channels returns the channel numbers in ascending order.
func (g ChannelGroups) Channels() []int {
	channels := make([]int, 0, len(g))
	for ch := range g {
		channels = append(channels, ch)
	}
	sort.Ints(channels)
	return channels
}

// Calculator derives per-channel aggregates from a snapshot.
type Calculator struct {
	history *history.Store
	scorer  *Scorer
}

// NewCalculator creates a calculator that records channel counts into h.
func NewCalculator(h *history.Store, scorer *Scorer) *Calculator {
	return &Calculator{history: h, scorer: scorer}
}

// Compute returns one ChannelStats per channel present in the snapshot, sorted
// ascending by channel, together with the grouping it was computed from.
// Each channel's count is appended to its count history before it is scored.
func (c *Calculator) Compute(observations []domain.NetworkObservation, now time.Time) ([]domain.ChannelStats, ChannelGroups) {
	groups := GroupByChannel(observations)
	stats := make([]domain.ChannelStats, 0, len(groups))

	for _, ch := range groups.Channels() {
		group := groups[ch]

		sum := 0
		for _, o := range group {
			sum += o.RSSI
		}

		c.history.AppendChannelCount(ch, len(group))

		stats = append(stats, domain.ChannelStats{
			Channel:         ch,
			Band:            group[0].Band,
			NetworkCount:    len(group),
			AverageRSSI:     sum / len(group),
			SuspiciousScore: c.scorer.Score(ch, group),
			ErrorPackets:    c.scorer.EstimateErrorPackets(ch, group),
			LastUpdate:      now,
		})
	}

	return stats, groups
}

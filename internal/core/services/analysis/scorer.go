package analysis

import (
	"strings"

	"github.com/lcalzada-xor/wsentry/internal/core/domain"
	"github.com/lcalzada-xor/wsentry/internal/core/services/history"
)

// Scoring thresholds and weights.
const (
	countVarianceHigh = 5
	countVarianceLow  = 3
	countScoreHigh    = 30
	countScoreLow     = 15

	rssiWindow     = 5
	rssiMinHistory = 2
	rssiSwingHigh  = 20
	rssiSwingLow   = 10
	rssiScoreHigh  = 20
	rssiScoreLow   = 10

	duplicateWeight = 10
	hiddenThreshold = 2
	hiddenWeight    = 5

	errorMinHistory   = 3
	suddenDropDelta   = 15
	suddenDropWeight  = 10
	fluctuationDelta  = 10
	fluctuationWeight = 5
)

// ScoreBreakdown holds the unclamped contribution of each scoring signal.
type ScoreBreakdown struct {
	CountVolatility int `json:"count_volatility"`
	RSSIVolatility  int `json:"rssi_volatility"`
	DuplicateSSIDs  int `json:"duplicate_ssids"`
	HiddenNetworks  int `json:"hidden_networks"`
}

// Total returns the score clamped to [0, 100].
func (b ScoreBreakdown) Total() int {
	return domain.ClampScore(b.CountVolatility + b.RSSIVolatility + b.DuplicateSSIDs + b.HiddenNetworks)
}

// Scorer assigns a suspicious-activity score to a channel from its current
// group of observations and the retained history.
type Scorer struct {
	history *history.Store
}

// NewScorer creates a scorer reading from h.
func NewScorer(h *history.Store) *Scorer {
	return &Scorer{history: h}
}

// Score returns the clamped 0-100 score of channel.
func (s *Scorer) Score(channel int, group []domain.NetworkObservation) int {
	return s.Breakdown(channel, group).Total()
}

// Breakdown evaluates the four independent scoring signals of channel.
func (s *Scorer) Breakdown(channel int, group []domain.NetworkObservation) ScoreBreakdown {
	return ScoreBreakdown{
		CountVolatility: s.countVolatility(channel),
		RSSIVolatility:  s.rssiVolatility(group),
		DuplicateSSIDs:  duplicatePressure(group),
		HiddenNetworks:  hiddenPressure(group),
	}
}

func (s *Scorer) countVolatility(channel int) int {
	counts := s.history.ChannelCounts(channel)
	if len(counts) < 2 {
		return 0
	}
	variance := abs(counts[len(counts)-1] - counts[len(counts)-2])
	switch {
	case variance >= countVarianceHigh:
		return countScoreHigh
	case variance >= countVarianceLow:
		return countScoreLow
	}
	return 0
}

func (s *Scorer) rssiVolatility(group []domain.NetworkObservation) int {
	total := 0
	for _, o := range group {
		if s.history.HistoryLen(o.BSSID) < rssiMinHistory {
			continue
		}
		swing := maxSwing(s.history.RecentRSSI(o.BSSID, rssiWindow))
		switch {
		case swing >= rssiSwingHigh:
			total += rssiScoreHigh
		case swing >= rssiSwingLow:
			total += rssiScoreLow
		}
	}
	return total
}

// EstimateErrorPackets infers a deauthentication-pattern packet count for
// channel from sudden drops and fluctuations in recent RSSI. The value is not
// bounded to 100.
func (s *Scorer) EstimateErrorPackets(channel int, group []domain.NetworkObservation) int {
	total := 0
	for _, o := range group {
		if s.history.HistoryLen(o.BSSID) < errorMinHistory {
			continue
		}
		rssi := s.history.RecentRSSI(o.BSSID, rssiWindow)
		drops, fluctuations := 0, 0
		for i := 1; i < len(rssi); i++ {
			delta := rssi[i] - rssi[i-1]
			if -delta > suddenDropDelta {
				drops++
			}
			if abs(delta) > fluctuationDelta {
				fluctuations++
			}
		}
		total += drops*suddenDropWeight + fluctuations*fluctuationWeight
	}
	return total
}

// duplicateGroups counts stations per case-insensitive SSID. Hidden networks
// share the HiddenSSID name and so form one group of their own.
func duplicateGroups(group []domain.NetworkObservation) map[string]int {
	names := make(map[string]int)
	for _, o := range group {
		names[strings.ToLower(o.SSID)]++
	}
	return names
}

// largestDuplicateGroup returns the size of the biggest SSID group.
func largestDuplicateGroup(group []domain.NetworkObservation) int {
	largest := 0
	for _, n := range duplicateGroups(group) {
		if n > largest {
			largest = n
		}
	}
	return largest
}

func duplicatePressure(group []domain.NetworkObservation) int {
	total := 0
	for _, n := range duplicateGroups(group) {
		if n > 1 {
			total += duplicateWeight * n
		}
	}
	return total
}

func hiddenPressure(group []domain.NetworkObservation) int {
	hidden := 0
	for _, o := range group {
		if o.IsHidden() {
			hidden++
		}
	}
	if hidden > hiddenThreshold {
		return hiddenWeight * hidden
	}
	return 0
}

// maxSwing is the largest absolute difference between consecutive values.
func maxSwing(values []int) int {
	swing := 0
	for i := 1; i < len(values); i++ {
		if d := abs(values[i] - values[i-1]); d > swing {
			swing = d
		}
	}
	return swing
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

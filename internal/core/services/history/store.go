package history

import (
	"time"

	"github.com/lcalzada-xor/wsentry/internal/core/domain"
)

const (
	// ObservationWindow is how long a station's observations are retained.
	ObservationWindow = 60 * time.Second
	// ChannelHistorySize is the number of per-snapshot counts kept per channel.
	ChannelHistorySize = 12
)

// Store keeps bounded, time-windowed histories per station and per channel.
// It is not safe for concurrent use; the analysis engine owns it under its lock.
type Store struct {
	windows       map[string][]domain.NetworkObservation
	channelCounts map[int][]int
	window        time.Duration
}

// NewStore creates an empty history store.
func NewStore() *Store {
	return &Store{
		windows:       make(map[string][]domain.NetworkObservation),
		channelCounts: make(map[int][]int),
		window:        ObservationWindow,
	}
}

// Ingest appends every observation to its station window and prunes all
// windows by age. Stations missing from the snapshot are pruned too and their
// window is dropped once empty.
func (s *Store) Ingest(observations []domain.NetworkObservation, now time.Time) {
	for _, o := range observations {
		key := domain.NormalizeBSSID(o.BSSID)
		s.windows[key] = append(s.windows[key], o)
	}

	for bssid, w := range s.windows {
		pruned := s.prune(w, now)
		if len(pruned) == 0 {
			delete(s.windows, bssid)
			continue
		}
		s.windows[bssid] = pruned
	}
}

// prune drops entries older than the window, reusing the backing array.
func (s *Store) prune(w []domain.NetworkObservation, now time.Time) []domain.NetworkObservation {
	keep := 0
	for keep < len(w) && now.Sub(w[keep].Timestamp) > s.window {
		keep++
	}
	if keep == 0 {
		return w
	}
	n := copy(w, w[keep:])
	clear(w[n:])
	return w[:n]
}

// Window returns a copy of the retained observations of bssid, oldest first.
// Lookups accept any case and either separator.
func (s *Store) Window(bssid string) []domain.NetworkObservation {
	w := s.windows[domain.NormalizeBSSID(bssid)]
	if len(w) == 0 {
		return nil
	}
	out := make([]domain.NetworkObservation, len(w))
	copy(out, w)
	return out
}

// HistoryLen returns how many observations are retained for bssid.
func (s *Store) HistoryLen(bssid string) int {
	return len(s.windows[domain.NormalizeBSSID(bssid)])
}

// RecentRSSI returns up to n of the most recent RSSI values of bssid, oldest first.
func (s *Store) RecentRSSI(bssid string, n int) []int {
	w := s.windows[domain.NormalizeBSSID(bssid)]
	if len(w) > n {
		w = w[len(w)-n:]
	}
	out := make([]int, len(w))
	for i, o := range w {
		out[i] = o.RSSI
	}
	return out
}

// Stations returns the number of stations with a live window.
func (s *Store) Stations() int {
	return len(s.windows)
}

// AppendChannelCount records the station count of channel for the current
// snapshot, keeping only the last ChannelHistorySize values.
func (s *Store) AppendChannelCount(channel, count int) {
	h := append(s.channelCounts[channel], count)
	if len(h) > ChannelHistorySize {
		n := copy(h, h[len(h)-ChannelHistorySize:])
		h = h[:n]
	}
	s.channelCounts[channel] = h
}

// ChannelCounts returns a copy of the count history of channel, oldest first.
func (s *Store) ChannelCounts(channel int) []int {
	h := s.channelCounts[channel]
	out := make([]int, len(h))
	copy(out, h)
	return out
}

// Reset discards every window and channel history.
func (s *Store) Reset() {
	s.windows = make(map[string][]domain.NetworkObservation)
	s.channelCounts = make(map[int][]int)
}

package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/lcalzada-xor/wsentry/internal/core/domain"
)

const freqCh6 = 2437

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// at returns the timestamp of the n-th snapshot at a 5s cadence.
func at(n int) time.Time {
	return t0.Add(time.Duration(n) * 5 * time.Second)
}

func bssid(i int) string {
	return fmt.Sprintf("02:00:00:00:%02x:%02x", i/256, i%256)
}

// uniqueStations returns n stations on channel 6 with distinct SSIDs and a steady RSSI.
func uniqueStations(n, offset int, ts time.Time) []domain.NetworkObservation {
	out := make([]domain.NetworkObservation, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.NewObservation(bssid(offset+i), fmt.Sprintf("net-%d", offset+i), -60, freqCh6, "[ESS]", ts))
	}
	return out
}

func hiddenStations(n, offset int, ts time.Time) []domain.NetworkObservation {
	out := make([]domain.NetworkObservation, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.NewObservation(bssid(offset+i), "", -70, freqCh6, "[ESS]", ts))
	}
	return out
}

func named(i int, ssid string, rssi int, ts time.Time) domain.NetworkObservation {
	return domain.NewObservation(bssid(i), ssid, rssi, freqCh6, "[WPA2-PSK-CCMP][ESS]", ts)
}

func snapshot(ts time.Time, groups ...[]domain.NetworkObservation) domain.Snapshot {
	var all []domain.NetworkObservation
	for _, g := range groups {
		all = append(all, g...)
	}
	return domain.Snapshot{Observations: all, Timestamp: ts}
}

func statsFor(stats []domain.ChannelStats, channel int) (domain.ChannelStats, bool) {
	for _, s := range stats {
		if s.Channel == channel {
			return s, true
		}
	}
	return domain.ChannelStats{}, false
}

type stubBearings map[string]float64

func (s stubBearings) BearingFor(bssid string) (float64, bool) {
	b, ok := s[bssid]
	return b, ok
}

var ctx = context.Background()

type stubVendors map[string]string

func (s stubVendors) VendorFor(bssid string) (string, bool) {
	v, ok := s[bssid]
	return v, ok
}

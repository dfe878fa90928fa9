package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/lcalzada-xor/wsentry/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func obs(bssid string, rssi int, ts time.Time) domain.NetworkObservation {
	return domain.NewObservation(bssid, "net-"+bssid, rssi, 2437, "", ts)
}

func TestStore_IngestAppendsAndPrunes(t *testing.T) {
	s := NewStore()

	for i := 0; i < 20; i++ {
		now := base.Add(time.Duration(i*5) * time.Second)
		s.Ingest([]domain.NetworkObservation{obs("aa:00:00:00:00:01", -50-i, now)}, now)
	}

	now := base.Add(95 * time.Second)
	w := s.Window("aa:00:00:00:00:01")
	require.NotEmpty(t, w)
	for _, o := range w {
		assert.LessOrEqual(t, now.Sub(o.Timestamp), ObservationWindow)
	}
	// Entries at 35s..95s inclusive survive.
	assert.Len(t, w, 13)
	assert.Equal(t, -69, w[len(w)-1].RSSI)
}

func TestStore_EntryAtExactBoundaryIsKept(t *testing.T) {
	s := NewStore()
	s.Ingest([]domain.NetworkObservation{obs("aa:00:00:00:00:01", -50, base)}, base)
	s.Ingest(nil, base.Add(ObservationWindow))
	assert.Equal(t, 1, s.HistoryLen("aa:00:00:00:00:01"))

	s.Ingest(nil, base.Add(ObservationWindow+time.Millisecond))
	assert.Equal(t, 0, s.HistoryLen("aa:00:00:00:00:01"))
}

func TestStore_AbsentStationIsRetainedUntilAgedOut(t *testing.T) {
	s := NewStore()
	s.Ingest([]domain.NetworkObservation{
		obs("aa:00:00:00:00:01", -50, base),
		obs("aa:00:00:00:00:02", -60, base),
	}, base)

	// Station 2 disappears from later snapshots.
	for i := 1; i <= 12; i++ {
		now := base.Add(time.Duration(i*5) * time.Second)
		s.Ingest([]domain.NetworkObservation{obs("aa:00:00:00:00:01", -50, now)}, now)
	}
	assert.Equal(t, 1, s.HistoryLen("aa:00:00:00:00:02"), "briefly invisible stations are not evicted")

	now := base.Add(65 * time.Second)
	s.Ingest([]domain.NetworkObservation{obs("aa:00:00:00:00:01", -50, now)}, now)
	assert.Nil(t, s.Window("aa:00:00:00:00:02"))
	assert.Equal(t, 1, s.Stations())
}

func TestStore_EmptySnapshotOnlyPrunes(t *testing.T) {
	s := NewStore()
	s.Ingest(nil, base)
	assert.Equal(t, 0, s.Stations())

	s.Ingest([]domain.NetworkObservation{obs("aa:00:00:00:00:01", -50, base)}, base)
	s.Ingest([]domain.NetworkObservation{}, base.Add(2*time.Minute))
	assert.Equal(t, 0, s.Stations())
}

func TestStore_RecentRSSI(t *testing.T) {
	s := NewStore()
	for i := 0; i < 8; i++ {
		now := base.Add(time.Duration(i) * time.Second)
		s.Ingest([]domain.NetworkObservation{obs("aa:00:00:00:00:01", -40-i, now)}, now)
	}
	assert.Equal(t, []int{-43, -44, -45, -46, -47}, s.RecentRSSI("aa:00:00:00:00:01", 5))
	assert.Empty(t, s.RecentRSSI("aa:00:00:00:00:99", 5))
}

func TestStore_ChannelCountsAreBounded(t *testing.T) {
	s := NewStore()
	for i := 1; i <= 30; i++ {
		s.AppendChannelCount(6, i)
		assert.LessOrEqual(t, len(s.ChannelCounts(6)), ChannelHistorySize)
	}

	counts := s.ChannelCounts(6)
	require.Len(t, counts, ChannelHistorySize)
	assert.Equal(t, 19, counts[0])
	assert.Equal(t, 30, counts[len(counts)-1])
	assert.Empty(t, s.ChannelCounts(11))
}

func TestStore_WindowReturnsCopy(t *testing.T) {
	s := NewStore()
	s.Ingest([]domain.NetworkObservation{obs("aa:00:00:00:00:01", -50, base)}, base)

	w := s.Window("aa:00:00:00:00:01")
	w[0].RSSI = 0
	assert.Equal(t, -50, s.Window("aa:00:00:00:00:01")[0].RSSI)
}

func TestStore_Reset(t *testing.T) {
	s := NewStore()
	for i := 0; i < 5; i++ {
		s.Ingest([]domain.NetworkObservation{obs(fmt.Sprintf("aa:00:00:00:00:%02d", i), -50, base)}, base)
		s.AppendChannelCount(i, i)
	}
	s.Reset()
	assert.Equal(t, 0, s.Stations())
	assert.Empty(t, s.ChannelCounts(1))
}

func TestStore_LookupsIgnoreCaseAndSeparator(t *testing.T) {
	s := NewStore()
	for i := 0; i < 3; i++ {
		now := base.Add(time.Duration(i*5) * time.Second)
		s.Ingest([]domain.NetworkObservation{obs("aa:00:00:00:00:0b", -50-i, now)}, now)
	}

	for _, key := range []string{"aa:00:00:00:00:0b", "AA:00:00:00:00:0B", "aa-00-00-00-00-0b", "AA-00-00-00-00-0B"} {
		assert.Len(t, s.Window(key), 3, key)
		assert.Equal(t, 3, s.HistoryLen(key), key)
		assert.Equal(t, []int{-51, -52}, s.RecentRSSI(key, 2), key)
	}
}

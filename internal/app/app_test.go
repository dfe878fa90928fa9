package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/lcalzada-xor/wsentry/internal/adapters/feed"
	"github.com/lcalzada-xor/wsentry/internal/adapters/fingerprint"
	"github.com/lcalzada-xor/wsentry/internal/compass"
	"github.com/lcalzada-xor/wsentry/internal/config"
	"github.com/lcalzada-xor/wsentry/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadConfig(t *testing.T, args ...string) *config.Config {
	t.Helper()
	cfg, err := config.LoadArgs(append([]string{"-addr", "127.0.0.1:0"}, args...))
	require.NoError(t, err)
	return cfg
}

type fakeSource struct {
	snapshots []domain.Snapshot
	err       error
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Run(ctx context.Context, out chan<- domain.Snapshot) error {
	for _, s := range f.snapshots {
		select {
		case out <- s:
		case <-ctx.Done():
			return nil
		}
	}
	return f.err
}

func TestNew_SelectsSource(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want interface{}
	}{
		{"simulator", []string{"-mock", "-scenario", "deauth"}, &feed.Simulator{}},
		{"pcap replay wins over mock", []string{"-mock", "-pcap", "/tmp/scan.pcap"}, &feed.PcapReplay{}},
		{"http only", []string{"-mock=false"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			application, err := New(loadConfig(t, tt.args...))
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, application.Source)
				return
			}
			assert.IsType(t, tt.want, application.Source)
		})
	}
}

func TestNew_InvalidScenario(t *testing.T) {
	_, err := New(loadConfig(t, "-mock", "-scenario", "tsunami"))
	assert.Error(t, err)
}

func TestNew_VendorList(t *testing.T) {
	_, err := New(loadConfig(t, "-oui", filepath.Join(t.TempDir(), "missing.txt")))
	assert.Error(t, err)

	application, err := New(loadConfig(t))
	require.NoError(t, err)

	sim := feed.NewSimulator(feed.ScenarioEvilTwin, time.Second, 0, 1)
	events := application.Monitor.IngestSnapshot(context.Background(), sim.Next(time.Now()))
	require.Len(t, events, 1)
	assert.Equal(t, domain.AttackEvilTwin, events[0].Category)
	assert.Equal(t, fingerprint.RandomizedVendor, events[0].TargetVendor)
}

func TestNew_UnreachableBus(t *testing.T) {
	_, err := New(loadConfig(t, "-nats", "nats://127.0.0.1:1"))
	assert.Error(t, err)
}

func TestNew_AppliesInitialHeading(t *testing.T) {
	application, err := New(loadConfig(t, "-heading", "-45"))
	require.NoError(t, err)
	assert.Equal(t, 315.0, application.Monitor.Azimuth())
	assert.IsType(t, &compass.StaticProvider{}, application.Compass)

	application, err = New(loadConfig(t, "-compass", "sweep", "-heading", "10"))
	require.NoError(t, err)
	assert.IsType(t, &compass.SweepProvider{}, application.Compass)
}

func TestRunSnapshotPump_IngestsUntilSourceFinishes(t *testing.T) {
	application, err := New(loadConfig(t, "-mock=false"))
	require.NoError(t, err)

	now := time.Now()
	var snaps []domain.Snapshot
	for i := 0; i < 3; i++ {
		ts := now.Add(time.Duration(i) * 5 * time.Second)
		snaps = append(snaps, domain.Snapshot{
			Observations: []domain.NetworkObservation{
				domain.NewObservation("02:00:00:00:00:01", "CorpNet", -50, 2412, "[ESS]", ts),
			},
			Timestamp: ts,
		})
	}

	err = application.runSnapshotPump(context.Background(), &fakeSource{snapshots: snaps})
	require.NoError(t, err)

	assert.Len(t, application.Monitor.StationHistory("02:00:00:00:00:01"), 3)
	stats := application.Monitor.ChannelStats()
	require.Len(t, stats, 1)
	assert.Equal(t, 1, stats[0].Channel)
}

func TestRunSnapshotPump_PropagatesSourceError(t *testing.T) {
	application, err := New(loadConfig(t, "-mock=false"))
	require.NoError(t, err)

	boom := errors.New("capture truncated")
	err = application.runSnapshotPump(context.Background(), &fakeSource{err: boom})
	assert.ErrorIs(t, err, boom)
}

func TestRunOrientationPump(t *testing.T) {
	application, err := New(loadConfig(t, "-mock=false"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go application.runOrientationPump(ctx, compass.NewStaticProvider(123), 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		return application.Monitor.Azimuth() == 123
	}, time.Second, 5*time.Millisecond)
}

package ports

import (
	"context"

	"github.com/lcalzada-xor/wsentry/internal/core/domain"
)

// SnapshotSource produces scan snapshots until the context is cancelled or the
// source is exhausted.
type SnapshotSource interface {
	// Run blocks, sending snapshots on out. It must not close out.
	Run(ctx context.Context, out chan<- domain.Snapshot) error
	// Name identifies the source in logs.
	Name() string
}

// OrientationProvider returns the latest compass azimuth in degrees.
type OrientationProvider interface {
	Azimuth() float64
}

// BearingSource resolves the current best-estimate bearing of a station, if known.
type BearingSource interface {
	BearingFor(bssid string) (float64, bool)
}

// VendorResolver names the manufacturer behind a BSSID, if known.
type VendorResolver interface {
	VendorFor(bssid string) (string, bool)
}

// Monitor is the command and query surface consumed by the presentation layer.
type Monitor interface {
	IngestSnapshot(ctx context.Context, snapshot domain.Snapshot) []domain.AttackEvent
	UpdateOrientation(azimuth float64) error
	StartTracking(bssid string) error
	StopTracking()
	ClearAll()

	State() domain.MonitorState
	ChannelStats() []domain.ChannelStats
	Events() []domain.AttackEvent
	DirectionProfile() (domain.DirectionProfile, bool)
	EstimateBearing() (float64, bool)
	StationHistory(bssid string) []domain.NetworkObservation

	AddObserver(observer MonitorObserver)
}

// MonitorObserver is notified after every ingested snapshot.
type MonitorObserver interface {
	OnSnapshot(ctx context.Context, stats []domain.ChannelStats, events []domain.AttackEvent)
	OnCleared(ctx context.Context)
}

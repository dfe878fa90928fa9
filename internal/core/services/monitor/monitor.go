package monitor

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lcalzada-xor/wsentry/internal/core/domain"
	"github.com/lcalzada-xor/wsentry/internal/core/ports"
	"github.com/lcalzada-xor/wsentry/internal/core/services/analysis"
	"github.com/lcalzada-xor/wsentry/internal/core/services/direction"
	"github.com/lcalzada-xor/wsentry/internal/telemetry"
)

// DefaultActiveWindow is how long an event stays in the active list.
const DefaultActiveWindow = 60 * time.Second

// Config tunes the monitor.
type Config struct {
	EventCapacity int
	DedupWindow   time.Duration
	ActiveWindow  time.Duration
	Vendors       ports.VendorResolver
}

// Service is the single entry point of the detection core. It serialises
// commands so that every read observes a state produced by complete snapshots.
type Service struct {
	mu sync.RWMutex

	engine    *analysis.Engine
	estimator *direction.Estimator
	subject   *Subject

	azimuth      atomic.Uint64
	activeWindow time.Duration
}

// NewService wires an engine and a direction estimator together.
func NewService(cfg Config) *Service {
	if cfg.ActiveWindow <= 0 {
		cfg.ActiveWindow = DefaultActiveWindow
	}
	estimator := direction.NewEstimator()
	return &Service{
		engine: analysis.NewEngine(analysis.Config{
			EventCapacity: cfg.EventCapacity,
			DedupWindow:   cfg.DedupWindow,
			Bearings:      estimator,
			Vendors:       cfg.Vendors,
		}),
		estimator:    estimator,
		subject:      NewSubject(),
		activeWindow: cfg.ActiveWindow,
	}
}

var _ ports.Monitor = (*Service)(nil)

// AddObserver registers a consumer of snapshot results.
func (s *Service) AddObserver(observer ports.MonitorObserver) {
	s.subject.AddObserver(observer)
}

// IngestSnapshot runs one snapshot through the pipeline and returns the
// events it produced. When a station is tracked, its RSSI in the snapshot is
// paired with the latest azimuth before analysis.
func (s *Service) IngestSnapshot(ctx context.Context, snapshot domain.Snapshot) []domain.AttackEvent {
	if snapshot.Timestamp.IsZero() {
		snapshot.Timestamp = time.Now()
	}
	source := snapshot.Source
	if source == "" {
		source = "direct"
	}

	s.mu.Lock()
	if bssid, ok := s.estimator.Tracked(); ok {
		if obs, found := snapshot.Find(bssid); found {
			s.estimator.RecordReading(obs.RSSI, obs.BSSID, s.Azimuth(), snapshot.Timestamp)
		}
	}
	result := s.engine.Ingest(ctx, snapshot)
	s.subject.NotifySnapshot(ctx, result.Stats, result.Events)
	s.mu.Unlock()

	telemetry.SnapshotsIngested.WithLabelValues(source).Inc()
	slog.Debug("Snapshot ingested",
		"source", source,
		"observations", len(snapshot.Observations),
		"channels", len(result.Stats),
		"events", len(result.Events),
	)
	return result.Events
}

// UpdateOrientation stores the latest compass azimuth.
func (s *Service) UpdateOrientation(azimuth float64) error {
	if err := domain.ValidateAzimuth(azimuth); err != nil {
		return err
	}
	s.azimuth.Store(math.Float64bits(domain.NormalizeAzimuth(azimuth)))
	return nil
}

// Azimuth returns the latest compass azimuth in degrees.
func (s *Service) Azimuth() float64 {
	return math.Float64frombits(s.azimuth.Load())
}

// StartTracking selects the station used for direction finding. Any readings
// of a previously tracked station are discarded.
func (s *Service) StartTracking(bssid string) error {
	if !domain.IsValidBSSID(bssid) {
		return domain.ErrInvalidBSSID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.estimator.StartTracking(bssid)
	slog.Info("Direction tracking started", "bssid", bssid)
	return nil
}

// StopTracking returns direction finding to idle. Safe to call when idle.
func (s *Service) StopTracking() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if bssid, ok := s.estimator.Tracked(); ok {
		slog.Info("Direction tracking stopped", "bssid", bssid)
	}
	s.estimator.StopTracking()
}

// ClearAll discards history, statistics, events and direction data in one step.
func (s *Service) ClearAll() {
	s.mu.Lock()
	s.engine.Reset()
	s.estimator.Reset()
	s.subject.NotifyCleared(context.Background())
	s.mu.Unlock()

	slog.Info("Monitor state cleared")
}

// State returns a consistent view of everything the monitor publishes.
func (s *Service) State() domain.MonitorState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := domain.MonitorState{
		Channels: s.engine.ChannelStats(),
		Events:   s.activeEvents(time.Now()),
		Azimuth:  s.Azimuth(),
	}
	if bssid, ok := s.estimator.Tracked(); ok {
		state.TrackedBSSID = bssid
		if profile, ok := s.estimator.Profile(); ok {
			state.Profile = &profile
		}
		if bearing, ok := s.estimator.EstimateBearing(bssid); ok {
			state.Bearing = &bearing
		}
	}
	return state
}

// ChannelStats returns the per-channel statistics of the latest snapshot.
func (s *Service) ChannelStats() []domain.ChannelStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.ChannelStats()
}

// Events returns the retained attack events, oldest first.
func (s *Service) Events() []domain.AttackEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Events()
}

// ActiveEvents returns the events still inside the active window at now.
func (s *Service) ActiveEvents(now time.Time) []domain.AttackEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeEvents(now)
}

func (s *Service) activeEvents(now time.Time) []domain.AttackEvent {
	all := s.engine.Events()
	active := make([]domain.AttackEvent, 0, len(all))
	for _, ev := range all {
		if ev.IsActive(now, s.activeWindow) {
			active = append(active, ev)
		}
	}
	return active
}

// Breakdown returns the score components of a channel in the latest snapshot.
func (s *Service) Breakdown(channel int) (analysis.ScoreBreakdown, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Breakdown(channel)
}

// DirectionProfile returns the live profile of the tracked station.
func (s *Service) DirectionProfile() (domain.DirectionProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.estimator.Profile()
}

// EstimateBearing returns the coarse bearing of the tracked station.
func (s *Service) EstimateBearing() (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bssid, ok := s.estimator.Tracked()
	if !ok {
		return 0, false
	}
	return s.estimator.EstimateBearing(bssid)
}

// StationHistory returns the retained observations of one station.
func (s *Service) StationHistory(bssid string) []domain.NetworkObservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.StationHistory(bssid)
}

package analysis

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/lcalzada-xor/wsentry/internal/core/domain"
	"github.com/lcalzada-xor/wsentry/internal/core/ports"
	"github.com/lcalzada-xor/wsentry/internal/core/services/history"
	"github.com/lcalzada-xor/wsentry/internal/telemetry"
)

// Config tunes the engine.
type Config struct {
	// EventCapacity bounds the event log (default MaxEvents).
	EventCapacity int
	// DedupWindow suppresses repeated (channel, category) events; 0 disables it.
	DedupWindow time.Duration
	// Bearings resolves event bearings; optional.
	Bearings ports.BearingSource
	// Vendors labels event targets with their manufacturer; optional.
	Vendors ports.VendorResolver
}

// IngestResult is what a single snapshot produced.
type IngestResult struct {
	Stats  []domain.ChannelStats
	Events []domain.AttackEvent
}

// Engine owns the observation history, channel statistics and event log.
// Every snapshot is applied as one transaction under a write lock; readers get copies.
type Engine struct {
	mu         sync.RWMutex
	history    *history.Store
	calculator *Calculator
	scorer     *Scorer
	classifier *Classifier
	events     *EventLog
	stats      []domain.ChannelStats
	breakdowns map[int]ScoreBreakdown
	latest     domain.Snapshot
	vendors    ports.VendorResolver
	tracer     trace.Tracer
}

// NewEngine wires a fresh engine.
func NewEngine(cfg Config) *Engine {
	h := history.NewStore()
	scorer := NewScorer(h)
	return &Engine{
		history:    h,
		scorer:     scorer,
		calculator: NewCalculator(h, scorer),
		classifier: NewClassifier(cfg.Bearings),
		events:     NewEventLog(cfg.EventCapacity, cfg.DedupWindow),
		breakdowns: make(map[int]ScoreBreakdown),
		vendors:    cfg.Vendors,
		tracer:     otel.Tracer("wsentry/analysis"),
	}
}

// Ingest runs the full pipeline for one snapshot: history update, channel
// statistics, scoring and classification. A zero snapshot timestamp means now.
func (e *Engine) Ingest(ctx context.Context, snapshot domain.Snapshot) IngestResult {
	now := snapshot.Timestamp
	if now.IsZero() {
		now = time.Now()
	}

	_, span := e.tracer.Start(ctx, "analysis.Ingest")
	defer span.End()

	e.mu.Lock()
	e.history.Ingest(snapshot.Observations, now)
	stats, groups := e.calculator.Compute(snapshot.Observations, now)

	breakdowns := make(map[int]ScoreBreakdown, len(groups))
	for ch, group := range groups {
		breakdowns[ch] = e.scorer.Breakdown(ch, group)
	}

	classified := e.classifier.Classify(stats, groups, now)
	if e.vendors != nil {
		for i := range classified {
			if classified[i].TargetBSSID == "" {
				continue
			}
			if vendor, ok := e.vendors.VendorFor(classified[i].TargetBSSID); ok {
				classified[i].TargetVendor = vendor
			}
		}
	}
	accepted := e.events.Append(classified...)
	e.stats = stats
	e.breakdowns = breakdowns
	e.latest = domain.Snapshot{Observations: append([]domain.NetworkObservation(nil), snapshot.Observations...), Timestamp: now}
	stations := e.history.Stations()
	publishChannelScores(stats)
	e.mu.Unlock()

	span.SetAttributes(
		attribute.Int("snapshot.observations", len(snapshot.Observations)),
		attribute.Int("snapshot.channels", len(stats)),
		attribute.Int("snapshot.events", len(accepted)),
	)

	telemetry.ObservationsIngested.Add(float64(len(snapshot.Observations)))
	telemetry.TrackedStations.Set(float64(stations))
	for _, ev := range accepted {
		telemetry.AttackEvents.WithLabelValues(string(ev.Category)).Inc()
		slog.Info("Attack pattern detected",
			"category", ev.Category,
			"channel", ev.Channel,
			"target", ev.TargetBSSID,
			"confidence", ev.Confidence,
		)
	}

	return IngestResult{Stats: stats, Events: accepted}
}

// ChannelStats returns the statistics of the latest snapshot, sorted by channel.
func (e *Engine) ChannelStats() []domain.ChannelStats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]domain.ChannelStats, len(e.stats))
	copy(out, e.stats)
	return out
}

// Breakdown returns the per-signal score contributions of channel from the latest snapshot.
func (e *Engine) Breakdown(channel int) (ScoreBreakdown, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	b, ok := e.breakdowns[channel]
	return b, ok
}

// Events returns the retained attack events, oldest first.
func (e *Engine) Events() []domain.AttackEvent {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.events.Events()
}

// LatestSnapshot returns the most recently ingested snapshot.
func (e *Engine) LatestSnapshot() domain.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return domain.Snapshot{
		Observations: append([]domain.NetworkObservation(nil), e.latest.Observations...),
		Timestamp:    e.latest.Timestamp,
	}
}

// StationHistory returns the retained observation window of bssid.
func (e *Engine) StationHistory(bssid string) []domain.NetworkObservation {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.Window(bssid)
}

// Reset discards all history, statistics and events.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history.Reset()
	e.events.Reset()
	e.stats = nil
	e.breakdowns = make(map[int]ScoreBreakdown)
	e.latest = domain.Snapshot{}
	telemetry.ChannelScore.Reset()
	telemetry.TrackedStations.Set(0)
}

// publishChannelScores replaces the per-channel score gauges with those of the
// latest snapshot. Channels no longer present lose their series.
func publishChannelScores(stats []domain.ChannelStats) {
	telemetry.ChannelScore.Reset()
	for _, st := range stats {
		telemetry.ChannelScore.WithLabelValues(strconv.Itoa(st.Channel), string(st.Band)).Set(float64(st.SuspiciousScore))
	}
}

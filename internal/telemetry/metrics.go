package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// SnapshotsIngested counts scan snapshots processed by the engine
	SnapshotsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wsentry",
			Name:      "snapshots_ingested_total",
			Help:      "Total number of scan snapshots ingested",
		},
		[]string{"source"},
	)

	// ObservationsIngested counts individual network observations
	ObservationsIngested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wsentry",
			Name:      "observations_ingested_total",
			Help:      "Total number of network observations ingested",
		},
	)

	// AttackEvents counts emitted attack events by category
	AttackEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wsentry",
			Name:      "attack_events_total",
			Help:      "Total number of attack events emitted",
		},
		[]string{"category"},
	)

	// ChannelScore exposes the latest suspicious-activity score per channel
	ChannelScore = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "wsentry",
			Name:      "channel_suspicious_score",
			Help:      "Latest suspicious activity score (0-100) per channel",
		},
		[]string{"channel", "band"},
	)

	// TrackedStations reports how many stations have a live observation window
	TrackedStations = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "wsentry",
			Name:      "history_stations",
			Help:      "Number of stations with a live observation window",
		},
	)

	// DirectionReadings counts orientation/RSSI pairs recorded for the tracked station
	DirectionReadings = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wsentry",
			Name:      "direction_readings_total",
			Help:      "Total number of direction readings recorded",
		},
	)

	// FeedErrors counts malformed input skipped by snapshot sources
	FeedErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wsentry",
			Name:      "feed_errors_total",
			Help:      "Total number of malformed inputs skipped by snapshot sources",
		},
		[]string{"source", "reason"},
	)

	// EventsForwarded counts attack events published to the external bus
	EventsForwarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wsentry",
			Name:      "events_forwarded_total",
			Help:      "Total number of events published to the message bus",
		},
		[]string{"result"},
	)

	// Ensure metrics are only registered once
	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry
// This function is idempotent and can be called multiple times safely
func InitMetrics() {
	once.Do(func() {
		// Register metrics, ignoring errors if already registered
		prometheus.DefaultRegisterer.Register(SnapshotsIngested)
		prometheus.DefaultRegisterer.Register(ObservationsIngested)
		prometheus.DefaultRegisterer.Register(AttackEvents)
		prometheus.DefaultRegisterer.Register(ChannelScore)
		prometheus.DefaultRegisterer.Register(TrackedStations)
		prometheus.DefaultRegisterer.Register(DirectionReadings)
		prometheus.DefaultRegisterer.Register(FeedErrors)
		prometheus.DefaultRegisterer.Register(EventsForwarded)
	})
}

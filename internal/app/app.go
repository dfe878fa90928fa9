package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lcalzada-xor/wsentry/internal/adapters/eventbus"
	"github.com/lcalzada-xor/wsentry/internal/adapters/feed"
	"github.com/lcalzada-xor/wsentry/internal/adapters/fingerprint"
	"github.com/lcalzada-xor/wsentry/internal/adapters/reporting"
	webserver "github.com/lcalzada-xor/wsentry/internal/adapters/web/server"
	"github.com/lcalzada-xor/wsentry/internal/compass"
	"github.com/lcalzada-xor/wsentry/internal/config"
	"github.com/lcalzada-xor/wsentry/internal/core/domain"
	"github.com/lcalzada-xor/wsentry/internal/core/ports"
	"github.com/lcalzada-xor/wsentry/internal/core/services/monitor"
	"github.com/lcalzada-xor/wsentry/internal/telemetry"
)

// OrientationInterval is how often a moving compass is sampled.
const OrientationInterval = 200 * time.Millisecond

// snapshotBuffer absorbs short stalls of the engine without blocking feeds.
const snapshotBuffer = 8

// Application holds the core components of the application.
// It acts as the Facade for the entire system, orchestrating services and infrastructure.
type Application struct {
	Config    *config.Config
	Monitor   *monitor.Service
	WebServer *webserver.Server

	// Source is nil when scans only arrive over HTTP.
	Source ports.SnapshotSource
	// Compass is sampled continuously only when it moves on its own.
	Compass ports.OrientationProvider
	sweep   bool

	// Bus is nil unless events are forwarded to NATS.
	Bus *eventbus.Publisher
}

// New creates a new Application instance and bootstraps its components.
func New(cfg *config.Config) (*Application, error) {
	app := &Application{
		Config: cfg,
	}

	if err := app.bootstrap(); err != nil {
		return nil, fmt.Errorf("application bootstrap failed: %w", err)
	}

	return app, nil
}

// bootstrap orchestrates the initialization sequence.
func (app *Application) bootstrap() error {
	// 1. Foundation
	telemetry.InitMetrics()

	// 2. Detection core
	vendors, err := fingerprint.NewDefaultResolver(app.Config.OUIPath)
	if err != nil {
		return fmt.Errorf("vendor list: %w", err)
	}
	app.Monitor = monitor.NewService(monitor.Config{
		EventCapacity: app.Config.EventCapacity,
		DedupWindow:   app.Config.DedupWindow,
		ActiveWindow:  app.Config.EventActive,
		Vendors:       vendors,
	})

	// 3. Feeds
	if err := app.initSource(); err != nil {
		return err
	}
	if err := app.initCompass(); err != nil {
		return err
	}

	// 4. Outbound events
	if err := app.initBus(); err != nil {
		return err
	}

	// 5. Presentation
	app.WebServer = webserver.NewServer(app.Config.Addr, app.Monitor, reporting.NewPDFExporter(), app.Config.AllowedOrigins)
	return nil
}

func (app *Application) initSource() error {
	switch {
	case app.Config.PcapPath != "":
		app.Source = feed.NewPcapReplay(app.Config.PcapPath, app.Config.Interval, app.Config.Interval)
		slog.Info("Capture replay enabled", "path", app.Config.PcapPath)
	case app.Config.MockMode:
		scenario, err := feed.ParseScenario(app.Config.Scenario)
		if err != nil {
			return fmt.Errorf("simulator: %w", err)
		}
		app.Source = feed.NewSimulator(scenario, app.Config.Interval, app.Config.Background, app.Config.Seed)
		slog.Info("Mock Mode Active: simulating scans", "scenario", scenario, "background", app.Config.Background)
	default:
		slog.Info("No scan feed configured; waiting for snapshots on POST /api/snapshots")
	}
	return nil
}

func (app *Application) initBus() error {
	if app.Config.NatsURL == "" {
		return nil
	}
	bus, err := eventbus.Connect(eventbus.Config{URL: app.Config.NatsURL, Subject: app.Config.NatsSubject})
	if err != nil {
		return fmt.Errorf("event bus: %w", err)
	}
	app.Bus = bus
	app.Monitor.AddObserver(bus)
	slog.Info("Forwarding attack events", "url", app.Config.NatsURL, "subject", app.Config.NatsSubject)
	return nil
}

func (app *Application) initCompass() error {
	switch app.Config.CompassMode {
	case config.CompassSweep:
		app.Compass = compass.NewSweepProvider(app.Config.Heading, app.Config.SweepRate)
		app.sweep = true
	default:
		// A static heading is applied once; later updates arrive over HTTP.
		app.Compass = compass.NewStaticProvider(app.Config.Heading)
	}
	if err := app.Monitor.UpdateOrientation(app.Compass.Azimuth()); err != nil {
		return fmt.Errorf("initial heading: %w", err)
	}
	return nil
}

// Run starts the application components and manages their execution lifecycle.
func (app *Application) Run(ctx context.Context) error {
	slog.Info("Starting wsentry components...")

	errChan := make(chan error, 2)

	go func() {
		if err := app.WebServer.Run(ctx); err != nil {
			errChan <- fmt.Errorf("web server error: %w", err)
		}
	}()

	if app.Source != nil {
		go func() {
			if err := app.runSnapshotPump(ctx, app.Source); err != nil {
				errChan <- fmt.Errorf("%s feed error: %w", app.Source.Name(), err)
			}
		}()
	}

	if app.sweep {
		go app.runOrientationPump(ctx, app.Compass, OrientationInterval)
	}

	slog.Info("wsentry ready. Press Ctrl+C to terminate.", "addr", app.Config.Addr)
	defer app.closeBus()

	select {
	case <-ctx.Done():
		slog.Info("Termination signal received")
	case err := <-errChan:
		return err
	}
	return nil
}

func (app *Application) closeBus() {
	if app.Bus == nil {
		return
	}
	if err := app.Bus.Close(); err != nil {
		slog.Warn("Event bus close failed", "error", err)
	}
}

// runSnapshotPump drives source and feeds every snapshot it produces into the
// monitor. It returns when the source finishes or ctx is cancelled.
func (app *Application) runSnapshotPump(ctx context.Context, source ports.SnapshotSource) error {
	snapshots := make(chan domain.Snapshot, snapshotBuffer)
	done := make(chan error, 1)

	go func() {
		done <- source.Run(ctx, snapshots)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap := <-snapshots:
			app.Monitor.IngestSnapshot(ctx, snap)
		case err := <-done:
			// Drain what the source managed to send before it stopped.
			for {
				select {
				case snap := <-snapshots:
					app.Monitor.IngestSnapshot(ctx, snap)
				default:
					if err != nil && !errors.Is(err, context.Canceled) {
						return err
					}
					slog.Info("Snapshot feed finished", "source", source.Name())
					return nil
				}
			}
		}
	}
}

// runOrientationPump samples provider at every interval.
func (app *Application) runOrientationPump(ctx context.Context, provider ports.OrientationProvider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := app.Monitor.UpdateOrientation(provider.Azimuth()); err != nil {
				slog.Warn("Discarding compass reading", "error", err)
			}
		}
	}
}

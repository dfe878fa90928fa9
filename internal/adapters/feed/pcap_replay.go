package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/lcalzada-xor/wsentry/internal/core/domain"
	"github.com/lcalzada-xor/wsentry/internal/telemetry"
)

// Capability bits of the beacon fixed parameters.
const (
	capESS     = 0x0001
	capPrivacy = 0x0010
)

// PcapReplay is a SnapshotSource that turns a radiotap capture into scan
// snapshots. Beacons and probe responses seen within one window of capture
// time form one snapshot; the latest frame of each transmitter wins.
type PcapReplay struct {
	path   string
	window time.Duration
	pace   time.Duration
}

// NewPcapReplay replays path, grouping frames into window-long scans and
// emitting one snapshot every pace of wall-clock time. A zero pace replays
// as fast as the consumer reads.
func NewPcapReplay(path string, window, pace time.Duration) *PcapReplay {
	return &PcapReplay{path: path, window: window, pace: pace}
}

// Name identifies the source in logs and metrics.
func (p *PcapReplay) Name() string {
	return "pcap"
}

// Run replays the capture once. It returns nil when the file is exhausted or
// ctx is cancelled.
func (p *PcapReplay) Run(ctx context.Context, out chan<- domain.Snapshot) error {
	f, err := os.Open(p.path)
	if err != nil {
		telemetry.FeedErrors.WithLabelValues(p.Name(), "open").Inc()
		return fmt.Errorf("open capture %s: %w", p.path, err)
	}
	defer f.Close()

	slog.Info("Replaying capture", "path", p.path, "window", p.window)
	return p.replay(ctx, f, out)
}

func (p *PcapReplay) replay(ctx context.Context, r io.Reader, out chan<- domain.Snapshot) error {
	reader, err := pcapgo.NewReader(r)
	if err != nil {
		telemetry.FeedErrors.WithLabelValues(p.Name(), "header").Inc()
		return fmt.Errorf("read capture header: %w", err)
	}

	agg := newScanAggregator(p.window)
	frames := 0
	for {
		data, ci, err := reader.ReadPacketData()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			telemetry.FeedErrors.WithLabelValues(p.Name(), "read").Inc()
			return fmt.Errorf("read frame %d: %w", frames, err)
		}
		frames++

		obs, ok := p.decodeFrame(data, reader.LinkType(), ci.Timestamp)
		if !ok {
			continue
		}
		if snap, ready := agg.add(obs); ready {
			if !p.emit(ctx, out, snap) {
				return nil
			}
		}
	}

	if snap, ok := agg.flush(); ok {
		p.emit(ctx, out, snap)
	}
	slog.Info("Capture replay finished", "path", p.path, "frames", frames)
	return nil
}

// emit delivers snap and waits for the pace interval. It reports false once
// ctx is cancelled.
func (p *PcapReplay) emit(ctx context.Context, out chan<- domain.Snapshot, snap domain.Snapshot) bool {
	snap.Source = p.Name()
	select {
	case out <- snap:
	case <-ctx.Done():
		return false
	}
	if p.pace <= 0 {
		return true
	}
	select {
	case <-time.After(p.pace):
		return true
	case <-ctx.Done():
		return false
	}
}

// decodeFrame extracts an observation from a beacon or probe response.
// Malformed frames are counted and skipped.
func (p *PcapReplay) decodeFrame(data []byte, linkType layers.LinkType, ts time.Time) (obs domain.NetworkObservation, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("Recovered from panic decoding frame", "error", r)
			telemetry.FeedErrors.WithLabelValues(p.Name(), "panic").Inc()
			ok = false
		}
	}()

	packet := gopacket.NewPacket(data, linkType, gopacket.Default)

	dot11, isDot11 := packet.Layer(layers.LayerTypeDot11).(*layers.Dot11)
	if !isDot11 {
		if packet.ErrorLayer() != nil {
			telemetry.FeedErrors.WithLabelValues(p.Name(), "decode").Inc()
		}
		return domain.NetworkObservation{}, false
	}

	var flags uint16
	switch dot11.Type {
	case layers.Dot11TypeMgmtBeacon:
		beacon, isBeacon := packet.Layer(layers.LayerTypeDot11MgmtBeacon).(*layers.Dot11MgmtBeacon)
		if !isBeacon {
			return domain.NetworkObservation{}, false
		}
		flags = beacon.Flags
	case layers.Dot11TypeMgmtProbeResp:
		resp, isResp := packet.Layer(layers.LayerTypeDot11MgmtProbeResp).(*layers.Dot11MgmtProbeResp)
		if !isResp {
			return domain.NetworkObservation{}, false
		}
		flags = resp.Flags
	default:
		return domain.NetworkObservation{}, false
	}

	// Signal and frequency only come from the radiotap header.
	radiotap, hasRadiotap := packet.Layer(layers.LayerTypeRadioTap).(*layers.RadioTap)
	if !hasRadiotap || radiotap.ChannelFrequency == 0 {
		return domain.NetworkObservation{}, false
	}

	return domain.NewObservation(
		dot11.Address3.String(),
		frameSSID(packet),
		int(radiotap.DBMAntennaSignal),
		int(radiotap.ChannelFrequency),
		capabilityString(flags),
		ts,
	), true
}

// frameSSID returns the SSID element, or "" when absent or zeroed out.
func frameSSID(packet gopacket.Packet) string {
	for _, l := range packet.Layers() {
		ie, ok := l.(*layers.Dot11InformationElement)
		if !ok || ie.ID != layers.Dot11InformationElementIDSSID {
			continue
		}
		return string(bytes.TrimRight(ie.Info, "\x00"))
	}
	return ""
}

func capabilityString(flags uint16) string {
	caps := ""
	if flags&capPrivacy != 0 {
		caps += "[PRIVACY]"
	}
	if flags&capESS != 0 {
		caps += "[ESS]"
	}
	return caps
}

// scanAggregator folds a stream of frames into fixed windows of capture time.
type scanAggregator struct {
	window   time.Duration
	start    time.Time
	order    []string
	stations map[string]domain.NetworkObservation
}

func newScanAggregator(window time.Duration) *scanAggregator {
	return &scanAggregator{
		window:   window,
		stations: make(map[string]domain.NetworkObservation),
	}
}

// add records obs and returns the previous window when obs starts a new one.
func (a *scanAggregator) add(obs domain.NetworkObservation) (domain.Snapshot, bool) {
	var (
		snap  domain.Snapshot
		ready bool
	)
	if a.start.IsZero() {
		a.start = obs.Timestamp
	} else if !obs.Timestamp.Before(a.start.Add(a.window)) {
		snap, ready = a.flush()
		a.start = obs.Timestamp
	}

	if _, seen := a.stations[obs.BSSID]; !seen {
		a.order = append(a.order, obs.BSSID)
	}
	a.stations[obs.BSSID] = obs
	return snap, ready
}

// flush closes the current window. Every observation takes the window end as
// its timestamp so the snapshot reads as one scan.
func (a *scanAggregator) flush() (domain.Snapshot, bool) {
	if len(a.order) == 0 {
		return domain.Snapshot{}, false
	}
	end := a.start.Add(a.window)
	snap := domain.Snapshot{
		Observations: make([]domain.NetworkObservation, 0, len(a.order)),
		Timestamp:    end,
	}
	for _, bssid := range a.order {
		obs := a.stations[bssid]
		obs.Timestamp = end
		snap.Observations = append(snap.Observations, obs)
	}

	a.order = nil
	a.stations = make(map[string]domain.NetworkObservation)
	return snap, true
}

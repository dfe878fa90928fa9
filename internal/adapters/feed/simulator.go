package feed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/lcalzada-xor/wsentry/internal/core/domain"
)

// Scenario selects which attack pattern the simulator injects.
type Scenario string

const (
	ScenarioCalm        Scenario = "calm"
	ScenarioEvilTwin    Scenario = "evil_twin"
	ScenarioBeaconFlood Scenario = "beacon_flood"
	ScenarioDeauth      Scenario = "deauth"
	// ScenarioMixed rotates through every attack pattern, one per phase.
	ScenarioMixed Scenario = "mixed"
)

// PhaseLength is the number of snapshots each pattern lasts in ScenarioMixed.
const PhaseLength = 12

// ParseScenario maps a configuration string to a Scenario.
func ParseScenario(s string) (Scenario, error) {
	switch sc := Scenario(strings.ToLower(strings.TrimSpace(s))); sc {
	case ScenarioCalm, ScenarioEvilTwin, ScenarioBeaconFlood, ScenarioDeauth, ScenarioMixed:
		return sc, nil
	case "":
		return ScenarioMixed, nil
	default:
		return "", fmt.Errorf("unknown scenario %q", s)
	}
}

// Common SSIDs for realistic background traffic
var commonSSIDs = []string{
	"HomeNetwork", "NETGEAR-5G", "Starbucks WiFi", "TP-Link_2.4GHz",
	"Linksys", "ATT-WiFi", "Xfinity", "Google Fiber",
	"Office-Network", "Guest-WiFi", "MyWiFi", "Home-2.4G",
	"DIRECT-Printer", "AndroidAP", "CoffeeShop_Free", "Hotel-Guest",
}

// Vendor OUI prefixes (first 3 bytes of MAC)
var vendorPrefixes = []string{
	"00:17:f2", "00:12:fb", "00:1e:bd", "50:c7:bf", "a0:63:91",
	"00:14:bf", "f4:f5:d8", "fc:a6:67", "34:ce:00", "00:e0:fc",
}

var capabilities = []string{
	"[WPA2-PSK-CCMP][ESS]", "[WPA2-PSK-CCMP][WPS][ESS]", "[WPA3-SAE-CCMP][ESS]", "[ESS]",
}

// Frequencies for the 2.4GHz and 5GHz channels the simulator uses
var (
	freqs24GHz = []int{2412, 2437, 2462}
	freqs5GHz  = []int{5180, 5220, 5745}
)

// attackFreq is where injected attacks happen (channel 6).
const attackFreq = 2437

type simStation struct {
	bssid string
	ssid  string
	freq  int
	rssi  int
	caps  string
}

// Simulator is a SnapshotSource producing synthetic scans with scripted attacks.
type Simulator struct {
	rand       *rand.Rand
	interval   time.Duration
	scenario   Scenario
	background []*simStation
	tick       int
}

// NewSimulator creates a simulator with n background networks. A zero seed
// picks a time-based one.
func NewSimulator(scenario Scenario, interval time.Duration, n int, seed int64) *Simulator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s := &Simulator{
		rand:     rand.New(rand.NewSource(seed)),
		interval: interval,
		scenario: scenario,
	}
	for i := 0; i < n; i++ {
		s.background = append(s.background, s.generateStation())
	}
	return s
}

// Name identifies the source in logs and metrics.
func (s *Simulator) Name() string {
	return "simulator"
}

// Run emits one snapshot per interval until ctx is cancelled.
func (s *Simulator) Run(ctx context.Context, out chan<- domain.Snapshot) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			select {
			case out <- s.Next(now):
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// Next advances the simulation by one scan and returns its snapshot.
func (s *Simulator) Next(now time.Time) domain.Snapshot {
	s.drift()

	obs := make([]domain.NetworkObservation, 0, len(s.background)+32)
	for _, st := range s.background {
		obs = append(obs, domain.NewObservation(st.bssid, st.ssid, st.rssi, st.freq, st.caps, now))
	}

	switch s.activeScenario() {
	case ScenarioEvilTwin:
		obs = append(obs, s.evilTwin(now)...)
	case ScenarioBeaconFlood:
		obs = append(obs, s.beaconFlood(now)...)
	case ScenarioDeauth:
		obs = append(obs, s.deauth(now)...)
	}

	s.tick++
	return domain.Snapshot{Observations: obs, Timestamp: now, Source: s.Name()}
}

func (s *Simulator) activeScenario() Scenario {
	if s.scenario != ScenarioMixed {
		return s.scenario
	}
	phases := []Scenario{ScenarioCalm, ScenarioEvilTwin, ScenarioCalm, ScenarioBeaconFlood, ScenarioCalm, ScenarioDeauth}
	return phases[(s.tick/PhaseLength)%len(phases)]
}

// evilTwin clones one network name across several transmitters next to a
// handful of hidden ones.
func (s *Simulator) evilTwin(now time.Time) []domain.NetworkObservation {
	out := make([]domain.NetworkObservation, 0, 7)
	for i := 0; i < 3; i++ {
		out = append(out, domain.NewObservation(fakeBSSID(0xe0, i), "FreeWiFi", -35-s.rand.Intn(15), attackFreq, "[ESS]", now))
	}
	for i := 0; i < 4; i++ {
		out = append(out, domain.NewObservation(fakeBSSID(0xe1, i), "", -70, attackFreq, "[ESS]", now))
	}
	return out
}

// beaconFlood alternates between a quiet and a crowded channel.
func (s *Simulator) beaconFlood(now time.Time) []domain.NetworkObservation {
	n := 2
	if s.tick%2 == 1 {
		n = 30
	}
	out := make([]domain.NetworkObservation, 0, n+2)
	for i := 0; i < n; i++ {
		out = append(out, domain.NewObservation(fakeBSSID(0xf0, i), fmt.Sprintf("FLOOD-%03d", i), -60, attackFreq, "[ESS]", now))
	}
	for i := 0; i < 2; i++ {
		out = append(out, domain.NewObservation(fakeBSSID(0xf1, i), "", -75, attackFreq, "[ESS]", now))
	}
	return out
}

// deauth makes the clients of one network swing sharply in signal strength.
func (s *Simulator) deauth(now time.Time) []domain.NetworkObservation {
	rssi := -40
	if s.tick%2 == 1 {
		rssi = -62
	}
	out := make([]domain.NetworkObservation, 0, 3)
	for i := 0; i < 3; i++ {
		out = append(out, domain.NewObservation(fakeBSSID(0xd0, i), "CorpNet", rssi, attackFreq, "[WPA2-EAP-CCMP][ESS]", now))
	}
	return out
}

// drift simulates movement with a small random RSSI walk.
func (s *Simulator) drift() {
	for _, st := range s.background {
		st.rssi += s.rand.Intn(5) - 2
		if st.rssi > -20 {
			st.rssi = -20
		}
		if st.rssi < -95 {
			st.rssi = -95
		}
	}
}

func (s *Simulator) generateStation() *simStation {
	freq := freqs24GHz[s.rand.Intn(len(freqs24GHz))]
	if s.rand.Float32() < 0.4 { // 40% chance of 5GHz
		freq = freqs5GHz[s.rand.Intn(len(freqs5GHz))]
	}
	ssid := commonSSIDs[s.rand.Intn(len(commonSSIDs))]
	if s.rand.Float32() < 0.1 { // 10% hidden
		ssid = ""
	}
	prefix := vendorPrefixes[s.rand.Intn(len(vendorPrefixes))]
	return &simStation{
		bssid: fmt.Sprintf("%s:%02x:%02x:%02x", prefix, s.rand.Intn(256), s.rand.Intn(256), s.rand.Intn(256)),
		ssid:  ssid,
		freq:  freq,
		rssi:  -30 - s.rand.Intn(40), // -30 to -70 dBm
		caps:  capabilities[s.rand.Intn(len(capabilities))],
	}
}

// fakeBSSID builds a locally administered address for injected transmitters.
func fakeBSSID(group, i int) string {
	return fmt.Sprintf("02:de:ad:%02x:%02x:%02x", group, i/256, i%256)
}

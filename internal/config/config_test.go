package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadArgs_Defaults(t *testing.T) {
	cfg, err := LoadArgs(nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 5*time.Second, cfg.Interval)
	assert.True(t, cfg.MockMode)
	assert.Equal(t, "mixed", cfg.Scenario)
	assert.Zero(t, cfg.DedupWindow)
	assert.Equal(t, 60*time.Second, cfg.EventActive)
	assert.Equal(t, 100, cfg.EventCapacity)
	assert.Equal(t, CompassStatic, cfg.CompassMode)
	assert.Len(t, cfg.AllowedOrigins, 3)
	assert.False(t, cfg.Debug)
}

func TestLoadArgs_EnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("WSENTRY_ADDR", ":9090")
	t.Setenv("WSENTRY_INTERVAL", "2s")
	t.Setenv("WSENTRY_MOCK", "false")
	t.Setenv("WSENTRY_PCAP", "/tmp/scan.pcap")
	t.Setenv("WSENTRY_OUI_FILE", "/tmp/oui.txt")
	t.Setenv("WSENTRY_DEDUP", "30s")
	t.Setenv("WSENTRY_ORIGINS", "http://a.local, ,http://b.local")
	t.Setenv("WSENTRY_SWEEP_RATE", "not-a-number")

	cfg, err := LoadArgs(nil)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 2*time.Second, cfg.Interval)
	assert.False(t, cfg.MockMode)
	assert.Equal(t, "/tmp/scan.pcap", cfg.PcapPath)
	assert.Equal(t, "/tmp/oui.txt", cfg.OUIPath)
	assert.Equal(t, 30*time.Second, cfg.DedupWindow)
	assert.Equal(t, []string{"http://a.local", "http://b.local"}, cfg.AllowedOrigins)
	// Unparseable values fall back to the default.
	assert.Equal(t, 30.0, cfg.SweepRate)
}

func TestLoadArgs_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("WSENTRY_ADDR", ":9090")

	cfg, err := LoadArgs([]string{"-addr", ":7070", "-debug", "-compass", "sweep", "-event-active", "90s"})
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Addr)
	assert.True(t, cfg.Debug)
	assert.Equal(t, CompassSweep, cfg.CompassMode)
	assert.Equal(t, 90*time.Second, cfg.EventActive)
}

func TestLoadArgs_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"-bogus"}},
		{"zero interval", []string{"-interval", "0s"}},
		{"negative dedup", []string{"-dedup", "-1s"}},
		{"zero capacity", []string{"-event-capacity", "0"}},
		{"unknown compass", []string{"-compass", "gyro"}},
		{"non-finite heading", []string{"-heading", "NaN"}},
		{"empty nats subject", []string{"-nats", "nats://127.0.0.1:4222", "-nats-subject", ""}},
		{"missing config file", []string{"-config", "/nonexistent/wsentry.toml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadArgs(tt.args)
			assert.Error(t, err)
		})
	}
}

const sampleFile = `
addr = ":6060"
interval = "3s"
scenario = "deauth"
allowed_origins = ["http://console.local"]
event_capacity = 50
compass = "sweep"
nats_url = "nats://127.0.0.1:4222"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wsentry.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadArgs_ConfigFile(t *testing.T) {
	path := writeConfig(t, sampleFile)

	cfg, err := LoadArgs([]string{"-config", path})
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, ":6060", cfg.Addr)
	assert.Equal(t, 3*time.Second, cfg.Interval)
	assert.Equal(t, "deauth", cfg.Scenario)
	assert.Equal(t, []string{"http://console.local"}, cfg.AllowedOrigins)
	assert.Equal(t, 50, cfg.EventCapacity)
	assert.Equal(t, CompassSweep, cfg.CompassMode)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NatsURL)
	// Keys absent from the file keep their defaults.
	assert.Equal(t, 60*time.Second, cfg.EventActive)
	assert.Equal(t, "wsentry", cfg.NatsSubject)
}

func TestLoadArgs_ConfigFileLayering(t *testing.T) {
	path := writeConfig(t, sampleFile)
	t.Setenv("WSENTRY_CONFIG", path)
	t.Setenv("WSENTRY_ADDR", ":9090")

	cfg, err := LoadArgs([]string{"-scenario=calm"})
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr, "environment overrides the file")
	assert.Equal(t, "calm", cfg.Scenario, "flags override the file")
	assert.Equal(t, 3*time.Second, cfg.Interval)
}

func TestLoadArgs_ConfigFileMalformed(t *testing.T) {
	path := writeConfig(t, "addr = [unterminated")
	_, err := LoadArgs([]string{"--config=" + path})
	assert.Error(t, err)
}

func TestConfigPath(t *testing.T) {
	assert.Equal(t, "a.toml", configPath([]string{"-config", "a.toml"}, ""))
	assert.Equal(t, "b.toml", configPath([]string{"-debug", "--config=b.toml"}, ""))
	assert.Equal(t, "env.toml", configPath([]string{"-addr", ":1"}, "env.toml"))
	assert.Equal(t, "env.toml", configPath([]string{"-config"}, "env.toml"))
}

package config

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Compass modes.
const (
	CompassStatic = "static"
	CompassSweep  = "sweep"
)

// Config holds all application configuration.
// Values are layered: defaults, then the optional TOML file, then WSENTRY_*
// environment variables, then command line flags.
type Config struct {
	Addr           string        `toml:"addr"`
	AllowedOrigins []string      `toml:"allowed_origins"`
	Interval       time.Duration `toml:"interval"` // scan cadence of the feeds
	MockMode       bool          `toml:"mock"`
	Scenario       string        `toml:"scenario"`
	Background     int           `toml:"background"`
	Seed           int64         `toml:"seed"`
	PcapPath       string        `toml:"pcap"`
	OUIPath        string        `toml:"oui_file"`
	DedupWindow    time.Duration `toml:"dedup_window"`
	EventActive    time.Duration `toml:"event_active"`
	EventCapacity  int           `toml:"event_capacity"`
	CompassMode    string        `toml:"compass"`
	Heading        float64       `toml:"heading"`
	SweepRate      float64       `toml:"sweep_rate"` // degrees per second
	NatsURL        string        `toml:"nats_url"`
	NatsSubject    string        `toml:"nats_subject"`
	TracePath      string        `toml:"trace"`
	Debug          bool          `toml:"debug"`

	// ConfigFile is the TOML file the values were read from, if any.
	ConfigFile string `toml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Addr:           ":8080",
		AllowedOrigins: []string{"http://localhost:8080", "http://127.0.0.1:8080", "http://[::1]:8080"},
		Interval:       5 * time.Second,
		MockMode:       true,
		Scenario:       "mixed",
		Background:     20,
		EventActive:    60 * time.Second,
		EventCapacity:  100,
		CompassMode:    CompassStatic,
		SweepRate:      30,
		NatsSubject:    "wsentry",
	}
}

// Load parses command line flags and environment variables to populate Config.
// Flags take precedence over environment variables.
func Load() (*Config, error) {
	return LoadArgs(os.Args[1:])
}

// LoadArgs is Load over an explicit argument list.
func LoadArgs(args []string) (*Config, error) {
	cfg := Default()
	fs := flag.NewFlagSet("wsentry", flag.ContinueOnError)

	// Configuration file
	cfg.ConfigFile = configPath(args, getEnv("WSENTRY_CONFIG", ""))
	if cfg.ConfigFile != "" {
		if _, err := toml.DecodeFile(cfg.ConfigFile, cfg); err != nil {
			return nil, fmt.Errorf("config file %s: %w", cfg.ConfigFile, err)
		}
	}

	// Environment Variables
	originStr := getEnv("WSENTRY_ORIGINS", strings.Join(cfg.AllowedOrigins, ","))
	cfg.Addr = getEnv("WSENTRY_ADDR", cfg.Addr)
	cfg.Interval = getEnvDuration("WSENTRY_INTERVAL", cfg.Interval)
	cfg.MockMode = getEnvBool("WSENTRY_MOCK", cfg.MockMode)
	cfg.Scenario = getEnv("WSENTRY_SCENARIO", cfg.Scenario)
	cfg.Background = getEnvInt("WSENTRY_BACKGROUND", cfg.Background)
	cfg.Seed = int64(getEnvInt("WSENTRY_SEED", int(cfg.Seed)))
	cfg.PcapPath = getEnv("WSENTRY_PCAP", cfg.PcapPath)
	cfg.OUIPath = getEnv("WSENTRY_OUI_FILE", cfg.OUIPath)
	cfg.DedupWindow = getEnvDuration("WSENTRY_DEDUP", cfg.DedupWindow)
	cfg.EventActive = getEnvDuration("WSENTRY_EVENT_ACTIVE", cfg.EventActive)
	cfg.EventCapacity = getEnvInt("WSENTRY_EVENT_CAPACITY", cfg.EventCapacity)
	cfg.CompassMode = getEnv("WSENTRY_COMPASS", cfg.CompassMode)
	cfg.Heading = getEnvFloat("WSENTRY_HEADING", cfg.Heading)
	cfg.SweepRate = getEnvFloat("WSENTRY_SWEEP_RATE", cfg.SweepRate)
	cfg.NatsURL = getEnv("WSENTRY_NATS_URL", cfg.NatsURL)
	cfg.NatsSubject = getEnv("WSENTRY_NATS_SUBJECT", cfg.NatsSubject)
	cfg.TracePath = getEnv("WSENTRY_TRACE", cfg.TracePath)
	cfg.Debug = getEnvBool("WSENTRY_DEBUG", cfg.Debug)

	// Command Line Flags (Override Env)
	fs.String("config", cfg.ConfigFile, "TOML configuration file")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP server address")
	fs.StringVar(&originStr, "origins", originStr, "Allowed websocket origins (comma separated)")
	fs.DurationVar(&cfg.Interval, "interval", cfg.Interval, "Scan snapshot interval")
	fs.BoolVar(&cfg.MockMode, "mock", cfg.MockMode, "Feed synthetic scans from the simulator")
	fs.StringVar(&cfg.Scenario, "scenario", cfg.Scenario, "Simulator scenario: calm, evil_twin, beacon_flood, deauth, mixed")
	fs.IntVar(&cfg.Background, "background", cfg.Background, "Simulated background networks")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Simulator random seed (0 for time based)")
	fs.StringVar(&cfg.PcapPath, "pcap", cfg.PcapPath, "Replay a radiotap capture instead of simulating")
	fs.StringVar(&cfg.OUIPath, "oui", cfg.OUIPath, "OUI vendor list (\"XX:XX:XX Vendor\" lines) used to label attack targets")
	fs.DurationVar(&cfg.DedupWindow, "dedup", cfg.DedupWindow, "Suppress repeated events per channel and category within this window (0 disables)")
	fs.DurationVar(&cfg.EventActive, "event-active", cfg.EventActive, "How long an event stays active")
	fs.IntVar(&cfg.EventCapacity, "event-capacity", cfg.EventCapacity, "Maximum retained events")
	fs.StringVar(&cfg.CompassMode, "compass", cfg.CompassMode, "Compass provider: static or sweep")
	fs.Float64Var(&cfg.Heading, "heading", cfg.Heading, "Initial compass heading in degrees")
	fs.Float64Var(&cfg.SweepRate, "sweep-rate", cfg.SweepRate, "Sweep compass rotation in degrees per second")
	fs.StringVar(&cfg.NatsURL, "nats", cfg.NatsURL, "Forward attack events to this NATS server (empty to disable)")
	fs.StringVar(&cfg.NatsSubject, "nats-subject", cfg.NatsSubject, "Subject prefix for forwarded events")
	fs.StringVar(&cfg.TracePath, "trace", cfg.TracePath, "Write OpenTelemetry spans to this file (empty to disable)")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable verbose debug logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.AllowedOrigins = parseList(originStr)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configPath finds -config ahead of full flag parsing so the file can seed flag defaults.
func configPath(args []string, fallback string) string {
	for i, arg := range args {
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") || name != "config" {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return fallback
}

// Validate rejects settings the application cannot run with.
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", c.Interval)
	}
	if c.DedupWindow < 0 {
		return fmt.Errorf("dedup window must not be negative, got %s", c.DedupWindow)
	}
	if c.EventActive <= 0 {
		return fmt.Errorf("event active window must be positive, got %s", c.EventActive)
	}
	if c.EventCapacity <= 0 {
		return fmt.Errorf("event capacity must be positive, got %d", c.EventCapacity)
	}
	if c.Background < 0 {
		return fmt.Errorf("background network count must not be negative, got %d", c.Background)
	}
	switch c.CompassMode {
	case CompassStatic, CompassSweep:
	default:
		return fmt.Errorf("unknown compass mode %q", c.CompassMode)
	}
	if math.IsNaN(c.Heading) || math.IsInf(c.Heading, 0) {
		return fmt.Errorf("heading must be finite, got %v", c.Heading)
	}
	if c.NatsURL != "" && c.NatsSubject == "" {
		return fmt.Errorf("nats subject must not be empty when forwarding is enabled")
	}
	return nil
}

func parseList(s string) []string {
	var items []string
	if s == "" {
		return items
	}
	parts := strings.Split(s, ",")
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

package compass

import (
	"math"
	"sync"
	"time"

	"github.com/lcalzada-xor/wsentry/internal/core/domain"
)

// Provider defines the interface for obtaining the current compass azimuth.
type Provider interface {
	Azimuth() float64
}

// StaticProvider implements Provider with a fixed heading.
type StaticProvider struct {
	mu      sync.RWMutex
	heading float64
}

// NewStaticProvider creates a provider that returns the given heading until Set is called.
func NewStaticProvider(heading float64) *StaticProvider {
	return &StaticProvider{heading: domain.NormalizeAzimuth(heading)}
}

// Azimuth returns the current heading.
func (s *StaticProvider) Azimuth() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.heading
}

// Set updates the heading, e.g. from an external sensor push.
func (s *StaticProvider) Set(heading float64) error {
	if err := domain.ValidateAzimuth(heading); err != nil {
		return err
	}
	s.mu.Lock()
	s.heading = domain.NormalizeAzimuth(heading)
	s.mu.Unlock()
	return nil
}

// SweepProvider simulates an operator turning in place at a constant rate.
type SweepProvider struct {
	start         time.Time
	degreesPerSec float64
	offset        float64
	now           func() time.Time
}

// NewSweepProvider creates a provider that starts at offset and rotates at degreesPerSec.
func NewSweepProvider(offset, degreesPerSec float64) *SweepProvider {
	return &SweepProvider{
		start:         time.Now(),
		degreesPerSec: degreesPerSec,
		offset:        offset,
		now:           time.Now,
	}
}

// Azimuth returns the heading reached since the provider was created.
func (s *SweepProvider) Azimuth() float64 {
	elapsed := s.now().Sub(s.start).Seconds()
	return domain.NormalizeAzimuth(s.offset + math.Mod(elapsed*s.degreesPerSec, 360))
}

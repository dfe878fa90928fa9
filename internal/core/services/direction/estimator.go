package direction

import (
	"sort"
	"sync"
	"time"

	"github.com/lcalzada-xor/wsentry/internal/core/domain"
	"github.com/lcalzada-xor/wsentry/internal/telemetry"
)

const (
	// ReadingWindow is how long direction readings are retained.
	ReadingWindow = 30 * time.Second
	// ProfileBucketWidth is the granularity of the live direction profile.
	ProfileBucketWidth = 10
	// BearingBucketWidth is the granularity of one-shot bearing estimates.
	BearingBucketWidth = 30
	// MinBearingReadings is the minimum number of readings for EstimateBearing.
	MinBearingReadings = 4
)

// Estimator correlates compass azimuths with the RSSI of one tracked station
// to infer the direction of its strongest signal. It is safe for concurrent use.
type Estimator struct {
	mu       sync.RWMutex
	tracked  string
	readings []domain.DirectionReading
	profile  domain.DirectionProfile
	window   time.Duration
}

// NewEstimator creates an idle estimator.
func NewEstimator() *Estimator {
	return &Estimator{window: ReadingWindow}
}

// StartTracking switches to bssid and discards any existing readings.
func (e *Estimator) StartTracking(bssid string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tracked = domain.NormalizeBSSID(bssid)
	e.readings = nil
	e.profile = domain.NewDirectionProfile(e.tracked, ProfileBucketWidth)
}

// StopTracking returns to idle. It is safe to call at any time.
func (e *Estimator) StopTracking() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tracked = ""
	e.readings = nil
	e.profile = domain.DirectionProfile{}
}

// Tracked returns the tracked station, if any.
func (e *Estimator) Tracked() (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tracked, e.tracked != ""
}

// RecordReading appends a reading for the tracked station and refreshes the
// live profile. Readings for any other station are ignored; the return value
// reports whether the reading was recorded.
func (e *Estimator) RecordReading(rssi int, bssid string, azimuth float64, now time.Time) bool {
	bssid = domain.NormalizeBSSID(bssid)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.tracked == "" || bssid != e.tracked {
		return false
	}
	if domain.ValidateAzimuth(azimuth) != nil {
		return false
	}

	e.readings = append(e.readings, domain.DirectionReading{
		Azimuth:   domain.NormalizeAzimuth(azimuth),
		RSSI:      rssi,
		BSSID:     bssid,
		Timestamp: now,
	})
	e.prune(now)
	e.profile = e.deriveProfile(bssid, now)

	telemetry.DirectionReadings.Inc()
	return true
}

// prune drops readings older than the window.
func (e *Estimator) prune(now time.Time) {
	keep := e.readings[:0]
	for _, r := range e.readings {
		if now.Sub(r.Timestamp) <= e.window {
			keep = append(keep, r)
		}
	}
	clear(e.readings[len(keep):])
	e.readings = keep
}

// DeriveProfile recomputes the 10 degree profile of bssid from the retained readings.
func (e *Estimator) DeriveProfile(bssid string) domain.DirectionProfile {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.deriveProfile(domain.NormalizeBSSID(bssid), e.profile.UpdatedAt)
}

func (e *Estimator) deriveProfile(bssid string, now time.Time) domain.DirectionProfile {
	profile := domain.NewDirectionProfile(bssid, ProfileBucketWidth)
	means, counts := bucketMeans(e.readings, bssid, ProfileBucketWidth)
	if len(means) == 0 {
		return profile
	}

	profile.Buckets = means
	profile.Samples = counts
	profile.UpdatedAt = now
	if best, ok := strongestBucket(means); ok {
		dir := float64(best)
		profile.SignalDirection = &dir
	}
	return profile
}

// Profile returns the live profile published by the last recorded reading.
func (e *Estimator) Profile() (domain.DirectionProfile, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.tracked == "" || e.profile.IsEmpty() {
		return domain.DirectionProfile{}, false
	}
	return copyProfile(e.profile), true
}

// SignalDirection returns the live best-estimate direction of the tracked station.
func (e *Estimator) SignalDirection() (float64, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.tracked == "" || e.profile.SignalDirection == nil {
		return 0, false
	}
	return *e.profile.SignalDirection, true
}

// BearingFor returns the live signal direction when bssid is the tracked station.
func (e *Estimator) BearingFor(bssid string) (float64, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.tracked == "" || domain.NormalizeBSSID(bssid) != e.tracked || e.profile.SignalDirection == nil {
		return 0, false
	}
	return *e.profile.SignalDirection, true
}

// EstimateBearing is a coarse one-shot estimate over 30 degree buckets. It
// needs at least MinBearingReadings readings of bssid and returns the start
// angle of the bucket with the highest mean RSSI.
func (e *Estimator) EstimateBearing(bssid string) (float64, bool) {
	bssid = domain.NormalizeBSSID(bssid)

	e.mu.RLock()
	defer e.mu.RUnlock()

	n := 0
	for _, r := range e.readings {
		if r.BSSID == bssid {
			n++
		}
	}
	if n < MinBearingReadings {
		return 0, false
	}

	means, _ := bucketMeans(e.readings, bssid, BearingBucketWidth)
	best, ok := strongestBucket(means)
	return float64(best), ok
}

// Readings returns a copy of the retained readings, oldest first.
func (e *Estimator) Readings() []domain.DirectionReading {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]domain.DirectionReading, len(e.readings))
	copy(out, e.readings)
	return out
}

// Reset clears readings, profile and tracking state.
func (e *Estimator) Reset() {
	e.StopTracking()
}

func bucketMeans(readings []domain.DirectionReading, bssid string, width int) (map[int]float64, map[int]int) {
	sums := make(map[int]int)
	counts := make(map[int]int)
	for _, r := range readings {
		if r.BSSID != bssid {
			continue
		}
		b := domain.AzimuthBucket(r.Azimuth, width)
		sums[b] += r.RSSI
		counts[b]++
	}

	means := make(map[int]float64, len(sums))
	for b, sum := range sums {
		means[b] = float64(sum) / float64(counts[b])
	}
	return means, counts
}

// strongestBucket picks the bucket with the highest mean; the lowest angle wins ties.
func strongestBucket(means map[int]float64) (int, bool) {
	if len(means) == 0 {
		return 0, false
	}
	buckets := make([]int, 0, len(means))
	for b := range means {
		buckets = append(buckets, b)
	}
	sort.Ints(buckets)

	best := buckets[0]
	for _, b := range buckets[1:] {
		if means[b] > means[best] {
			best = b
		}
	}
	return best, true
}

func copyProfile(p domain.DirectionProfile) domain.DirectionProfile {
	out := p
	out.Buckets = make(map[int]float64, len(p.Buckets))
	for k, v := range p.Buckets {
		out.Buckets[k] = v
	}
	out.Samples = make(map[int]int, len(p.Samples))
	for k, v := range p.Samples {
		out.Samples[k] = v
	}
	if p.SignalDirection != nil {
		dir := *p.SignalDirection
		out.SignalDirection = &dir
	}
	return out
}

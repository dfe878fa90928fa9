package compass

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider(370)
	assert.Equal(t, 10.0, p.Azimuth())

	assert.NoError(t, p.Set(-90))
	assert.Equal(t, 270.0, p.Azimuth())

	assert.Error(t, p.Set(math.NaN()))
	assert.Equal(t, 270.0, p.Azimuth())
}

func TestSweepProvider(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	p := NewSweepProvider(350, 30)
	p.start = start
	p.now = func() time.Time { return now }

	assert.Equal(t, 350.0, p.Azimuth())

	now = start.Add(time.Second)
	assert.Equal(t, 20.0, p.Azimuth())

	now = start.Add(12 * time.Second)
	assert.Equal(t, 350.0, p.Azimuth())
}

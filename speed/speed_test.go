package speed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swdee/go-trafficwatch/detect"
)

func newTestEstimator(t *testing.T) *Estimator {
	e, err := NewEstimator(DefaultConfig())
	require.NoError(t, err)
	return e
}

func TestConfigValidate(t *testing.T) {

	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.PixelsPerMeter = 0
	_, err := NewEstimator(cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Smoothing = 1
	assert.Error(t, cfg.Validate())
}

func TestInstantaneous(t *testing.T) {

	e := newTestEstimator(t)

	prev := detect.NewBox(100, 100, 200, 200).Center()
	curr := detect.NewBox(110, 100, 210, 200).Center()

	assert.InDelta(t, 36.0, e.Instantaneous(prev, curr, 0.1), 1e-9)

	// no elapsed time falls back to 1/30s
	assert.InDelta(t, 108.0, e.Instantaneous(prev, curr, 0), 1e-9)

	assert.Equal(t, 0.0, e.Instantaneous(prev, prev, 0.1))
}

func TestSmooth(t *testing.T) {

	e := newTestEstimator(t)

	tests := []struct {
		name      string
		previous  float64
		inst      float64
		expectKmh float64
	}{
		{name: "first reading", previous: 0, inst: 40, expectKmh: 40},
		{name: "spike held", previous: 50, inst: 65, expectKmh: 50},
		{name: "drop held", previous: 50, inst: 35, expectKmh: 50},
		{name: "blended", previous: 50, inst: 55, expectKmh: 51},
		{name: "at threshold", previous: 50, inst: 60, expectKmh: 52},
		{name: "raw reading guarded", previous: 50, inst: 62, expectKmh: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expectKmh, e.Smooth(tt.previous, tt.inst), 1e-9)
		})
	}

	// first reading is taken exactly
	assert.Equal(t, 40.0, e.Smooth(0, 40))
}

func TestEstimate(t *testing.T) {

	e := newTestEstimator(t)

	prev := detect.Point{X: 150, Y: 150}
	curr := detect.Point{X: 160, Y: 150}

	assert.InDelta(t, 36.0, e.Estimate(prev, curr, 0.1, 0), 1e-9)
	assert.InDelta(t, 0.8*30+0.2*36, e.Estimate(prev, curr, 0.1, 30), 1e-9)
}

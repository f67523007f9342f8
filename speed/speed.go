// Package speed converts frame to frame pixel displacement of a tracked
// vehicle into a smoothed speed in km/h.
package speed

import (
	"fmt"
	"math"

	"github.com/swdee/go-trafficwatch/detect"
)

// msToKmh converts meters per second to kilometers per hour
const msToKmh = 3.6

// Config holds the speed estimation parameters
type Config struct {
	// PixelsPerMeter is the fixed image scale used to convert displacement
	PixelsPerMeter float64
	// Smoothing is the weight kept from the previous speed when blending
	Smoothing float64
	// SpikeKmh is the largest accepted jump between the previous speed and
	// a new instantaneous reading
	SpikeKmh float64
	// DefaultFPS gives the elapsed time used when no prior timestamp exists
	DefaultFPS float64
}

// DefaultConfig returns the default speed estimation parameters
func DefaultConfig() Config {
	return Config{
		PixelsPerMeter: 10,
		Smoothing:      0.8,
		SpikeKmh:       10,
		DefaultFPS:     30,
	}
}

// Validate checks the parameters are usable
func (c Config) Validate() error {

	if c.PixelsPerMeter <= 0 {
		return fmt.Errorf("pixels per meter %g must be positive", c.PixelsPerMeter)
	}

	if c.Smoothing < 0 || c.Smoothing >= 1 {
		return fmt.Errorf("smoothing %g must be within [0,1)", c.Smoothing)
	}

	if c.SpikeKmh <= 0 {
		return fmt.Errorf("spike threshold %g must be positive", c.SpikeKmh)
	}

	if c.DefaultFPS <= 0 {
		return fmt.Errorf("default fps %g must be positive", c.DefaultFPS)
	}

	return nil
}

// Estimator computes smoothed track speeds
type Estimator struct {
	cfg Config
}

// NewEstimator returns an Estimator for the given parameters
func NewEstimator(cfg Config) (*Estimator, error) {

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid speed config: %w", err)
	}

	return &Estimator{cfg: cfg}, nil
}

// DefaultElapsed returns the elapsed time in seconds assumed for a frame with
// no prior timestamp
func (e *Estimator) DefaultElapsed() float64 {
	return 1 / e.cfg.DefaultFPS
}

// Instantaneous returns the speed in km/h of a displacement from prev to curr
// over dt seconds.  A non positive dt falls back to the default elapsed time
func (e *Estimator) Instantaneous(prev, curr detect.Point, dt float64) float64 {

	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		dt = e.DefaultElapsed()
	}

	meters := prev.Dist(curr) / e.cfg.PixelsPerMeter

	return meters / dt * msToKmh
}

// Smooth blends an instantaneous reading into the previous speed.  With no
// previous speed the reading is taken as is.  A reading that differs from
// the previous speed by more than the spike threshold is rejected and the
// previous speed is returned.  The guard tests the raw reading, not the
// smoothed result, so a jump from 50 to 65 km/h holds at 50
func (e *Estimator) Smooth(previous, instantaneous float64) float64 {

	if previous <= 0 {
		return instantaneous
	}

	if math.Abs(instantaneous-previous) > e.cfg.SpikeKmh {
		return previous
	}

	return e.cfg.Smoothing*previous + (1-e.cfg.Smoothing)*instantaneous
}

// Estimate returns the new smoothed speed for a track that moved from prev to
// curr over dt seconds given its previous speed
func (e *Estimator) Estimate(prev, curr detect.Point, dt, previous float64) float64 {
	return e.Smooth(previous, e.Instantaneous(prev, curr, dt))
}

package violation

import (
	"errors"
	"math"
)

// Watchlist answers membership queries for plates of interest
type Watchlist interface {
	Contains(plate string) bool
}

// Config holds the rule thresholds
type Config struct {
	// SpeedLimit in km/h, speeds strictly above it are Speeding
	SpeedLimit float64
	// LaneBoundaryY is the y coordinate of the lane boundary, nil disables
	// lane checks
	LaneBoundaryY *float64
	// LaneMargin is how far in pixels a vehicle center may stray from the
	// lane boundary before it is a LaneCrossing
	LaneMargin float64
}

// DefaultConfig returns the default rule thresholds with no lane boundary
func DefaultConfig() Config {
	return Config{
		SpeedLimit: 60,
		LaneMargin: 50,
	}
}

// Validate checks the thresholds are usable
func (c Config) Validate() error {
	if c.SpeedLimit <= 0 {
		return errors.New("speed limit must be positive")
	}
	if c.LaneMargin < 0 {
		return errors.New("lane margin must not be negative")
	}
	return nil
}

// Input is the per track state evaluated against the rules
type Input struct {
	// Speed is the smoothed speed in km/h
	Speed float64
	// CenterY is the vertical center of the track box
	CenterY float64
	// TripleRiding is set when the rider analysis flagged the track region
	TripleRiding bool
	// Plate is the plate text associated with the track, if any
	Plate string
}

// Classifier evaluates tracks against the configured rules
type Classifier struct {
	cfg       Config
	watchlist Watchlist
}

// NewClassifier returns a Classifier.  watchlist may be nil in which case no
// CriminalVehicle tags are produced
func NewClassifier(cfg Config, watchlist Watchlist) *Classifier {
	return &Classifier{
		cfg:       cfg,
		watchlist: watchlist,
	}
}

// SetLaneBoundary places the lane boundary at y
func (c *Classifier) SetLaneBoundary(y float64) {
	c.cfg.LaneBoundaryY = &y
}

// LaneBoundary returns the lane boundary y coordinate and whether one is set
func (c *Classifier) LaneBoundary() (float64, bool) {
	if c.cfg.LaneBoundaryY == nil {
		return 0, false
	}
	return *c.cfg.LaneBoundaryY, true
}

// SpeedLimit returns the configured speed limit
func (c *Classifier) SpeedLimit() float64 {
	return c.cfg.SpeedLimit
}

// IsCriminal reports whether the plate is on the watchlist
func (c *Classifier) IsCriminal(plate string) bool {
	return plate != "" && c.watchlist != nil && c.watchlist.Contains(plate)
}

// Classify returns the violations for the input, always in the order
// Speeding, LaneCrossing, TripleRiding, CriminalVehicle
func (c *Classifier) Classify(in Input) Set {

	var res Set

	if in.Speed > c.cfg.SpeedLimit {
		res = append(res, Tag{Kind: Speeding, Speed: in.Speed, Limit: c.cfg.SpeedLimit})
	}

	if y, ok := c.LaneBoundary(); ok && math.Abs(in.CenterY-y) > c.cfg.LaneMargin {
		res = append(res, Tag{Kind: LaneCrossing})
	}

	if in.TripleRiding {
		res = append(res, Tag{Kind: TripleRiding})
	}

	if c.IsCriminal(in.Plate) {
		res = append(res, Tag{Kind: CriminalVehicle})
	}

	return res
}

package zone

import (
	"fmt"
	"math"
	"sort"

	"github.com/swdee/go-trafficwatch/detect"
	"github.com/swdee/go-trafficwatch/tracker"
)

// DefaultBand is the distance in pixels either side of the counting line a
// track center must fall within to be counted
const DefaultBand = 15.0

// Line is a counting line segment
type Line struct {
	X1, Y1, X2, Y2 float64
}

// YAt returns the line's y coordinate at x
func (l Line) YAt(x float64) float64 {
	if l.X2 == l.X1 {
		return l.Y1
	}
	return l.Y1 + (l.Y2-l.Y1)*(x-l.X1)/(l.X2-l.X1)
}

// Counter counts each confirmed track once when its center reaches the line
type Counter struct {
	line    Line
	band    float64
	counted map[int]struct{}
	byType  map[string]int
}

// NewCounter returns a Counter for the line
func NewCounter(line Line, band float64) (*Counter, error) {

	if line.X1 == line.X2 {
		return nil, fmt.Errorf("%w: counting line has no horizontal extent", detect.ErrInvalidGeometry)
	}

	if band <= 0 {
		return nil, fmt.Errorf("counting band %g must be positive", band)
	}

	return &Counter{
		line:    line,
		band:    band,
		counted: make(map[int]struct{}),
		byType:  make(map[string]int),
	}, nil
}

// Line returns the counting line
func (c *Counter) Line() Line {
	return c.line
}

// Observe counts the tracks whose centers lie on the line and returns the
// IDs counted for the first time
func (c *Counter) Observe(tracks []*tracker.Track) []int {

	var res []int

	minX := math.Min(c.line.X1, c.line.X2)
	maxX := math.Max(c.line.X1, c.line.X2)

	for _, track := range tracks {

		if _, ok := c.counted[track.GetTrackID()]; ok {
			continue
		}

		center := track.GetCenter()

		if center.X <= minX || center.X >= maxX {
			continue
		}

		if math.Abs(center.Y-c.line.YAt(center.X)) >= c.band {
			continue
		}

		c.counted[track.GetTrackID()] = struct{}{}
		c.byType[track.GetVehicleType()]++
		res = append(res, track.GetTrackID())
	}

	return res
}

// Total returns the number of tracks counted
func (c *Counter) Total() int {
	return len(c.counted)
}

// Counts returns a copy of the per vehicle type counts
func (c *Counter) Counts() map[string]int {

	res := make(map[string]int, len(c.byType))

	for k, v := range c.byType {
		res[k] = v
	}

	return res
}

// CountedIDs returns the counted track IDs in ascending order
func (c *Counter) CountedIDs() []int {

	res := make([]int, 0, len(c.counted))

	for id := range c.counted {
		res = append(res, id)
	}

	sort.Ints(res)
	return res
}

// Reset clears all counts
func (c *Counter) Reset() {
	c.counted = make(map[int]struct{})
	c.byType = make(map[string]int)
}

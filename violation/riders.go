package violation

import (
	"github.com/swdee/go-trafficwatch/detect"
)

// RiderAnalyzer finds motorcycles carrying too many riders.  It returns the
// boxes of the motorcycles flagged
type RiderAnalyzer interface {
	Analyze(motorcycles, persons []detect.Box) []detect.Box
}

// OverlapRiders counts a person as riding a motorcycle when at least
// MinOverlap of the person's box area lies within the motorcycle box
type OverlapRiders struct {
	// MinOverlap is the fraction of the person area that must overlap
	MinOverlap float64
	// MaxRiders is the number of riders allowed, more than this is flagged
	MaxRiders int
}

// DefaultOverlapRiders returns the analyzer flagging more than two riders
// overlapping by 30% or more
func DefaultOverlapRiders() OverlapRiders {
	return OverlapRiders{
		MinOverlap: 0.3,
		MaxRiders:  2,
	}
}

// Analyze returns the motorcycle boxes with more than MaxRiders riders
func (o OverlapRiders) Analyze(motorcycles, persons []detect.Box) []detect.Box {

	var flagged []detect.Box

	for _, bike := range motorcycles {

		riders := 0

		for _, person := range persons {

			area := person.Area()

			if area == 0 {
				continue
			}

			if bike.Intersection(person)/area >= o.MinOverlap {
				riders++
			}
		}

		if riders > o.MaxRiders {
			flagged = append(flagged, bike)
		}
	}

	return flagged
}

// InRegions reports whether box overlaps any of the flagged regions
func InRegions(box detect.Box, regions []detect.Box) bool {
	for _, r := range regions {
		if box.Overlaps(r) || r.Contains(box) {
			return true
		}
	}
	return false
}

// Package zone restricts processing to a region of the frame and counts
// vehicles crossing a line.
package zone

import (
	"fmt"
	"math"

	clipper "github.com/ctessum/go.clipper"

	"github.com/swdee/go-trafficwatch/detect"
)

// DefaultMinOverlap is the share of a box that must fall in the region
const DefaultMinOverlap = 0.5

// clipScale converts float pixel coordinates to the integer grid used by
// the clipper
const clipScale = 100.0

// ROI is a polygon region of interest.  Vehicle detections mostly outside
// the region are discarded.  A nil ROI accepts everything
type ROI struct {
	points     []detect.Point
	polygon    clipper.Path
	minOverlap float64
}

// NewROI returns a region bounded by the polygon points
func NewROI(points []detect.Point, minOverlap float64) (*ROI, error) {

	if len(points) < 3 {
		return nil, fmt.Errorf("%w: region needs at least 3 points, got %d",
			detect.ErrInvalidGeometry, len(points))
	}

	if minOverlap <= 0 || minOverlap > 1 {
		return nil, fmt.Errorf("region min overlap %g must be within (0,1]", minOverlap)
	}

	polygon := toPath(points)

	if pathArea(polygon) == 0 {
		return nil, fmt.Errorf("%w: region has zero area", detect.ErrInvalidGeometry)
	}

	pts := make([]detect.Point, len(points))
	copy(pts, points)

	return &ROI{
		points:     pts,
		polygon:    polygon,
		minOverlap: minOverlap,
	}, nil
}

// Points returns the polygon points
func (r *ROI) Points() []detect.Point {
	if r == nil {
		return nil
	}
	return r.points
}

// Overlap returns the share of the box area inside the region
func (r *ROI) Overlap(box detect.Box) float64 {

	if r == nil {
		return 1
	}

	boxArea := box.Area()

	if boxArea == 0 {
		return 0
	}

	c := clipper.NewClipper(0)
	c.AddPath(r.polygon, clipper.PtSubject, true)
	c.AddPath(toPath([]detect.Point{
		{X: box.X1, Y: box.Y1},
		{X: box.X2, Y: box.Y1},
		{X: box.X2, Y: box.Y2},
		{X: box.X1, Y: box.Y2},
	}), clipper.PtClip, true)

	solution, ok := c.Execute1(clipper.CtIntersection, clipper.PftNonZero, clipper.PftNonZero)

	if !ok {
		return 0
	}

	inter := 0.0
	for _, path := range solution {
		inter += pathArea(path)
	}

	return math.Min(1, inter/boxArea)
}

// Accepts reports whether enough of the box lies in the region
func (r *ROI) Accepts(box detect.Box) bool {
	if r == nil {
		return true
	}
	return r.Overlap(box) >= r.minOverlap
}

// Filter drops vehicle detections outside the region.  Other classes pass
// through so rider analysis still sees every person
func (r *ROI) Filter(dets []detect.Detection) []detect.Detection {

	if r == nil {
		return dets
	}

	res := make([]detect.Detection, 0, len(dets))

	for _, det := range dets {
		if det.Class.IsVehicle() && !r.Accepts(det.Box) {
			continue
		}
		res = append(res, det)
	}

	return res
}

// toPath converts points to a clipper path on the scaled integer grid
func toPath(points []detect.Point) clipper.Path {

	path := make(clipper.Path, 0, len(points))

	for _, pt := range points {
		path = append(path, &clipper.IntPoint{
			X: clipper.CInt(math.Round(pt.X * clipScale)),
			Y: clipper.CInt(math.Round(pt.Y * clipScale)),
		})
	}

	return path
}

// pathArea returns the absolute area in pixels of a scaled path using the
// shoelace formula
func pathArea(path clipper.Path) float64 {

	if len(path) < 3 {
		return 0
	}

	sum := 0.0

	for i := range path {
		a := path[i]
		b := path[(i+1)%len(path)]
		sum += float64(a.X)*float64(b.Y) - float64(b.X)*float64(a.Y)
	}

	return math.Abs(sum) / 2 / (clipScale * clipScale)
}

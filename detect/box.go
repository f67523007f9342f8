package detect

import (
	"math"
)

// Point is an x,y pixel coordinate
type Point struct {
	X, Y float64
}

// Dist returns the euclidean distance in pixels between two points
func (p Point) Dist(other Point) float64 {
	return math.Hypot(other.X-p.X, other.Y-p.Y)
}

// Box is an axis aligned bounding box in pixel coordinates given by its
// top-left (X1,Y1) and bottom-right (X2,Y2) corners
type Box struct {
	X1, Y1, X2, Y2 float64
}

// NewBox creates a new Box from corner coordinates
func NewBox(x1, y1, x2, y2 float64) Box {
	return Box{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// BoxFromCenter creates a Box of the given width and height centered on c
func BoxFromCenter(c Point, width, height float64) Box {
	return Box{
		X1: c.X - width/2,
		Y1: c.Y - height/2,
		X2: c.X + width/2,
		Y2: c.Y + height/2,
	}
}

// Width returns the width of the box
func (b Box) Width() float64 {
	return b.X2 - b.X1
}

// Height returns the height of the box
func (b Box) Height() float64 {
	return b.Y2 - b.Y1
}

// Area returns the area of the box, zero for degenerate boxes
func (b Box) Area() float64 {
	if !b.Valid() {
		return 0
	}
	return b.Width() * b.Height()
}

// Center returns the center point of the box
func (b Box) Center() Point {
	return Point{
		X: (b.X1 + b.X2) / 2,
		Y: (b.Y1 + b.Y2) / 2,
	}
}

// Valid reports whether the box has finite coordinates and a positive area
func (b Box) Valid() bool {
	for _, v := range []float64{b.X1, b.Y1, b.X2, b.Y2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.X1 < b.X2 && b.Y1 < b.Y2
}

// Translate returns the box moved by dx,dy
func (b Box) Translate(dx, dy float64) Box {
	return Box{X1: b.X1 + dx, Y1: b.Y1 + dy, X2: b.X2 + dx, Y2: b.Y2 + dy}
}

// Clip restricts the box to the frame of the given width and height.  The
// result may be invalid if the box lies entirely outside the frame
func (b Box) Clip(width, height float64) Box {
	return Box{
		X1: math.Max(0, b.X1),
		Y1: math.Max(0, b.Y1),
		X2: math.Min(width, b.X2),
		Y2: math.Min(height, b.Y2),
	}
}

// Intersection returns the overlapping area of two boxes
func (b Box) Intersection(other Box) float64 {

	iw := math.Min(b.X2, other.X2) - math.Max(b.X1, other.X1)

	if iw <= 0 {
		return 0
	}

	ih := math.Min(b.Y2, other.Y2) - math.Max(b.Y1, other.Y1)

	if ih <= 0 {
		return 0
	}

	return iw * ih
}

// IoU calculates the Intersection over Union with another box
func (b Box) IoU(other Box) float64 {

	inter := b.Intersection(other)

	if inter == 0 {
		return 0
	}

	union := b.Area() + other.Area() - inter

	if union <= 0 {
		return 0
	}

	return inter / union
}

// Contains reports whether other lies entirely within the box
func (b Box) Contains(other Box) bool {
	return other.X1 >= b.X1 && other.X2 <= b.X2 &&
		other.Y1 >= b.Y1 && other.Y2 <= b.Y2
}

// Overlaps reports whether the two boxes share a nonzero area
func (b Box) Overlaps(other Box) bool {
	return b.Intersection(other) > 0
}

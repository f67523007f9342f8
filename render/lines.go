package render

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/swdee/go-trafficwatch/zone"
)

// LaneBoundary draws the horizontal lane boundary across the image
func LaneBoundary(img *gocv.Mat, y float64, lineThickness int) {
	gocv.Line(img, image.Pt(0, int(y)), image.Pt(img.Cols(), int(y)), Orange, lineThickness)
}

// CountLine draws the counting line, green when a vehicle was counted on
// this frame and red otherwise, with the running total in the top left
func CountLine(img *gocv.Mat, line zone.Line, total int, counted bool, font Font) {

	clr := Red
	if counted {
		clr = Green
	}

	gocv.Line(img, image.Pt(int(line.X1), int(line.Y1)),
		image.Pt(int(line.X2), int(line.Y2)), clr, 5)

	font.Scaled(3).Put(img, fmt.Sprintf("Count: %d", total), image.Pt(50, 50), clr)
}

// Region draws the outline of the region of interest
func Region(img *gocv.Mat, roi *zone.ROI, lineThickness int) {

	points := roi.Points()

	if len(points) < 3 {
		return
	}

	pts := make([]image.Point, len(points))
	for i, p := range points {
		pts[i] = image.Pt(int(p.X), int(p.Y))
	}

	pv := gocv.NewPointsVectorFromPoints([][]image.Point{pts})
	defer pv.Close()

	gocv.Polylines(img, pv, true, Yellow, lineThickness)
}

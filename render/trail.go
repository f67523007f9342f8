package render

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/swdee/go-trafficwatch/tracker"
)

// TrailStyle defines the parameters used for rendering the trail style
type TrailStyle struct {
	// LineSame defines if the color of the trail line should be the
	// same color as that of the bounding box.  If set to false then use
	// the color specified at LineColor
	LineSame      bool
	LineColor     color.RGBA
	LineThickness int
	// CircleSame defines if the color of the midpoint circle should be the
	// same color as that of the bounding box.  If set to false then use
	// the color specified at CircleColor
	CircleSame   bool
	CircleColor  color.RGBA
	CircleRadius int
}

// DefaultTrailStyle returns default trail style settings
func DefaultTrailStyle() TrailStyle {
	return TrailStyle{
		LineSame:      false,
		LineColor:     Yellow,
		LineThickness: 1,
		CircleSame:    true,
		CircleColor:   Pink,
		CircleRadius:  3,
	}
}

// Trail draws each track's center point history on the image
func Trail(img *gocv.Mat, tracks []*tracker.Track, trail *tracker.Trail, style TrailStyle) {

	for _, track := range tracks {

		objClr := trackColor(track)

		// determine style colors to use
		lineClr := objClr
		circleClr := objClr

		if !style.LineSame {
			lineClr = style.LineColor
		}

		if !style.CircleSame {
			circleClr = style.CircleColor
		}

		points := trail.GetPoints(track.GetTrackID())

		if len(points) < 2 {
			continue
		}

		for i := 1; i < len(points); i++ {
			gocv.Line(img,
				image.Pt(int(points[i-1].X), int(points[i-1].Y)),
				image.Pt(int(points[i].X), int(points[i].Y)),
				lineClr, style.LineThickness,
			)
		}

		// draw center point circle on current box
		last := points[len(points)-1]
		gocv.Circle(img, image.Pt(int(last.X), int(last.Y)), style.CircleRadius, circleClr, -1)
	}
}

package render

import (
	"gocv.io/x/gocv"

	"github.com/swdee/go-trafficwatch"
	"github.com/swdee/go-trafficwatch/tracker"
	"github.com/swdee/go-trafficwatch/zone"
)

// Scene is the engine state drawn over a frame.  Trail, ROI and Counter are
// optional
type Scene struct {
	Result  trafficwatch.FrameResult
	Trail   *tracker.Trail
	ROI     *zone.ROI
	Counter *zone.Counter
}

// Tracks draws the region of interest, lane boundary, counting line, trails,
// confirmed track boxes and plate boxes for a processed frame
func Tracks(img *gocv.Mat, scene Scene, font Font, style TrailStyle) {

	res := scene.Result

	if scene.ROI != nil {
		Region(img, scene.ROI, 2)
	}

	if res.LaneBoundary != nil {
		LaneBoundary(img, *res.LaneBoundary, 2)
	}

	if scene.Counter != nil {
		CountLine(img, scene.Counter.Line(), scene.Counter.Total(), len(res.Counted) > 0, font)
	}

	if scene.Trail != nil {
		Trail(img, res.Confirmed, scene.Trail, style)
	}

	TrackBoxes(img, res.Confirmed, font, 2)
	PlateBoxes(img, res.Plates, font, 1)
}

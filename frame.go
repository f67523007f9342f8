package trafficwatch

import (
	"time"

	"github.com/swdee/go-trafficwatch/detect"
	"github.com/swdee/go-trafficwatch/plate"
	"github.com/swdee/go-trafficwatch/record"
	"github.com/swdee/go-trafficwatch/tracker"
)

// Frame identifies one video frame handed to the collaborators
type Frame struct {
	// Number is the frame sequence number
	Number int64
	// Time is the wall clock capture time of the frame
	Time time.Time
	// Width and Height are the frame dimensions in pixels
	Width  int
	Height int
	// Image is the pixel payload, opaque to the Engine
	Image any
}

// FrameInput is a frame with its joined collaborator results
type FrameInput struct {
	Frame      Frame
	Detections []detect.Detection
	Plates     []plate.Reading
}

// TrackView is a confirmed track as exposed to visualization collaborators
type TrackView struct {
	ID          int        `json:"id"`
	Box         [4]float64 `json:"box"`
	VehicleType string     `json:"vehicle_type"`
	Speed       float64    `json:"speed"`
	Violations  []string   `json:"violations"`
	Plate       string     `json:"plate,omitempty"`
}

// NewTrackView returns the view of a track
func NewTrackView(t *tracker.Track) TrackView {

	box := t.GetBox()

	return TrackView{
		ID:          t.GetTrackID(),
		Box:         [4]float64{box.X1, box.Y1, box.X2, box.Y2},
		VehicleType: t.GetVehicleType(),
		Speed:       t.GetSpeed(),
		Violations:  t.GetViolations().Strings(),
		Plate:       t.GetPlate(),
	}
}

// FrameResult is the outcome of processing one frame
type FrameResult struct {
	// Number is the frame sequence number
	Number int64
	// Time is the time used for the frame's records
	Time time.Time
	// Tracks are the confirmed tracks after this frame
	Tracks []TrackView
	// Confirmed are the live confirmed tracks, valid until the next frame
	Confirmed []*tracker.Track
	// Plates are the plausible plate readings of this frame
	Plates []plate.Reading
	// Records are the plate records emitted this frame
	Records []record.Record
	// Counted are the track IDs counted at the counting line this frame
	Counted []int
	// LaneBoundary is the lane boundary y coordinate, if one is set
	LaneBoundary *float64
	// Errors are the collaborator failures the frame degraded around
	Errors []error
}

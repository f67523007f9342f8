package tracker

import (
	"github.com/swdee/go-trafficwatch/detect"
	"github.com/swdee/go-trafficwatch/violation"
)

// TrackState represents the lifecycle state of a track
type TrackState int

const (
	// Tentative tracks have not yet been matched enough consecutive times
	Tentative TrackState = 0
	// Confirmed tracks are eligible for speed, violation and plate logic
	Confirmed TrackState = 1
	// Lost tracks have missed too many updates and are removed
	Lost TrackState = 2
)

// String returns the name of the state
func (s TrackState) String() string {
	switch s {
	case Tentative:
		return "tentative"
	case Confirmed:
		return "confirmed"
	case Lost:
		return "lost"
	}
	return "unknown"
}

// Track represents the identity of one physical vehicle across frames
type Track struct {
	// motion is the constant velocity estimate of the box center
	motion *MotionModel
	// box is the current bounding box, either observed or predicted
	box detect.Box
	// state is the lifecycle state of the track
	state TrackState
	// trackID is the unique ID for the track
	trackID int
	// age is the number of frames since the track was created
	age int
	// hitStreak is the number of consecutive frames the track was matched
	hitStreak int
	// timeSinceUpdate is the number of frames since the last match
	timeSinceUpdate int
	// sinceObserved is the time in seconds since the last match
	sinceObserved float64
	// prevCenter is the center of the observation before the latest one
	prevCenter detect.Point
	// gap is the time in seconds between prevCenter and the latest
	// observation
	gap float64
	// hasPrev is set once the track has been matched after creation
	hasPrev bool
	// score is the detection score of the latest match
	score float64
	// detectionID is the ID of the latest matched detection
	detectionID int64
	// speed is the smoothed speed in km/h
	speed float64
	// vehicleType is the resolved class name of the vehicle
	vehicleType string
	// violations is the last known violation set
	violations violation.Set
	// plate is the plate text associated with the track
	plate string
}

// NewTrack creates a Tentative track from a detection with zero velocity
func NewTrack(trackID int, det detect.Detection, blend float64) *Track {
	return &Track{
		motion:      NewMotionModel(det.Box.Center(), blend),
		box:         det.Box,
		state:       Tentative,
		trackID:     trackID,
		age:         1,
		hitStreak:   1,
		score:       det.Score,
		detectionID: det.ID,
		vehicleType: detect.DefaultVehicleType,
	}
}

// GetTrackID returns the unique ID for the track
func (t *Track) GetTrackID() int {
	return t.trackID
}

// GetBox returns the current bounding box of the track
func (t *Track) GetBox() detect.Box {
	return t.box
}

// GetCenter returns the center of the current bounding box
func (t *Track) GetCenter() detect.Point {
	return t.box.Center()
}

// GetState returns the lifecycle state of the track
func (t *Track) GetState() TrackState {
	return t.state
}

// IsConfirmed returns whether the track has been confirmed
func (t *Track) IsConfirmed() bool {
	return t.state == Confirmed
}

// GetAge returns the number of frames since the track was created
func (t *Track) GetAge() int {
	return t.age
}

// GetHitStreak returns the number of consecutive frames matched
func (t *Track) GetHitStreak() int {
	return t.hitStreak
}

// GetTimeSinceUpdate returns the number of frames since the last match
func (t *Track) GetTimeSinceUpdate() int {
	return t.timeSinceUpdate
}

// GetScore returns the detection score of the latest match
func (t *Track) GetScore() float64 {
	return t.score
}

// GetDetectionID returns the ID of the latest matched detection
func (t *Track) GetDetectionID() int64 {
	return t.detectionID
}

// GetVelocity returns the estimated velocity in pixels per second
func (t *Track) GetVelocity() detect.Point {
	return t.motion.Velocity()
}

// GetSpeed returns the smoothed speed in km/h
func (t *Track) GetSpeed() float64 {
	return t.speed
}

// SetSpeed sets the smoothed speed in km/h
func (t *Track) SetSpeed(speed float64) {
	t.speed = speed
}

// GetVehicleType returns the resolved vehicle class name
func (t *Track) GetVehicleType() string {
	return t.vehicleType
}

// SetVehicleType sets the resolved vehicle class name
func (t *Track) SetVehicleType(vehicleType string) {
	t.vehicleType = vehicleType
}

// GetViolations returns the last known violation set
func (t *Track) GetViolations() violation.Set {
	return t.violations
}

// SetViolations replaces the last known violation set
func (t *Track) SetViolations(v violation.Set) {
	t.violations = v
}

// GetPlate returns the plate text associated with the track
func (t *Track) GetPlate() string {
	return t.plate
}

// SetPlate associates plate text with the track
func (t *Track) SetPlate(plate string) {
	t.plate = plate
}

// Displacement returns the center of the previous observation, the center of
// the current one and the seconds between them.  ok is false unless the track
// was matched this frame and has an earlier observation to compare with
func (t *Track) Displacement() (prev, curr detect.Point, dt float64, ok bool) {

	if !t.hasPrev || t.timeSinceUpdate != 0 {
		return detect.Point{}, detect.Point{}, 0, false
	}

	return t.prevCenter, t.motion.Observed(), t.gap, true
}

// Predict advances the track by dt seconds without an observation
func (t *Track) Predict(dt float64) {

	// a missed frame breaks the streak
	if t.timeSinceUpdate > 0 {
		t.hitStreak = 0
	}

	t.motion.Predict(dt)
	t.box = detect.BoxFromCenter(t.motion.Position(), t.box.Width(), t.box.Height())

	t.age++
	t.timeSinceUpdate++
	t.sinceObserved += dt
}

// Update corrects the track with a matched detection, confirming the track
// once its hit streak reaches minHits
func (t *Track) Update(det detect.Detection, minHits int) {

	t.prevCenter = t.motion.Observed()
	t.gap = t.sinceObserved
	t.hasPrev = true

	t.motion.Update(det.Box.Center(), t.sinceObserved)
	t.box = det.Box

	t.score = det.Score
	t.detectionID = det.ID
	t.timeSinceUpdate = 0
	t.sinceObserved = 0
	t.hitStreak++

	t.promote(minHits)
}

// promote confirms a tentative track once its hit streak reaches minHits
func (t *Track) promote(minHits int) {
	if t.state == Tentative && t.hitStreak >= minHits {
		t.state = Confirmed
	}
}

// MarkAsLost marks the track as lost
func (t *Track) MarkAsLost() {
	t.state = Lost
}

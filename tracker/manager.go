package tracker

import (
	"errors"
	"fmt"

	"github.com/swdee/go-trafficwatch/detect"
)

// Config holds the Track Manager parameters
type Config struct {
	// MaxAge is the number of consecutive missed frames tolerated before a
	// track is lost
	MaxAge int
	// MinHits is the consecutive matches needed to confirm a track
	MinHits int
	// IoUThreshold is the IoU a track and detection must exceed to match
	IoUThreshold float64
	// VelocityBlend is the weight given to a new velocity measurement
	VelocityBlend float64
}

// DefaultConfig returns the default tracker parameters
func DefaultConfig() Config {
	return Config{
		MaxAge:        1,
		MinHits:       3,
		IoUThreshold:  0.3,
		VelocityBlend: 0.6,
	}
}

// Validate checks the parameters are usable
func (c Config) Validate() error {

	if c.MaxAge < 0 {
		return errors.New("max age must not be negative")
	}

	if c.MinHits < 1 {
		return errors.New("min hits must be at least 1")
	}

	if c.IoUThreshold <= 0 || c.IoUThreshold >= 1 {
		return fmt.Errorf("iou threshold %g must be within (0,1)", c.IoUThreshold)
	}

	if c.VelocityBlend < 0.5 || c.VelocityBlend > 1 {
		return fmt.Errorf("velocity blend %g must be within [0.5,1]", c.VelocityBlend)
	}

	return nil
}

// Manager owns the live tracks and runs the per frame track update
type Manager struct {
	cfg Config
	// Current frame ID
	frameID int
	// Counter for assigning unique track IDs
	trackIDCount int
	// tracks are the live tracks in ascending track ID order
	tracks []*Track
}

// NewManager returns a Manager with no tracks
func NewManager(cfg Config) (*Manager, error) {

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tracker config: %w", err)
	}

	return &Manager{cfg: cfg}, nil
}

// Reset removes all tracks.  Track IDs continue from where they were so an ID
// is never reused
func (m *Manager) Reset() {
	m.frameID = 0
	m.tracks = nil
}

// FrameID returns the number of frames processed
func (m *Manager) FrameID() int {
	return m.frameID
}

// Tracks returns all live tracks, tentative and confirmed
func (m *Manager) Tracks() []*Track {
	res := make([]*Track, len(m.tracks))
	copy(res, m.tracks)
	return res
}

// Confirmed returns the live confirmed tracks
func (m *Manager) Confirmed() []*Track {

	var res []*Track

	for _, track := range m.tracks {
		if track.IsConfirmed() {
			res = append(res, track)
		}
	}

	return res
}

// Update advances the tracker by one frame given the frame's detections and
// the seconds elapsed since the previous frame.  Non vehicle and malformed
// detections are ignored.  It returns the confirmed tracks.  An error is only
// returned if assignment failed, in which case the frame is treated as having
// no detections and the tracks are aged
func (m *Manager) Update(dets []detect.Detection, dt float64) ([]*Track, error) {

	m.frameID++

	// Step 1: predict all tracks forward
	for _, track := range m.tracks {
		track.Predict(dt)
	}

	// Step 2: associate vehicle detections with the predicted boxes
	vehicles := detect.Vehicles(dets)

	trackBoxes := make([]detect.Box, len(m.tracks))
	for i, track := range m.tracks {
		trackBoxes[i] = track.GetBox()
	}

	detBoxes := make([]detect.Box, len(vehicles))
	for i, det := range vehicles {
		detBoxes[i] = det.Box
	}

	assignment, assignErr := Assign(trackBoxes, detBoxes, m.cfg.IoUThreshold)

	if assignErr != nil {
		assignment = unmatchedAll(len(m.tracks), 0)
		vehicles = nil
	}

	// Step 3: update matched tracks
	for _, match := range assignment.Matches {
		track := m.tracks[match.Track]
		track.Update(vehicles[match.Detection], m.cfg.MinHits)
		track.SetVehicleType(ResolveVehicleType(track.GetBox(), vehicles))
	}

	// Step 4: create tentative tracks for unmatched detections
	for _, detIdx := range assignment.UnmatchedDetections {
		m.trackIDCount++
		track := NewTrack(m.trackIDCount, vehicles[detIdx], m.cfg.VelocityBlend)
		track.promote(m.cfg.MinHits)
		track.SetVehicleType(ResolveVehicleType(track.GetBox(), vehicles))
		m.tracks = append(m.tracks, track)
	}

	// Step 5: unmatched tracks keep their predicted state

	// Step 6: remove lost tracks
	live := m.tracks[:0]

	for _, track := range m.tracks {
		if track.GetTimeSinceUpdate() > m.cfg.MaxAge {
			track.MarkAsLost()
			continue
		}
		live = append(live, track)
	}

	// clear removed entries so they can be collected
	for i := len(live); i < len(m.tracks); i++ {
		m.tracks[i] = nil
	}

	m.tracks = live

	// Step 7: output confirmed tracks
	if assignErr != nil {
		return m.Confirmed(), fmt.Errorf("frame %d: %w", m.frameID, assignErr)
	}

	return m.Confirmed(), nil
}

// ResolveVehicleType returns the class name of the detection with the best
// IoU against box, or DefaultVehicleType if none overlap
func ResolveVehicleType(box detect.Box, dets []detect.Detection) string {

	vehicleType := detect.DefaultVehicleType
	bestIoU := 0.0

	for _, det := range dets {
		if iou := box.IoU(det.Box); iou > bestIoU {
			bestIoU = iou
			vehicleType = det.Class.String()
		}
	}

	return vehicleType
}

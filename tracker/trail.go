package tracker

import (
	"sync"

	"github.com/swdee/go-trafficwatch/detect"
)

// Trail is the struct to keep a history of track center points used for
// drawing a trail
type Trail struct {
	// size is the maximum number of most recent points to keep in history
	size int
	// history of tracked points keyed by track ID
	history map[int][]detect.Point
	sync.Mutex
}

// NewTrail returns a new trail history instance.  Size is the maximum length
// of the trail to maintain per track
func NewTrail(size int) *Trail {
	return &Trail{
		size:    size,
		history: make(map[int][]detect.Point),
	}
}

// Reset clears all history
func (t *Trail) Reset() {
	t.Lock()
	defer t.Unlock()

	t.history = make(map[int][]detect.Point)
}

// Add appends the track's current center point to its history
func (t *Trail) Add(track *Track) {
	t.Lock()
	defer t.Unlock()

	id := track.GetTrackID()
	points := append(t.history[id], track.GetCenter())

	// check if history is exceeded and drop oldest point
	if len(points) > t.size {
		points = points[len(points)-t.size:]
	}

	t.history[id] = points
}

// GetPoints gets a copy of the point history for a specific track id
func (t *Trail) GetPoints(id int) []detect.Point {
	t.Lock()
	defer t.Unlock()

	points, exists := t.history[id]

	if !exists {
		// no history yet
		return nil
	}

	res := make([]detect.Point, len(points))
	copy(res, points)
	return res
}

// Prune drops the history of every track not in the live set
func (t *Trail) Prune(live []*Track) {
	t.Lock()
	defer t.Unlock()

	keep := make(map[int]struct{}, len(live))
	for _, track := range live {
		keep[track.GetTrackID()] = struct{}{}
	}

	for id := range t.history {
		if _, ok := keep[id]; !ok {
			delete(t.history, id)
		}
	}
}

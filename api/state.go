package api

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/swdee/go-trafficwatch"
	"github.com/swdee/go-trafficwatch/zone"
)

// Counts is the counting line snapshot
type Counts struct {
	Total  int            `json:"total"`
	ByType map[string]int `json:"by_type"`
}

// Snapshot is the latest processed frame as served by the API
type Snapshot struct {
	RunID        string                   `json:"run_id"`
	Frame        int64                    `json:"frame"`
	Time         time.Time                `json:"time"`
	Tracks       []trafficwatch.TrackView `json:"tracks"`
	LaneBoundary *float64                 `json:"lane_boundary,omitempty"`
	Counts       Counts                   `json:"counts"`
}

// State holds the snapshot of the latest frame.  The engine loop is the only
// writer, HTTP handlers read copies
type State struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewState returns an empty State for the run
func NewState(runID uuid.UUID) *State {
	return &State{
		snap: Snapshot{
			RunID:  runID.String(),
			Tracks: []trafficwatch.TrackView{},
			Counts: Counts{ByType: map[string]int{}},
		},
	}
}

// Update replaces the snapshot with the frame result.  counter may be nil
// when no counting line is configured
func (s *State) Update(res trafficwatch.FrameResult, counter *zone.Counter) {

	tracks := make([]trafficwatch.TrackView, len(res.Tracks))
	copy(tracks, res.Tracks)

	counts := Counts{ByType: map[string]int{}}

	if counter != nil {
		counts.Total = counter.Total()
		counts.ByType = counter.Counts()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.Frame = res.Number
	s.snap.Time = res.Time
	s.snap.Tracks = tracks
	s.snap.LaneBoundary = res.LaneBoundary
	s.snap.Counts = counts
}

// Snapshot returns a copy of the latest snapshot
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snap
	snap.Tracks = make([]trafficwatch.TrackView, len(s.snap.Tracks))
	copy(snap.Tracks, s.snap.Tracks)

	snap.Counts.ByType = make(map[string]int, len(s.snap.Counts.ByType))
	for k, v := range s.snap.Counts.ByType {
		snap.Counts.ByType[k] = v
	}

	return snap
}

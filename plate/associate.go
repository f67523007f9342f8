package plate

import (
	"time"

	"github.com/swdee/go-trafficwatch/detect"
	"github.com/swdee/go-trafficwatch/tracker"
)

// Outcome is the result of passing a plate reading through association
type Outcome int

const (
	// Suppressed readings repeat a plate accepted within the cooldown
	Suppressed Outcome = iota
	// Emitted readings are new sightings to be recorded
	Emitted
	// Enriched readings add track data to a plate first recorded without a
	// track within the cooldown
	Enriched
)

// String returns the name of the outcome
func (o Outcome) String() string {
	switch o {
	case Suppressed:
		return "suppressed"
	case Emitted:
		return "emitted"
	case Enriched:
		return "enriched"
	}
	return "unknown"
}

// Association pairs a plate reading with the track it was found on.  Track
// is nil when no track overlaps the plate
type Association struct {
	Reading Reading
	Track   *tracker.Track
	Outcome Outcome
}

// Associator matches plate readings to tracks and applies the dedup cooldown
type Associator struct {
	cache *DedupCache
	// pending holds the accept time of plates recorded without a track
	pending map[string]time.Time
}

// NewAssociator returns an Associator using the given dedup cache
func NewAssociator(cache *DedupCache) *Associator {
	return &Associator{
		cache:   cache,
		pending: make(map[string]time.Time),
	}
}

// Associate processes one frame of normalized plate readings against the
// frame's confirmed tracks in ascending ID order.  Associated tracks have
// the plate text set on them.  Readings are returned in input order with
// their outcome
func (a *Associator) Associate(readings []Reading, tracks []*tracker.Track, now time.Time) []Association {

	a.evictPending(now)

	res := make([]Association, 0, len(readings))

	for _, r := range readings {

		track := Locate(r.Box, tracks)
		outcome := Suppressed

		if a.cache.Allow(r.Text, now) {
			outcome = Emitted

			if track == nil {
				a.pending[r.Text] = now
			} else {
				delete(a.pending, r.Text)
			}

		} else if _, ok := a.pending[r.Text]; ok && track != nil {
			// enrichment bypasses the cache and is emitted once
			outcome = Enriched
			delete(a.pending, r.Text)
		}

		if track != nil {
			track.SetPlate(r.Text)
		}

		res = append(res, Association{
			Reading: r,
			Track:   track,
			Outcome: outcome,
		})
	}

	return res
}

// Reset clears the pending enrichment state
func (a *Associator) Reset() {
	a.pending = make(map[string]time.Time)
}

// evictPending drops plates recorded without a track that are past the
// cooldown
func (a *Associator) evictPending(now time.Time) {
	for text, at := range a.pending {
		if now.Sub(at) >= a.cache.Cooldown() {
			delete(a.pending, text)
		}
	}
}

// Locate returns the track holding the plate box.  A track whose box contains
// the plate wins, otherwise the track with the largest overlap.  Ties go to
// the earlier track.  Nil is returned when no track overlaps
func Locate(plateBox detect.Box, tracks []*tracker.Track) *tracker.Track {

	for _, track := range tracks {
		if track.GetBox().Contains(plateBox) {
			return track
		}
	}

	var best *tracker.Track
	bestArea := 0.0

	for _, track := range tracks {
		if area := track.GetBox().Intersection(plateBox); area > bestArea {
			bestArea = area
			best = track
		}
	}

	return best
}

package tracker

import (
	"fmt"
	"math"

	"github.com/swdee/go-trafficwatch/detect"
)

const (
	// unmatchedCost is the cost of leaving a track or a detection without a
	// partner.  A pair costs 1-IoU so pairing beats leaving both unmatched
	// for any positive IoU, making the solver maximize the total IoU
	unmatchedCost = 0.5
	// forbiddenCost is the cost of a pair whose IoU does not exceed the
	// threshold, it is always dearer than leaving both unmatched
	forbiddenCost = 2.0
	// tieTolerance is the largest IoU total difference treated as a tie
	tieTolerance = 1e-12
)

// Match is a track index and detection index pair
type Match struct {
	Track     int
	Detection int
	IoU       float64
}

// Assignment is the result of matching tracks to detections
type Assignment struct {
	Matches             []Match
	UnmatchedTracks     []int
	UnmatchedDetections []int
}

// unmatchedAll returns an Assignment with nothing matched
func unmatchedAll(nTracks, nDets int) Assignment {

	var a Assignment

	for i := 0; i < nTracks; i++ {
		a.UnmatchedTracks = append(a.UnmatchedTracks, i)
	}

	for j := 0; j < nDets; j++ {
		a.UnmatchedDetections = append(a.UnmatchedDetections, j)
	}

	return a
}

// CalcIous calculates the IoU between every pair of boxes in two sets
func CalcIous(aBoxes, bBoxes []detect.Box) [][]float64 {

	ious := make([][]float64, len(aBoxes))

	for ai := range aBoxes {
		ious[ai] = make([]float64, len(bBoxes))

		for bi := range bBoxes {
			ious[ai][bi] = aBoxes[ai].IoU(bBoxes[bi])
		}
	}

	return ious
}

// Assign pairs track boxes to detection boxes one-to-one maximizing the total
// IoU.  Only pairs with an IoU strictly above threshold are eligible.  Tracks
// should be given in ascending track ID order so that ties favour the lower
// track ID, then the earlier detection.  The result depends only on the inputs
func Assign(tracks, dets []detect.Box, threshold float64) (Assignment, error) {

	nRows := len(tracks)
	nCols := len(dets)

	if nRows == 0 || nCols == 0 {
		return unmatchedAll(nRows, nCols), nil
	}

	ious := CalcIous(tracks, dets)

	// extend the cost matrix with a dummy column per track and a dummy row
	// per detection so either side may stay unmatched
	n := nRows + nCols

	cost := make([][]float64, n)

	for i := range cost {
		cost[i] = make([]float64, n)

		for j := range cost[i] {

			switch {
			case i < nRows && j < nCols:
				if ious[i][j] > threshold {
					cost[i][j] = 1 - ious[i][j]
				} else {
					cost[i][j] = forbiddenCost
				}

			case i >= nRows && j >= nCols:
				cost[i][j] = 0

			default:
				cost[i][j] = unmatchedCost
			}
		}
	}

	x, _, err := solveLAP(cost)

	if err != nil {
		return unmatchedAll(nRows, nCols), fmt.Errorf("error solving assignment: %w", err)
	}

	// trackDet and detTrack hold the eligible matches, -1 for unmatched
	trackDet := make([]int, nRows)
	detTrack := make([]int, nCols)

	for j := range detTrack {
		detTrack[j] = -1
	}

	for i := 0; i < nRows; i++ {
		trackDet[i] = -1

		if j := x[i]; j >= 0 && j < nCols && ious[i][j] > threshold {
			trackDet[i] = j
			detTrack[j] = i
		}
	}

	settleTies(trackDet, detTrack, ious, threshold)

	var a Assignment

	for i, j := range trackDet {
		if j >= 0 {
			a.Matches = append(a.Matches, Match{Track: i, Detection: j, IoU: ious[i][j]})
		} else {
			a.UnmatchedTracks = append(a.UnmatchedTracks, i)
		}
	}

	for j, i := range detTrack {
		if i < 0 {
			a.UnmatchedDetections = append(a.UnmatchedDetections, j)
		}
	}

	return a, nil
}

// settleTies moves an optimal assignment, among equal total IoU
// alternatives, towards giving each track in index order the earliest
// detection.  Three exchanges keep the total IoU and are applied until none
// remains: two matched tracks swapping detections, a detection moving to a
// lower unmatched track, and a track moving to an earlier unmatched
// detection.  Each one lowers the detection of the first track it changes,
// so the loop ends
func settleTies(trackDet, detTrack []int, ious [][]float64, threshold float64) {

	eligible := func(i, j int) bool {
		return ious[i][j] > threshold
	}

	same := func(a, b float64) bool {
		return math.Abs(a-b) <= tieTolerance
	}

	for changed := true; changed; {
		changed = false

		for i1 := range trackDet {
			j1 := trackDet[i1]

			// unmatched tracks only change through exchanges of matched ones
			if j1 < 0 {
				continue
			}

			for i2 := i1 + 1; i2 < len(trackDet) && !changed; i2++ {
				j2 := trackDet[i2]

				if j2 >= 0 && j2 < j1 && eligible(i1, j2) && eligible(i2, j1) &&
					same(ious[i1][j2]+ious[i2][j1], ious[i1][j1]+ious[i2][j2]) {
					trackDet[i1], trackDet[i2] = j2, j1
					detTrack[j1], detTrack[j2] = i2, i1
					changed = true
				}
			}

			for i0 := 0; i0 < i1 && !changed; i0++ {
				if trackDet[i0] < 0 && eligible(i0, j1) && same(ious[i0][j1], ious[i1][j1]) {
					trackDet[i0], trackDet[i1] = j1, -1
					detTrack[j1] = i0
					changed = true
				}
			}

			for j0 := 0; j0 < j1 && !changed; j0++ {
				if detTrack[j0] < 0 && eligible(i1, j0) && same(ious[i1][j0], ious[i1][j1]) {
					trackDet[i1] = j0
					detTrack[j0], detTrack[j1] = i1, -1
					changed = true
				}
			}

			if changed {
				break
			}
		}
	}
}

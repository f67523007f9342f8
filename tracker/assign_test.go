package tracker

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swdee/go-trafficwatch/detect"
)

func TestAssignEmpty(t *testing.T) {

	a, err := Assign(nil, nil, 0.3)
	require.NoError(t, err)
	assert.Empty(t, a.Matches)

	a, err = Assign([]detect.Box{detect.NewBox(0, 0, 10, 10)}, nil, 0.3)
	require.NoError(t, err)
	assert.Empty(t, a.Matches)
	assert.Equal(t, []int{0}, a.UnmatchedTracks)

	a, err = Assign(nil, []detect.Box{detect.NewBox(0, 0, 10, 10), detect.NewBox(5, 5, 9, 9)}, 0.3)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, a.UnmatchedDetections)
}

func TestAssignBelowThresholdNeverMatches(t *testing.T) {

	tracks := []detect.Box{detect.NewBox(0, 0, 100, 100)}
	// IoU of 2500/17500, about 0.14
	dets := []detect.Box{detect.NewBox(50, 50, 150, 150)}

	a, err := Assign(tracks, dets, 0.3)
	require.NoError(t, err)

	assert.Empty(t, a.Matches)
	assert.Equal(t, []int{0}, a.UnmatchedTracks)
	assert.Equal(t, []int{0}, a.UnmatchedDetections)
}

func TestAssignMaximizesTotalIoU(t *testing.T) {

	// both tracks overlap both detections.  greedy matching of track 0 to
	// its best detection would leave track 1 with its weakest pair
	tracks := []detect.Box{
		detect.NewBox(0, 0, 100, 100),
		detect.NewBox(10, 0, 110, 100),
	}
	dets := []detect.Box{
		detect.NewBox(5, 0, 105, 100),
		detect.NewBox(-40, 0, 60, 100),
	}

	a, err := Assign(tracks, dets, 0.3)
	require.NoError(t, err)

	want := []Match{
		{Track: 0, Detection: 1, IoU: tracks[0].IoU(dets[1])},
		{Track: 1, Detection: 0, IoU: tracks[1].IoU(dets[0])},
	}

	if diff := cmp.Diff(want, a.Matches); diff != "" {
		t.Errorf("matches mismatch (-want +got):\n%s", diff)
	}

	assert.Empty(t, a.UnmatchedTracks)
	assert.Empty(t, a.UnmatchedDetections)
}

func TestAssignOneToOne(t *testing.T) {

	tracks := []detect.Box{
		detect.NewBox(0, 0, 100, 100),
		detect.NewBox(2, 2, 102, 102),
		detect.NewBox(300, 300, 400, 400),
	}
	dets := []detect.Box{
		detect.NewBox(1, 1, 101, 101),
		detect.NewBox(500, 500, 600, 600),
	}

	a, err := Assign(tracks, dets, 0.3)
	require.NoError(t, err)

	seenTracks := map[int]bool{}
	seenDets := map[int]bool{}

	for _, m := range a.Matches {
		assert.False(t, seenTracks[m.Track], "track %d matched twice", m.Track)
		assert.False(t, seenDets[m.Detection], "detection %d matched twice", m.Detection)
		seenTracks[m.Track] = true
		seenDets[m.Detection] = true
	}

	require.Len(t, a.Matches, 1)
	assert.Equal(t, 0, a.Matches[0].Detection)
	assert.Len(t, a.UnmatchedTracks, 2)
	assert.Equal(t, []int{1}, a.UnmatchedDetections)
}

func TestAssignTieFavoursLowerTrack(t *testing.T) {

	// both tracks are identical so the detection goes to the first one
	tracks := []detect.Box{
		detect.NewBox(0, 0, 100, 100),
		detect.NewBox(0, 0, 100, 100),
	}
	dets := []detect.Box{detect.NewBox(10, 0, 110, 100)}

	a, err := Assign(tracks, dets, 0.3)
	require.NoError(t, err)

	require.Len(t, a.Matches, 1)
	assert.Equal(t, 0, a.Matches[0].Track)
	assert.Equal(t, []int{1}, a.UnmatchedTracks)
}

func TestAssignTieOrdersByTrackThenDetection(t *testing.T) {

	box := detect.NewBox(0, 0, 100, 100)

	tests := []struct {
		name   string
		tracks int
		dets   int
		want   []Match
	}{
		{name: "square", tracks: 3, dets: 3,
			want: []Match{{0, 0, 1}, {1, 1, 1}, {2, 2, 1}}},
		{name: "more detections", tracks: 2, dets: 4,
			want: []Match{{0, 0, 1}, {1, 1, 1}}},
		{name: "more tracks", tracks: 4, dets: 2,
			want: []Match{{0, 0, 1}, {1, 1, 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracks := make([]detect.Box, tt.tracks)
			dets := make([]detect.Box, tt.dets)

			for i := range tracks {
				tracks[i] = box
			}
			for j := range dets {
				dets[j] = box
			}

			a, err := Assign(tracks, dets, 0.3)
			require.NoError(t, err)

			if diff := cmp.Diff(tt.want, a.Matches); diff != "" {
				t.Errorf("matches mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAssignTieKeepsTotalIoU(t *testing.T) {

	// both tracks overlap both detections equally, the unequal pair decides
	tracks := []detect.Box{
		detect.NewBox(0, 0, 100, 100),
		detect.NewBox(0, 0, 100, 100),
		detect.NewBox(300, 0, 400, 100),
	}
	dets := []detect.Box{
		detect.NewBox(300, 0, 400, 100),
		detect.NewBox(10, 0, 110, 100),
		detect.NewBox(10, 0, 110, 100),
	}

	a, err := Assign(tracks, dets, 0.3)
	require.NoError(t, err)

	require.Len(t, a.Matches, 3)
	assert.Equal(t, Match{Track: 0, Detection: 1, IoU: a.Matches[0].IoU}, a.Matches[0])
	assert.Equal(t, 2, a.Matches[1].Detection)
	assert.Equal(t, Match{Track: 2, Detection: 0, IoU: 1}, a.Matches[2])
}

func TestAssignDeterministic(t *testing.T) {

	tracks := []detect.Box{
		detect.NewBox(0, 0, 50, 50),
		detect.NewBox(40, 0, 90, 50),
		detect.NewBox(80, 0, 130, 50),
	}
	dets := []detect.Box{
		detect.NewBox(85, 0, 135, 50),
		detect.NewBox(2, 0, 52, 50),
		detect.NewBox(44, 0, 94, 50),
	}

	first, err := Assign(tracks, dets, 0.3)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := Assign(tracks, dets, 0.3)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	require.Len(t, first.Matches, 3)
	assert.Equal(t, 1, first.Matches[0].Detection)
	assert.Equal(t, 2, first.Matches[1].Detection)
	assert.Equal(t, 0, first.Matches[2].Detection)
}

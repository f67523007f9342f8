package source

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swdee/go-trafficwatch"
	"github.com/swdee/go-trafficwatch/detect"
)

const testReplay = `{"frame":1,"time":1700000000.5,"height":720,"width":1280,"detections":[{"box":[100,100,200,200],"score":0.9,"class":"car"},{"box":[120,80,150,180],"score":0.7,"class":"person"}],"plates":[{"box":[140,170,180,190],"text":"ab 1234","confidence":0.8}]}
not json

{"frame":2,"time":1700000000.6,"height":720,"width":1280,"detections":[{"box":[110,100,210,200],"score":0.9,"class":"motorbike"}]}
`

func TestReplayFrames(t *testing.T) {

	r := NewReplay(strings.NewReader(testReplay), zerolog.Nop())
	ctx := context.Background()

	frame, err := r.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), frame.Number)
	assert.Equal(t, 720, frame.Height)
	assert.Equal(t, time.Unix(1700000000, 500000000), frame.Time)

	dets, err := r.Detect(ctx, frame)
	require.NoError(t, err)
	require.Len(t, dets, 2)
	assert.Equal(t, detect.NewBox(100, 100, 200, 200), dets[0].Box)
	assert.Equal(t, detect.Car, dets[0].Class)
	assert.Equal(t, detect.Person, dets[1].Class)
	assert.NotZero(t, dets[0].ID)

	plates, err := r.ReadPlates(ctx, frame)
	require.NoError(t, err)
	require.Len(t, plates, 1)
	assert.Equal(t, "ab 1234", plates[0].Text)

	// malformed and empty lines are skipped
	frame, err = r.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), frame.Number)

	dets, err = r.Detect(ctx, frame)
	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.Equal(t, detect.Motorcycle, dets[0].Class)

	plates, err = r.ReadPlates(ctx, frame)
	require.NoError(t, err)
	assert.Empty(t, plates)

	_, err = r.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReplayFrameMismatch(t *testing.T) {

	r := NewReplay(strings.NewReader(testReplay), zerolog.Nop())

	_, err := r.Detect(context.Background(), trafficwatch.Frame{Number: 1})
	assert.True(t, errors.Is(err, ErrFrameMismatch))

	_, err = r.Next(context.Background())
	require.NoError(t, err)

	_, err = r.ReadPlates(context.Background(), trafficwatch.Frame{Number: 5})
	assert.ErrorIs(t, err, ErrFrameMismatch)
}

func TestReplayClassDetector(t *testing.T) {

	r := NewReplay(strings.NewReader(testReplay), zerolog.Nop())
	ctx := context.Background()

	frame, err := r.Next(ctx)
	require.NoError(t, err)

	persons := r.ClassDetector("persons", detect.Person)
	dets, err := persons.Detect(ctx, frame)
	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.Equal(t, detect.Person, dets[0].Class)
}

func TestReplayDrivesEngine(t *testing.T) {

	r := NewReplay(strings.NewReader(testReplay), zerolog.Nop())
	ctx := context.Background()

	cfg := trafficwatch.DefaultConfig()
	cfg.Tracker.MinHits = 1

	e, err := trafficwatch.NewEngine(cfg, trafficwatch.Collaborators{
		Log:         zerolog.Nop(),
		Detectors:   []trafficwatch.Detector{r},
		PlateReader: r,
	})
	require.NoError(t, err)

	frame, err := r.Next(ctx)
	require.NoError(t, err)

	res := e.ProcessFrame(ctx, frame)
	assert.Empty(t, res.Errors)
	require.Len(t, res.Tracks, 1)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "AB1234", res.Records[0].Plate)
	assert.Equal(t, "Car", res.Records[0].VehicleType)

	frame, err = r.Next(ctx)
	require.NoError(t, err)

	res = e.ProcessFrame(ctx, frame)
	require.Len(t, res.Tracks, 1)
	assert.Equal(t, "Motorcycle", res.Tracks[0].VehicleType)
	assert.InDelta(t, 36.0, res.Tracks[0].Speed, 0.01)
}

func TestReplayClassIDs(t *testing.T) {

	const line = `{"frame":7,"detections":[{"box":[0,0,10,10],"score":0.5,"class_id":2},{"box":[0,0,10,10],"score":0.5,"class_id":1}]}`
	ctx := context.Background()

	// COCO ids without labels
	r := NewReplay(strings.NewReader(line), zerolog.Nop())
	frame, err := r.Next(ctx)
	require.NoError(t, err)

	dets, err := r.Detect(ctx, frame)
	require.NoError(t, err)
	require.Len(t, dets, 2)
	assert.Equal(t, detect.Car, dets[0].Class)
	assert.Equal(t, detect.Unknown, dets[1].Class)

	// model labels
	r = NewReplay(strings.NewReader(line), zerolog.Nop())
	r.SetLabels(detect.NewLabelMap([]string{"person", "truck", "bus"}))

	frame, err = r.Next(ctx)
	require.NoError(t, err)

	dets, err = r.Detect(ctx, frame)
	require.NoError(t, err)
	assert.Equal(t, detect.Bus, dets[0].Class)
	assert.Equal(t, detect.Truck, dets[1].Class)
}

package zone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swdee/go-trafficwatch/detect"
	"github.com/swdee/go-trafficwatch/tracker"
)

func trackAt(id int, cx, cy float64, vehicleType string) *tracker.Track {
	det := detect.Detection{
		Box:   detect.BoxFromCenter(detect.Point{X: cx, Y: cy}, 40, 40),
		Score: 0.9,
		Class: detect.Car,
	}
	track := tracker.NewTrack(id, det, 0.6)
	track.SetVehicleType(vehicleType)
	return track
}

func TestCounterCountsOnce(t *testing.T) {

	c, err := NewCounter(Line{X1: 400, Y1: 297, X2: 673, Y2: 297}, DefaultBand)
	require.NoError(t, err)

	ids := c.Observe([]*tracker.Track{
		trackAt(1, 500, 290, "Car"),
		trackAt(2, 500, 250, "Car"),
		trackAt(3, 700, 297, "Bus"),
		trackAt(4, 600, 305, "Truck"),
	})
	assert.Equal(t, []int{1, 4}, ids)

	// track 1 again and track 2 now on the line
	ids = c.Observe([]*tracker.Track{
		trackAt(1, 510, 297, "Car"),
		trackAt(2, 505, 300, "Car"),
	})
	assert.Equal(t, []int{2}, ids)

	assert.Equal(t, 3, c.Total())
	assert.Equal(t, map[string]int{"Car": 2, "Truck": 1}, c.Counts())
	assert.Equal(t, []int{1, 2, 4}, c.CountedIDs())

	c.Reset()
	assert.Equal(t, 0, c.Total())
}

func TestNewCounterInvalid(t *testing.T) {

	_, err := NewCounter(Line{X1: 10, Y1: 0, X2: 10, Y2: 100}, DefaultBand)
	assert.ErrorIs(t, err, detect.ErrInvalidGeometry)

	_, err = NewCounter(Line{X1: 0, Y1: 0, X2: 10, Y2: 0}, 0)
	assert.Error(t, err)
}

func TestLineYAt(t *testing.T) {
	l := Line{X1: 0, Y1: 100, X2: 100, Y2: 200}
	assert.InDelta(t, 150.0, l.YAt(50), 1e-9)
}

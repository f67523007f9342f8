package zone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swdee/go-trafficwatch/detect"
)

func squareROI(t *testing.T) *ROI {
	roi, err := NewROI([]detect.Point{
		{X: 0, Y: 0}, {X: 200, Y: 0}, {X: 200, Y: 200}, {X: 0, Y: 200},
	}, DefaultMinOverlap)
	require.NoError(t, err)
	return roi
}

func TestNewROIInvalid(t *testing.T) {

	_, err := NewROI([]detect.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}, 0.5)
	assert.ErrorIs(t, err, detect.ErrInvalidGeometry)

	_, err = NewROI([]detect.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}}, 0.5)
	assert.ErrorIs(t, err, detect.ErrInvalidGeometry)

	_, err = NewROI([]detect.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}, 0)
	assert.Error(t, err)
}

func TestROIOverlap(t *testing.T) {

	roi := squareROI(t)

	assert.InDelta(t, 1.0, roi.Overlap(detect.NewBox(10, 10, 110, 110)), 1e-9)
	assert.InDelta(t, 0.5, roi.Overlap(detect.NewBox(150, 0, 250, 100)), 1e-9)
	assert.InDelta(t, 0.0, roi.Overlap(detect.NewBox(300, 300, 400, 400)), 1e-9)
}

func TestROITriangle(t *testing.T) {

	roi, err := NewROI([]detect.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 0, Y: 100}}, 0.5)
	require.NoError(t, err)

	// the diagonal halves the box
	assert.InDelta(t, 0.5, roi.Overlap(detect.NewBox(0, 0, 100, 100)), 1e-6)
}

func TestROIFilter(t *testing.T) {

	roi := squareROI(t)

	inside := detect.Detection{Box: detect.NewBox(10, 10, 60, 60), Score: 0.9, Class: detect.Car}
	outside := detect.Detection{Box: detect.NewBox(180, 0, 280, 100), Score: 0.9, Class: detect.Car}
	person := detect.Detection{Box: detect.NewBox(300, 300, 320, 350), Score: 0.9, Class: detect.Person}

	got := roi.Filter([]detect.Detection{inside, outside, person})
	assert.Equal(t, []detect.Detection{inside, person}, got)

	var none *ROI
	assert.Len(t, none.Filter([]detect.Detection{inside, outside}), 2)
	assert.True(t, none.Accepts(outside.Box))
}

package render

import (
	"image/color"

	"github.com/swdee/go-trafficwatch/tracker"
)

var (
	Black  = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Yellow = color.RGBA{R: 255, G: 255, B: 50, A: 255}
	Pink   = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	Red    = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Green  = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Blue   = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	Orange = color.RGBA{R: 255, G: 140, B: 0, A: 255}
	Cyan   = color.RGBA{R: 0, G: 220, B: 220, A: 255}
)

// vehicleShades are the track palettes for each vehicle type, so tracks of
// one type share a hue and neighbouring IDs still differ
var vehicleShades = map[string][]color.RGBA{
	"Car": {
		{R: 40, G: 200, B: 80, A: 255},
		{R: 90, G: 230, B: 120, A: 255},
		{R: 20, G: 150, B: 60, A: 255},
	},
	"Motorcycle": {
		{R: 250, G: 170, B: 30, A: 255},
		{R: 255, G: 200, B: 90, A: 255},
		{R: 200, G: 130, B: 10, A: 255},
	},
	"Bus": {
		{R: 60, G: 120, B: 250, A: 255},
		{R: 110, G: 160, B: 255, A: 255},
		{R: 30, G: 80, B: 200, A: 255},
	},
	"Truck": {
		{R: 170, G: 80, B: 230, A: 255},
		{R: 200, G: 130, B: 255, A: 255},
		{R: 120, G: 50, B: 180, A: 255},
	},
}

// otherShades paint tracks whose vehicle type could not be resolved
var otherShades = []color.RGBA{
	{R: 0, G: 190, B: 200, A: 255},
	{R: 80, G: 220, B: 230, A: 255},
	{R: 0, G: 140, B: 150, A: 255},
}

// trackColor returns the box color of a track, picked from its vehicle
// type's palette by track ID
func trackColor(track *tracker.Track) color.RGBA {

	shades, ok := vehicleShades[track.GetVehicleType()]

	if !ok {
		shades = otherShades
	}

	return shades[track.GetTrackID()%len(shades)]
}

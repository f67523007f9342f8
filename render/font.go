package render

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Alignment positions a label relative to its box
type Alignment int

const (
	Left   Alignment = 1
	Center Alignment = 2
	Right  Alignment = 3
)

// Padding is the space in pixels left around label text
type Padding struct {
	Left, Right, Top, Bottom int
}

// Font defines the Hershey font parameters used for all overlay text
type Font struct {
	Face      gocv.HersheyFont
	Scale     float64
	Color     color.RGBA
	Thickness int
	LineType  gocv.LineType
	Pad       Padding
	// Alignment of the text label to the bounding box
	Alignment Alignment
}

// DefaultFont returns the font used for track and plate labels
func DefaultFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.6,
		Color:     Black,
		Thickness: 2,
		LineType:  gocv.LineAA,
		Pad:       Padding{Left: 4, Right: 4, Top: 4, Bottom: 6},
		Alignment: Left,
	}
}

// Scaled returns the font enlarged by factor, stroke thickness included
func (f Font) Scaled(factor float64) Font {

	f.Scale *= factor

	if t := int(float64(f.Thickness) * factor); t > 0 {
		f.Thickness = t
	}

	return f
}

// TextSize returns the width and height of the rendered text
func (f Font) TextSize(text string) image.Point {
	return gocv.GetTextSize(text, f.Face, f.Scale, f.Thickness)
}

// Put writes text with its baseline starting at pos
func (f Font) Put(img *gocv.Mat, text string, pos image.Point, clr color.RGBA) {
	gocv.PutTextWithParams(img, text, pos, f.Face, f.Scale, clr, f.Thickness, f.LineType, false)
}

package render

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/swdee/go-trafficwatch/detect"
	"github.com/swdee/go-trafficwatch/plate"
	"github.com/swdee/go-trafficwatch/tracker"
)

// boxLabel holds a precalculated text label for drawing on top of all boxes
type boxLabel struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textPos image.Point
}

// TrackLabel returns the label text drawn above a track's box
func TrackLabel(track *tracker.Track) string {
	return fmt.Sprintf("ID: %d (%s) %.1f km/h", track.GetTrackID(),
		track.GetVehicleType(), track.GetSpeed())
}

// rect converts a box to integer image coordinates
func rect(box detect.Box) image.Rectangle {
	return image.Rect(int(box.X1), int(box.Y1), int(box.X2), int(box.Y2))
}

// newBoxLabel positions a label above the box according to the font
// alignment
func newBoxLabel(r image.Rectangle, text string, clr color.RGBA, font Font,
	lineThickness int) boxLabel {

	textSize := font.TextSize(text)

	// Calculate the alignment of text label
	var centerX int

	switch font.Alignment {
	case Center:
		centerX = (r.Min.X + r.Max.X) / 2

	case Right:
		centerX = r.Max.X - (textSize.X / 2) - font.Pad.Right + (lineThickness / 2)

	case Left:
		fallthrough
	default:
		centerX = r.Min.X + (textSize.X / 2) + font.Pad.Left - (lineThickness / 2)
	}

	// Adjust the label position so the text is centered horizontally
	labelPosition := image.Pt(centerX-textSize.X/2, r.Min.Y-font.Pad.Bottom)

	// create box for placing text on
	bRect := image.Rect(centerX-textSize.X/2-font.Pad.Left,
		r.Min.Y-textSize.Y-font.Pad.Top-font.Pad.Bottom,
		centerX+textSize.X/2+font.Pad.Right, r.Min.Y)

	return boxLabel{
		rect:    bRect,
		clr:     clr,
		text:    text,
		textPos: labelPosition,
	}
}

// drawLabels draws all precalculated box labels so they are the top most
// layer on the image
func drawLabels(img *gocv.Mat, labels []boxLabel, font Font) {
	for _, box := range labels {
		// draw box text gets written on
		gocv.Rectangle(img, box.rect, box.clr, -1)

		// Draw the label over box
		font.Put(img, box.text, box.textPos, font.Color)
	}
}

// TrackBoxes renders the bounding box and label of each track, with the
// track's violations written in red above the label
func TrackBoxes(img *gocv.Mat, tracks []*tracker.Track, font Font, lineThickness int) {

	// keep a record of all box labels for later rendering
	boxLabels := make([]boxLabel, 0, len(tracks))

	warn := font
	warn.Thickness++

	for _, track := range tracks {

		useClr := trackColor(track)
		if len(track.GetViolations()) > 0 {
			useClr = Red
		}

		// draw rectangle around tracked vehicle
		r := rect(track.GetBox())
		gocv.Rectangle(img, r, useClr, lineThickness)

		label := newBoxLabel(r, TrackLabel(track), useClr, font, lineThickness)
		boxLabels = append(boxLabels, label)

		// stack violation text above the label
		lineHeight := label.rect.Dy() + 2
		y := label.rect.Min.Y - font.Pad.Bottom

		for _, text := range track.GetViolations().Strings() {
			warn.Put(img, text, image.Pt(label.rect.Min.X, y), Red)
			y -= lineHeight
		}
	}

	drawLabels(img, boxLabels, font)
}

// PlateBoxes renders plate readings with their text and confidence
func PlateBoxes(img *gocv.Mat, readings []plate.Reading, font Font, lineThickness int) {

	boxLabels := make([]boxLabel, 0, len(readings))

	for _, r := range readings {
		pr := rect(r.Box)
		gocv.Rectangle(img, pr, Cyan, lineThickness)

		text := fmt.Sprintf("%s (%.2f)", r.Text, r.Confidence)
		boxLabels = append(boxLabels, newBoxLabel(pr, text, Cyan, font, lineThickness))
	}

	drawLabels(img, boxLabels, font)
}

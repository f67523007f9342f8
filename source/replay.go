// Package source provides frame sources that stand in for live detector and
// OCR collaborators.
package source

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/swdee/go-trafficwatch"
	"github.com/swdee/go-trafficwatch/detect"
	"github.com/swdee/go-trafficwatch/plate"
)

// ErrFrameMismatch is returned when a collaborator is asked for a frame other
// than the one last read from the replay
var ErrFrameMismatch = errors.New("frame not current in replay")

// maxLineSize is the longest replay line accepted
const maxLineSize = 4 * 1024 * 1024

// replayDetection is a detection as written in a replay line.  The class is
// given by name, or by the detector's numeric class id
type replayDetection struct {
	Box     [4]float64   `json:"box"`
	Score   float64      `json:"score"`
	Class   detect.Class `json:"class"`
	ClassID *int         `json:"class_id"`
}

// replayPlate is a plate reading as written in a replay line
type replayPlate struct {
	Box        [4]float64 `json:"box"`
	Text       string     `json:"text"`
	Confidence float64    `json:"confidence"`
}

// replayLine is one frame of a replay
type replayLine struct {
	Frame      int64             `json:"frame"`
	Time       float64           `json:"time"`
	Height     int               `json:"height"`
	Width      int               `json:"width"`
	Detections []replayDetection `json:"detections"`
	Plates     []replayPlate     `json:"plates"`
}

// Replay reads recorded per frame detections and plate readings from JSON
// lines.  It acts as the detector and plate reader collaborators for the
// frame most recently returned by Next
type Replay struct {
	log     zerolog.Logger
	scanner *bufio.Scanner
	closer  io.Closer
	lineNum int
	ids     *detect.IDGenerator
	// labels resolves numeric class ids, nil uses COCO ids
	labels detect.LabelMap

	mu      sync.RWMutex
	current *replayLine
}

// NewReplay returns a Replay reading from r
func NewReplay(r io.Reader, log zerolog.Logger) *Replay {

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	rp := &Replay{
		log:     log,
		scanner: scanner,
		ids:     detect.NewIDGenerator(),
	}

	if c, ok := r.(io.Closer); ok {
		rp.closer = c
	}

	return rp
}

// OpenReplay opens a replay file
func OpenReplay(file string, log zerolog.Logger) (*Replay, error) {

	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening replay: %w", err)
	}

	return NewReplay(f, log.With().Str("replay", file).Logger()), nil
}

// SetLabels sets the model labels used to resolve numeric class ids.  Without
// labels class ids are taken to be COCO ids
func (r *Replay) SetLabels(labels detect.LabelMap) {
	r.labels = labels
}

// class resolves the class of a replayed detection
func (r *Replay) class(d replayDetection) detect.Class {

	if d.Class != detect.Unknown || d.ClassID == nil {
		return d.Class
	}

	if r.labels != nil {
		return r.labels.Class(*d.ClassID)
	}

	return detect.ClassFromCOCO(*d.ClassID)
}

// Close closes the underlying file, if any
func (r *Replay) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// Name identifies the replay in logs
func (r *Replay) Name() string {
	return "replay"
}

// Next advances to the next frame.  Malformed lines are logged and skipped.
// io.EOF is returned once the replay is exhausted
func (r *Replay) Next(ctx context.Context) (trafficwatch.Frame, error) {

	for r.scanner.Scan() {

		if err := ctx.Err(); err != nil {
			return trafficwatch.Frame{}, err
		}

		r.lineNum++
		data := r.scanner.Bytes()

		if len(data) == 0 {
			continue
		}

		var line replayLine

		if err := json.Unmarshal(data, &line); err != nil {
			r.log.Warn().Err(err).Int("line", r.lineNum).Msg("skipped malformed replay line")
			continue
		}

		if line.Frame == 0 {
			line.Frame = int64(r.lineNum)
		}

		r.mu.Lock()
		r.current = &line
		r.mu.Unlock()

		return trafficwatch.Frame{
			Number: line.Frame,
			Time:   floatTime(line.Time),
			Width:  line.Width,
			Height: line.Height,
		}, nil
	}

	if err := r.scanner.Err(); err != nil {
		return trafficwatch.Frame{}, fmt.Errorf("error reading replay: %w", err)
	}

	return trafficwatch.Frame{}, io.EOF
}

// frameLine returns the current line if it is for the frame
func (r *Replay) frameLine(frame trafficwatch.Frame) (*replayLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.current == nil || r.current.Frame != frame.Number {
		return nil, fmt.Errorf("%w: frame %d", ErrFrameMismatch, frame.Number)
	}

	return r.current, nil
}

// Detect returns all detections recorded for the frame
func (r *Replay) Detect(_ context.Context, frame trafficwatch.Frame) ([]detect.Detection, error) {

	line, err := r.frameLine(frame)

	if err != nil {
		return nil, err
	}

	dets := make([]detect.Detection, 0, len(line.Detections))

	for _, d := range line.Detections {
		dets = append(dets, detect.Detection{
			Box:   detect.NewBox(d.Box[0], d.Box[1], d.Box[2], d.Box[3]),
			Score: d.Score,
			Class: r.class(d),
		})
	}

	r.ids.Assign(dets)
	return dets, nil
}

// ReadPlates returns the plate readings recorded for the frame
func (r *Replay) ReadPlates(_ context.Context, frame trafficwatch.Frame) ([]plate.Reading, error) {

	line, err := r.frameLine(frame)

	if err != nil {
		return nil, err
	}

	readings := make([]plate.Reading, 0, len(line.Plates))

	for _, p := range line.Plates {
		readings = append(readings, plate.Reading{
			Box:        detect.NewBox(p.Box[0], p.Box[1], p.Box[2], p.Box[3]),
			Text:       p.Text,
			Confidence: p.Confidence,
		})
	}

	return readings, nil
}

// ClassDetector returns a detector yielding only the replay's detections of
// the given classes, so separate vehicle and person detectors can be run
// side by side
func (r *Replay) ClassDetector(name string, classes ...detect.Class) trafficwatch.Detector {
	return &classDetector{name: name, replay: r, classes: classes}
}

type classDetector struct {
	name    string
	replay  *Replay
	classes []detect.Class
}

func (c *classDetector) Name() string {
	return c.name
}

func (c *classDetector) Detect(ctx context.Context, frame trafficwatch.Frame) ([]detect.Detection, error) {

	dets, err := c.replay.Detect(ctx, frame)

	if err != nil {
		return nil, err
	}

	var res []detect.Detection

	for _, det := range dets {
		for _, cls := range c.classes {
			if det.Class == cls {
				res = append(res, det)
				break
			}
		}
	}

	return res, nil
}

// floatTime converts unix seconds with a fractional part to a time, zero
// stays the zero time
func floatTime(sec float64) time.Time {

	if sec == 0 {
		return time.Time{}
	}

	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(math.Round(frac*1e9)))
}

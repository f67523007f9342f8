package trafficwatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/swdee/go-trafficwatch/detect"
	"github.com/swdee/go-trafficwatch/plate"
	"github.com/swdee/go-trafficwatch/record"
	"github.com/swdee/go-trafficwatch/speed"
	"github.com/swdee/go-trafficwatch/tracker"
	"github.com/swdee/go-trafficwatch/violation"
	"github.com/swdee/go-trafficwatch/zone"
)

// Config holds the Engine parameters
type Config struct {
	Tracker   tracker.Config
	Speed     speed.Config
	Violation violation.Config
	// LaneAuto places the lane boundary at half the height of the first
	// frame when no boundary is configured
	LaneAuto       bool
	PlateCooldown  time.Duration
	PlateMinLength int
	// TrailSize is the number of center points kept per track for drawing,
	// 0 disables trails
	TrailSize int
}

// DefaultConfig returns the default Engine parameters
func DefaultConfig() Config {
	return Config{
		Tracker:        tracker.DefaultConfig(),
		Speed:          speed.DefaultConfig(),
		Violation:      violation.DefaultConfig(),
		PlateCooldown:  plate.DefaultCooldown,
		PlateMinLength: plate.DefaultMinLength,
	}
}

// Validate checks the parameters are usable
func (c Config) Validate() error {

	if err := c.Tracker.Validate(); err != nil {
		return fmt.Errorf("tracker: %w", err)
	}

	if err := c.Speed.Validate(); err != nil {
		return fmt.Errorf("speed: %w", err)
	}

	if err := c.Violation.Validate(); err != nil {
		return fmt.Errorf("violation: %w", err)
	}

	if c.PlateCooldown < 0 {
		return errors.New("plate cooldown must not be negative")
	}

	if c.PlateMinLength < 1 {
		return errors.New("plate min length must be at least 1")
	}

	if c.TrailSize < 0 {
		return errors.New("trail size must not be negative")
	}

	return nil
}

// Collaborators are the external systems and optional stages used by the
// Engine.  Every field may be left unset
type Collaborators struct {
	Log zerolog.Logger
	// Detectors are run concurrently on each frame by ProcessFrame
	Detectors   []Detector
	PlateReader PlateReader
	// Riders flags motorcycles carrying too many riders, defaults to
	// violation.DefaultOverlapRiders
	Riders violation.RiderAnalyzer
	// Criminal is the set of flagged plates, defaults to an empty set
	Criminal *plate.CriminalSet
	// Emitter receives every emitted record
	Emitter *record.Emitter
	// ROI discards vehicle detections outside the region
	ROI *zone.ROI
	// Counter counts confirmed tracks crossing a line
	Counter *zone.Counter
	// Now supplies the record time for frames without a timestamp
	Now func() time.Time
}

// Engine runs the per frame traffic monitoring pipeline.  It is not safe for
// concurrent use, frames must be processed one at a time
type Engine struct {
	cfg        Config
	log        zerolog.Logger
	detectors  []Detector
	reader     PlateReader
	riders     violation.RiderAnalyzer
	criminal   *plate.CriminalSet
	emitter    *record.Emitter
	roi        *zone.ROI
	counter    *zone.Counter
	now        func() time.Time
	manager    *tracker.Manager
	estimator  *speed.Estimator
	classifier *violation.Classifier
	associator *plate.Associator
	trail      *tracker.Trail
	// lastTime is the timestamp of the previous frame
	lastTime time.Time
	frames   int64
}

// NewEngine returns an Engine ready to process frames
func NewEngine(cfg Config, c Collaborators) (*Engine, error) {

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}

	manager, err := tracker.NewManager(cfg.Tracker)

	if err != nil {
		return nil, err
	}

	estimator, err := speed.NewEstimator(cfg.Speed)

	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:        cfg,
		log:        c.Log,
		detectors:  c.Detectors,
		reader:     c.PlateReader,
		riders:     c.Riders,
		criminal:   c.Criminal,
		emitter:    c.Emitter,
		roi:        c.ROI,
		counter:    c.Counter,
		now:        c.Now,
		manager:    manager,
		estimator:  estimator,
		associator: plate.NewAssociator(plate.NewDedupCache(cfg.PlateCooldown)),
	}

	if e.riders == nil {
		e.riders = violation.DefaultOverlapRiders()
	}

	if e.criminal == nil {
		e.criminal = plate.NewCriminalSet()
	}

	if e.now == nil {
		e.now = time.Now
	}

	if cfg.TrailSize > 0 {
		e.trail = tracker.NewTrail(cfg.TrailSize)
	}

	e.classifier = violation.NewClassifier(cfg.Violation, e.criminal)

	return e, nil
}

// FrameCount returns the number of frames processed
func (e *Engine) FrameCount() int64 {
	return e.frames
}

// Criminal returns the flagged plate set used by the Engine
func (e *Engine) Criminal() *plate.CriminalSet {
	return e.criminal
}

// Trail returns the track center history, nil when trails are disabled
func (e *Engine) Trail() *tracker.Trail {
	return e.trail
}

// Counter returns the counting line counter, if configured
func (e *Engine) Counter() *zone.Counter {
	return e.counter
}

// ROI returns the region of interest, if configured
func (e *Engine) ROI() *zone.ROI {
	return e.roi
}

// ProcessFrame runs the collaborators on the frame and processes their
// joined results.  Collaborator failures are logged and the frame continues
// without that collaborator's output.  A cancelled context skips the frame
// without changing any state
func (e *Engine) ProcessFrame(ctx context.Context, frame Frame) FrameResult {

	if err := ctx.Err(); err != nil {
		return FrameResult{Number: frame.Number, Errors: []error{err}}
	}

	in, errs := Gather(ctx, frame, e.detectors, e.reader)

	for _, err := range errs {
		e.logCollaborator(frame.Number, err)
	}

	res := e.Process(ctx, in)
	res.Errors = append(errs, res.Errors...)

	return res
}

// Process runs one frame of already gathered detections and plate readings
// through tracking, speed estimation, violation rules, plate association and
// record emission
func (e *Engine) Process(ctx context.Context, in FrameInput) FrameResult {

	frame := in.Frame
	e.frames++

	ts := frame.Time
	if ts.IsZero() {
		ts = e.now()
	}

	dt := e.elapsed(frame.Time)

	res := FrameResult{
		Number: frame.Number,
		Time:   ts,
	}

	e.placeLane(frame)

	dets := e.validDetections(frame.Number, in.Detections)
	tracked := e.roi.Filter(dets)

	confirmed, err := e.manager.Update(tracked, dt)

	if err != nil {
		e.log.Error().Err(err).Int64("frame", frame.Number).
			Msg("track assignment failed, tracks aged without detections")
		res.Errors = append(res.Errors, err)
	}

	e.updateSpeeds(dt)

	flagged := e.riders.Analyze(
		boxes(detect.Filter(dets, detect.Motorcycle)),
		boxes(detect.Filter(dets, detect.Person)),
	)

	readings := plate.Filter(in.Plates, e.cfg.PlateMinLength)
	associations := e.associator.Associate(readings, confirmed, ts)

	for _, track := range confirmed {
		track.SetViolations(e.classifier.Classify(violation.Input{
			Speed:        track.GetSpeed(),
			CenterY:      track.GetCenter().Y,
			TripleRiding: violation.InRegions(track.GetBox(), flagged),
			Plate:        track.GetPlate(),
		}))
	}

	if e.counter != nil {
		res.Counted = e.counter.Observe(confirmed)
	}

	if e.trail != nil {
		for _, track := range confirmed {
			e.trail.Add(track)
		}
		e.trail.Prune(e.manager.Tracks())
	}

	for _, a := range associations {
		if a.Outcome == plate.Suppressed {
			continue
		}

		rec := e.buildRecord(ts, a)
		res.Records = append(res.Records, rec)

		if e.emitter != nil {
			// failures are logged by the emitter with the record payload
			if err := e.emitter.Emit(ctx, rec); err != nil {
				res.Errors = append(res.Errors, err)
			}
		}
	}

	res.Confirmed = confirmed
	res.Plates = readings
	res.Tracks = make([]TrackView, 0, len(confirmed))

	for _, track := range confirmed {
		res.Tracks = append(res.Tracks, NewTrackView(track))
	}

	if y, ok := e.classifier.LaneBoundary(); ok {
		res.LaneBoundary = &y
	}

	e.log.Debug().
		Int64("frame", frame.Number).
		Float64("dt", dt).
		Int("detections", len(dets)).
		Int("tracks", len(e.manager.Tracks())).
		Int("confirmed", len(confirmed)).
		Int("plates", len(readings)).
		Int("records", len(res.Records)).
		Msg("frame processed")

	return res
}

// Reset clears all tracks and plate history so the next frame starts fresh.
// Track IDs are not reused
func (e *Engine) Reset() {
	e.manager.Reset()
	e.associator.Reset()
	e.lastTime = time.Time{}

	if e.trail != nil {
		e.trail.Reset()
	}
}

// elapsed returns the seconds since the previous frame, falling back to the
// default frame period on the first frame or a non advancing timestamp
func (e *Engine) elapsed(ts time.Time) float64 {

	dt := e.estimator.DefaultElapsed()

	if !ts.IsZero() {
		if !e.lastTime.IsZero() && ts.After(e.lastTime) {
			dt = ts.Sub(e.lastTime).Seconds()
		}
		e.lastTime = ts
	}

	return dt
}

// placeLane sets the lane boundary from the first frame with a known height
func (e *Engine) placeLane(frame Frame) {

	if !e.cfg.LaneAuto || frame.Height <= 0 {
		return
	}

	if _, ok := e.classifier.LaneBoundary(); ok {
		return
	}

	y := float64(frame.Height / 2)
	e.classifier.SetLaneBoundary(y)

	e.log.Info().Int64("frame", frame.Number).Float64("lane_boundary_y", y).
		Msg("lane boundary placed")
}

// validDetections drops malformed detections
func (e *Engine) validDetections(frameNum int64, dets []detect.Detection) []detect.Detection {

	res := make([]detect.Detection, 0, len(dets))

	for _, det := range dets {
		if err := det.Validate(); err != nil {
			e.log.Debug().Err(err).Int64("frame", frameNum).Msg("skipped detection")
			continue
		}
		res = append(res, det)
	}

	return res
}

// updateSpeeds estimates the speed of every track matched this frame
func (e *Engine) updateSpeeds(dt float64) {
	for _, track := range e.manager.Tracks() {
		prev, curr, gap, ok := track.Displacement()

		if !ok {
			continue
		}

		if gap <= 0 {
			gap = dt
		}

		track.SetSpeed(e.estimator.Estimate(prev, curr, gap, track.GetSpeed()))
	}
}

// buildRecord creates the record for an emitted or enriched plate reading
func (e *Engine) buildRecord(ts time.Time, a plate.Association) record.Record {

	var rec record.Record

	if a.Track == nil {
		rec = record.New(ts, a.Reading.Text, a.Reading.Confidence, record.Unknown, 0, nil)
	} else {
		rec = record.New(ts, a.Reading.Text, a.Reading.Confidence,
			a.Track.GetVehicleType(), a.Track.GetSpeed(), a.Track.GetViolations())
		rec.TrackID = a.Track.GetTrackID()
	}

	if e.criminal.Contains(a.Reading.Text) {
		rec.Violations = rec.Violations.With(violation.Tag{Kind: violation.CriminalVehicle})

		e.log.Warn().Str("plate", a.Reading.Text).Int("track_id", rec.TrackID).
			Msg("criminal vehicle detected")
	}

	rec.Enrichment = a.Outcome == plate.Enriched

	return rec
}

// logCollaborator logs a collaborator failure for the frame
func (e *Engine) logCollaborator(frameNum int64, err error) {

	component := "unknown"

	var ce *CollaboratorError
	if errors.As(err, &ce) {
		component = ce.Component
	}

	e.log.Warn().Err(err).Int64("frame", frameNum).Str("component", component).
		Msg("collaborator failed, continuing without its output")
}

// boxes returns the boxes of the detections
func boxes(dets []detect.Detection) []detect.Box {

	res := make([]detect.Box, len(dets))

	for i, det := range dets {
		res[i] = det.Box
	}

	return res
}

package trafficwatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/swdee/go-trafficwatch/detect"
	"github.com/swdee/go-trafficwatch/plate"
)

// Detector produces object detections for a frame
type Detector interface {
	Detect(ctx context.Context, frame Frame) ([]detect.Detection, error)
}

// PlateReader produces OCR plate readings for a frame
type PlateReader interface {
	ReadPlates(ctx context.Context, frame Frame) ([]plate.Reading, error)
}

// DetectorFunc adapts a function to the Detector interface
type DetectorFunc func(ctx context.Context, frame Frame) ([]detect.Detection, error)

// Detect calls f
func (f DetectorFunc) Detect(ctx context.Context, frame Frame) ([]detect.Detection, error) {
	return f(ctx, frame)
}

// PlateReaderFunc adapts a function to the PlateReader interface
type PlateReaderFunc func(ctx context.Context, frame Frame) ([]plate.Reading, error)

// ReadPlates calls f
func (f PlateReaderFunc) ReadPlates(ctx context.Context, frame Frame) ([]plate.Reading, error) {
	return f(ctx, frame)
}

// named is implemented by collaborators that identify themselves in logs
type named interface {
	Name() string
}

// componentName returns the collaborator's name or a positional fallback
func componentName(c any, fallback string) string {
	if n, ok := c.(named); ok {
		return n.Name()
	}
	return fallback
}

// Gather runs every detector and the plate reader concurrently on the frame
// and joins their results.  Detections are concatenated in detector order.
// A failed collaborator contributes nothing and its error is returned
// wrapped in a CollaboratorError
func Gather(ctx context.Context, frame Frame, detectors []Detector,
	reader PlateReader) (FrameInput, []error) {

	type detectResult struct {
		dets []detect.Detection
		err  error
	}

	results := make([]detectResult, len(detectors))

	var readings []plate.Reading
	var readErr error

	// waitgroup used to wait for all collaborators to complete so every
	// result belongs to this frame before tracking starts
	var wg sync.WaitGroup

	for i, d := range detectors {
		wg.Add(1)

		go func(i int, d Detector) {
			defer wg.Done()
			defer recoverInto(&results[i].err)

			results[i].dets, results[i].err = d.Detect(ctx, frame)
		}(i, d)
	}

	if reader != nil {
		wg.Add(1)

		go func() {
			defer wg.Done()
			defer recoverInto(&readErr)

			readings, readErr = reader.ReadPlates(ctx, frame)
		}()
	}

	wg.Wait()

	in := FrameInput{Frame: frame}
	var errs []error

	for i, res := range results {
		if res.err != nil {
			errs = append(errs, &CollaboratorError{
				Component: componentName(detectors[i], fmt.Sprintf("detector[%d]", i)),
				Err:       res.err,
			})
			continue
		}

		in.Detections = append(in.Detections, res.dets...)
	}

	if readErr != nil {
		errs = append(errs, &CollaboratorError{
			Component: componentName(reader, "plate reader"),
			Err:       readErr,
		})
	} else {
		in.Plates = readings
	}

	return in, errs
}

// recoverInto turns a collaborator panic into an error
func recoverInto(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("panic: %v", r)
	}
}

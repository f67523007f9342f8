package record

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Sink stores emitted records
type Sink interface {
	// Name identifies the sink in logs
	Name() string
	Write(ctx context.Context, rec Record) error
	Close() error
}

// Emitter fans each record out to all sinks.  A failing sink does not stop
// the record reaching the others
type Emitter struct {
	log   zerolog.Logger
	sinks []Sink
}

// NewEmitter returns an Emitter writing to the given sinks
func NewEmitter(log zerolog.Logger, sinks ...Sink) *Emitter {
	return &Emitter{
		log:   log,
		sinks: sinks,
	}
}

// Add appends a sink
func (e *Emitter) Add(s Sink) {
	e.sinks = append(e.sinks, s)
}

// Emit writes the record to every sink.  Sink failures are logged with the
// record payload and returned joined, each wrapping ErrPersistence
func (e *Emitter) Emit(ctx context.Context, rec Record) error {

	e.log.Info().
		Str("plate", rec.Plate).
		Str("vehicle_type", rec.VehicleType).
		Str("speed", rec.FormatSpeed()).
		Str("violations", rec.Violations.String()).
		Int("track_id", rec.TrackID).
		Bool("enrichment", rec.Enrichment).
		Msg("plate record")

	var errs []error

	for _, s := range e.sinks {
		if err := s.Write(ctx, rec); err != nil {
			e.log.Error().
				Err(err).
				Str("sink", s.Name()).
				Strs("record", rec.Fields()).
				Msg("failed to write record")

			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrPersistence, s.Name(), err))
		}
	}

	return errors.Join(errs...)
}

// Close closes all sinks
func (e *Emitter) Close() error {

	var errs []error

	for _, s := range e.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing %s sink: %w", s.Name(), err))
		}
	}

	return errors.Join(errs...)
}

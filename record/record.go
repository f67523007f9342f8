// Package record defines the plate sighting record handed to persistence and
// the sinks that store it.
package record

import (
	"errors"
	"strconv"
	"time"

	"github.com/swdee/go-trafficwatch/violation"
)

// TimeFormat is the layout of record timestamps in persisted output
const TimeFormat = "2006-01-02 15:04:05.000"

// Unknown is used for the plate text and vehicle type when they could not be
// determined
const Unknown = "Unknown"

// ErrPersistence is returned when a record could not be written to a sink
var ErrPersistence = errors.New("persistence failure")

// Header is the column layout of persisted records
var Header = []string{"timestamp", "license_plate", "confidence", "vehicle_type", "speed", "violations"}

// Record is a single plate sighting
type Record struct {
	Timestamp   time.Time     `json:"timestamp"`
	Plate       string        `json:"license_plate"`
	Confidence  float64       `json:"confidence"`
	VehicleType string        `json:"vehicle_type"`
	Speed       float64       `json:"speed"`
	Violations  violation.Set `json:"violations"`
	// TrackID is the associated track or 0 if the plate had no track
	TrackID int `json:"track_id,omitempty"`
	// Enrichment marks a record adding track data to an earlier sighting
	Enrichment bool `json:"enrichment,omitempty"`
}

// New returns a record with unset text fields set to Unknown
func New(ts time.Time, plate string, confidence float64, vehicleType string,
	speed float64, violations violation.Set) Record {

	if plate == "" {
		plate = Unknown
	}

	if vehicleType == "" {
		vehicleType = Unknown
	}

	return Record{
		Timestamp:   ts,
		Plate:       plate,
		Confidence:  confidence,
		VehicleType: vehicleType,
		Speed:       speed,
		Violations:  violations,
	}
}

// FormatTimestamp returns the timestamp in TimeFormat
func (r Record) FormatTimestamp() string {
	return r.Timestamp.Format(TimeFormat)
}

// FormatConfidence returns the confidence to two decimal places
func (r Record) FormatConfidence() string {
	return strconv.FormatFloat(r.Confidence, 'f', 2, 64)
}

// FormatSpeed returns the speed to one decimal place
func (r Record) FormatSpeed() string {
	return strconv.FormatFloat(r.Speed, 'f', 1, 64)
}

// Fields returns the record formatted in Header column order
func (r Record) Fields() []string {
	return []string{
		r.FormatTimestamp(),
		r.Plate,
		r.FormatConfidence(),
		r.VehicleType,
		r.FormatSpeed(),
		r.Violations.String(),
	}
}

package detect

import (
	"fmt"
	"strings"
)

// Class is the object class assigned to a detection by the detector
type Class int

const (
	Unknown Class = iota
	Car
	Motorcycle
	Bus
	Truck
	Person
)

// DefaultVehicleType is used when no detection class can be resolved for a
// tracked vehicle
const DefaultVehicleType = "Vehicle"

var classNames = map[Class]string{
	Unknown:    "Unknown",
	Car:        "Car",
	Motorcycle: "Motorcycle",
	Bus:        "Bus",
	Truck:      "Truck",
	Person:     "Person",
}

// cocoClasses maps the COCO dataset class ids used by YOLO models onto the
// classes of interest
var cocoClasses = map[int]Class{
	0: Person,
	2: Car,
	3: Motorcycle,
	5: Bus,
	7: Truck,
}

// String returns the display name of the class
func (c Class) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return classNames[Unknown]
}

// IsVehicle reports whether the class is one that gets tracked as a vehicle
func (c Class) IsVehicle() bool {
	switch c {
	case Car, Motorcycle, Bus, Truck:
		return true
	}
	return false
}

// MarshalText encodes the class as its lowercase name
func (c Class) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(c.String())), nil
}

// UnmarshalText decodes a class name, unrecognised names become Unknown
func (c *Class) UnmarshalText(text []byte) error {
	*c = ParseClass(string(text))
	return nil
}

// ParseClass converts a class label into a Class.  Labels are matched case
// insensitively and the COCO spelling "motorbike" is accepted
func ParseClass(label string) Class {

	switch strings.ToLower(strings.TrimSpace(label)) {
	case "car":
		return Car
	case "motorcycle", "motorbike":
		return Motorcycle
	case "bus":
		return Bus
	case "truck":
		return Truck
	case "person":
		return Person
	}

	return Unknown
}

// ClassFromCOCO converts a COCO class id into a Class
func ClassFromCOCO(id int) Class {
	if c, ok := cocoClasses[id]; ok {
		return c
	}
	return Unknown
}

// Detection is a single object found by a detector in one frame
type Detection struct {
	// Box is the bounding box of the object
	Box Box
	// Score is the detector confidence in [0,1]
	Score float64
	// Class is the object class
	Class Class
	// ID is a unique ID assigned to the detection
	ID int64
}

// Validate checks the detection has usable geometry and score
func (d Detection) Validate() error {

	if !d.Box.Valid() {
		return fmt.Errorf("%w: box (%.1f,%.1f,%.1f,%.1f)", ErrInvalidGeometry,
			d.Box.X1, d.Box.Y1, d.Box.X2, d.Box.Y2)
	}

	if d.Score < 0 || d.Score > 1 {
		return fmt.Errorf("%w: score %.3f outside [0,1]", ErrInvalidGeometry, d.Score)
	}

	return nil
}

// Filter returns the valid detections matching any of the given classes
func Filter(dets []Detection, classes ...Class) []Detection {

	var res []Detection

	for _, det := range dets {
		if det.Validate() != nil {
			continue
		}
		for _, c := range classes {
			if det.Class == c {
				res = append(res, det)
				break
			}
		}
	}

	return res
}

// Vehicles returns the valid vehicle class detections
func Vehicles(dets []Detection) []Detection {
	return Filter(dets, Car, Motorcycle, Bus, Truck)
}

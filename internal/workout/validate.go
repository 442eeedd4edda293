package workout

import (
	"math"
	"strings"
)

// ValidationError names the input fields that were rejected.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "must be positive numbers: " + strings.Join(e.Fields, ", ")
}

// MaxCadence bounds a running cadence so it always fits an int.
const MaxCadence = math.MaxInt32

// Validate checks user input before a workout is built. Every value must be
// finite, distance, duration and cadence must be positive. Elevation may be
// zero or negative (a net descent). Coordinates must lie on the globe.
func Validate(kind Kind, coords Coordinates, distance, duration, metric float64) error {
	var fields []string
	if !positive(distance) {
		fields = append(fields, "distance")
	}
	if !positive(duration) {
		fields = append(fields, "duration")
	}

	switch kind {
	case KindRunning:
		if !positive(metric) || metric != math.Trunc(metric) || metric > MaxCadence {
			fields = append(fields, "cadence")
		}
	case KindCycling:
		if !finite(metric) {
			fields = append(fields, "elevation")
		}
	default:
		fields = append(fields, "type")
	}

	if !ValidLat(coords.Lat) {
		fields = append(fields, "lat")
	}
	if !ValidLng(coords.Lng) {
		fields = append(fields, "lng")
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func positive(v float64) bool {
	return finite(v) && v > 0
}

func ValidLat(v float64) bool {
	return finite(v) && v >= -90 && v <= 90
}

func ValidLng(v float64) bool {
	return finite(v) && v >= -180 && v <= 180
}

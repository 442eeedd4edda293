package workout

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindRunning Kind = "running"
	KindCycling Kind = "cycling"
)

// ParseKind maps a form value to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindRunning:
		return KindRunning, nil
	case KindCycling:
		return KindCycling, nil
	}
	return "", &ValidationError{Fields: []string{"type"}}
}

func (k Kind) Title() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

func (k Kind) Emoji() string {
	if k == KindCycling {
		return "🚴‍♀️"
	}
	return "🏃‍♂️"
}

// Coordinates is a latitude/longitude pair. It encodes as a two element
// JSON array, [lat, lng].
type Coordinates struct {
	Lat float64
	Lng float64
}

// Valid reports whether both values are finite and in range.
func (c Coordinates) Valid() bool {
	return ValidLat(c.Lat) && ValidLng(c.Lng)
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.5f,%.5f", c.Lat, c.Lng)
}

type Running struct {
	Cadence int     `json:"cadence"`
	Pace    float64 `json:"pace"`
}

type Cycling struct {
	ElevationGain float64 `json:"elevationGain"`
	Speed         float64 `json:"speed"`
}

// Workout is a recorded activity. Exactly one of Running or Cycling is set,
// matching Kind. Derived fields are filled in by the constructors and are not
// recomputed afterwards.
type Workout struct {
	ID          string
	CreatedAt   time.Time
	Coords      Coordinates
	Distance    float64
	Duration    float64
	Kind        Kind
	Description string

	Running *Running
	Cycling *Cycling
}

func NewRunning(coords Coordinates, distance, duration float64, cadence int, now time.Time) Workout {
	w := newBase(KindRunning, coords, distance, duration, now)
	w.Running = &Running{
		Cadence: cadence,
		Pace:    round2(duration / distance),
	}
	return w
}

func NewCycling(coords Coordinates, distance, duration, elevation float64, now time.Time) Workout {
	w := newBase(KindCycling, coords, distance, duration, now)
	w.Cycling = &Cycling{
		ElevationGain: elevation,
		Speed:         round2(distance / duration * 60),
	}
	return w
}

func newBase(kind Kind, coords Coordinates, distance, duration float64, now time.Time) Workout {
	return Workout{
		ID:          uuid.NewString(),
		CreatedAt:   now,
		Coords:      coords,
		Distance:    distance,
		Duration:    duration,
		Kind:        kind,
		Description: fmt.Sprintf("%s on %s %d", kind.Title(), now.Month(), now.Day()),
	}
}

// Metric returns pace (min/km) for runs and speed (km/h) for rides.
func (w Workout) Metric() (float64, string) {
	switch w.Kind {
	case KindRunning:
		if w.Running != nil {
			return w.Running.Pace, "min/km"
		}
	case KindCycling:
		if w.Cycling != nil {
			return w.Cycling.Speed, "km/h"
		}
	}
	return 0, ""
}

// Label is the text shown next to the workout's map marker.
func (w Workout) Label() string {
	return w.Kind.Emoji() + " " + w.Description
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

package coordinator

import (
	"context"
	"strconv"
	"strings"

	"github.com/briangreenhill/mapty/internal/workout"
)

// FormInput is a submitted workout form. Values arrive as typed by the user.
// Lat and Lng are optional; without them the last map click is used.
type FormInput struct {
	Type      string
	Distance  string
	Duration  string
	Cadence   string
	Elevation string
	Lat       string
	Lng       string
}

// SubmitForm parses the form and creates the workout. Runs read the cadence
// field, rides the elevation field. The pending pin is cleared on success.
func (c *Coordinator) SubmitForm(ctx context.Context, in FormInput) (workout.Workout, error) {
	kind, err := workout.ParseKind(in.Type)
	if err != nil {
		if c.metrics != nil {
			c.metrics.ValidationFailures.Inc()
		}
		return workout.Workout{}, err
	}

	var bad []string
	number := func(field, v string) float64 {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			bad = append(bad, field)
		}
		return f
	}

	distance := number("distance", in.Distance)
	duration := number("duration", in.Duration)
	var metric float64
	if kind == workout.KindRunning {
		metric = number("cadence", in.Cadence)
	} else {
		metric = number("elevation", in.Elevation)
	}

	coords, ok := workout.Coordinates{}, false
	if in.Lat != "" || in.Lng != "" {
		coords.Lat = number("lat", in.Lat)
		coords.Lng = number("lng", in.Lng)
		ok = true
		if !workout.ValidLat(coords.Lat) {
			bad = append(bad, "lat")
		}
		if !workout.ValidLng(coords.Lng) {
			bad = append(bad, "lng")
		}
	} else {
		coords, ok = c.PendingPin()
	}
	if !ok {
		bad = append(bad, "coords")
	}

	if len(bad) > 0 {
		if c.metrics != nil {
			c.metrics.ValidationFailures.Inc()
		}
		return workout.Workout{}, &workout.ValidationError{Fields: bad}
	}

	w, err := c.CreateWorkout(ctx, kind, coords, distance, duration, metric)
	if w.ID != "" {
		c.mu.Lock()
		c.pin = nil
		c.mu.Unlock()
	}
	return w, err
}

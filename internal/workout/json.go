package workout

import (
	"encoding/json"
	"fmt"
	"time"
)

// record is the persisted shape of a workout. Derived fields are stored as
// they were computed so a restored workout never goes back through a
// constructor.
type record struct {
	ID            string     `json:"id"`
	CreatedAt     time.Time  `json:"createdAt"`
	Coords        [2]float64 `json:"coords"`
	Distance      float64    `json:"distance"`
	Duration      float64    `json:"duration"`
	Kind          Kind       `json:"type"`
	Description   string     `json:"description"`
	Cadence       *int       `json:"cadence,omitempty"`
	Pace          *float64   `json:"pace,omitempty"`
	ElevationGain *float64   `json:"elevationGain,omitempty"`
	Speed         *float64   `json:"speed,omitempty"`
}

func (w Workout) MarshalJSON() ([]byte, error) {
	r := record{
		ID:          w.ID,
		CreatedAt:   w.CreatedAt,
		Coords:      [2]float64{w.Coords.Lat, w.Coords.Lng},
		Distance:    w.Distance,
		Duration:    w.Duration,
		Kind:        w.Kind,
		Description: w.Description,
	}
	switch w.Kind {
	case KindRunning:
		if w.Running == nil {
			return nil, fmt.Errorf("running workout %s has no running data", w.ID)
		}
		r.Cadence = &w.Running.Cadence
		r.Pace = &w.Running.Pace
	case KindCycling:
		if w.Cycling == nil {
			return nil, fmt.Errorf("cycling workout %s has no cycling data", w.ID)
		}
		r.ElevationGain = &w.Cycling.ElevationGain
		r.Speed = &w.Cycling.Speed
	default:
		return nil, fmt.Errorf("unknown workout type %q", w.Kind)
	}
	return json.Marshal(r)
}

func (w *Workout) UnmarshalJSON(data []byte) error {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	if r.ID == "" {
		return fmt.Errorf("workout without id")
	}

	out := Workout{
		ID:          r.ID,
		CreatedAt:   r.CreatedAt,
		Coords:      Coordinates{Lat: r.Coords[0], Lng: r.Coords[1]},
		Distance:    r.Distance,
		Duration:    r.Duration,
		Kind:        r.Kind,
		Description: r.Description,
	}
	switch r.Kind {
	case KindRunning:
		if r.Cadence == nil || r.Pace == nil {
			return fmt.Errorf("running workout %s missing cadence or pace", r.ID)
		}
		out.Running = &Running{Cadence: *r.Cadence, Pace: *r.Pace}
	case KindCycling:
		if r.ElevationGain == nil || r.Speed == nil {
			return fmt.Errorf("cycling workout %s missing elevation or speed", r.ID)
		}
		out.Cycling = &Cycling{ElevationGain: *r.ElevationGain, Speed: *r.Speed}
	default:
		return fmt.Errorf("unknown workout type %q", r.Kind)
	}

	*w = out
	return nil
}

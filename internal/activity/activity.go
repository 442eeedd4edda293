package activity

import (
	"errors"
	"fmt"
	"time"

	"github.com/briangreenhill/mapty/internal/geolocation"
	"github.com/briangreenhill/mapty/internal/workout"
	"github.com/tkrajina/gpxgo/gpx"
)

type Split struct {
	Distance  float64
	SplitTime float64
	Elevation float64
}

// Track is what a GPX recording contributes to a workout.
type Track struct {
	Name          string
	Start         workout.Coordinates
	Distance      float64 // km
	Duration      float64 // minutes
	Uphill        float64
	Downhill      float64
	CompletedDate *time.Time
	Splits        []Split
}

func ParseTrack(data []byte) (Track, error) {
	g, err := gpx.ParseBytes(data)
	if err != nil {
		return Track{}, fmt.Errorf("error parsing gpx: %w", err)
	}

	start, ok := geolocation.FirstPoint(g)
	if !ok {
		return Track{}, errors.New("gpx file has no points")
	}

	moving := g.MovingData()
	duration := moving.MovingTime
	if duration <= 0 {
		duration = g.Duration()
	}
	updown := g.UphillDownhill()

	return Track{
		Name:          g.Name,
		Start:         start,
		Distance:      moving.MovingDistance / 1000.0,
		Duration:      duration / 60.0,
		Uphill:        updown.Uphill,
		Downhill:      updown.Downhill,
		CompletedDate: g.Time,
		Splits:        splits(g),
	}, nil
}

// splits cuts the recording into whole kilometers plus a final partial one.
func splits(g *gpx.GPX) []Split {
	var out []Split
	var covered float64
	var start *time.Time
	var last *gpx.GPXPoint

	for ti := range g.Tracks {
		for si := range g.Tracks[ti].Segments {
			points := g.Tracks[ti].Segments[si].Points
			for i := 1; i < len(points); i++ {
				prev, cur := &points[i-1], &points[i]
				if start == nil {
					start = &prev.Timestamp
				}
				covered += prev.Distance2D(cur)
				last = cur

				for covered >= 1000 {
					out = append(out, Split{
						Distance:  1000,
						SplitTime: cur.Timestamp.Sub(*start).Seconds(),
						Elevation: cur.Elevation.Value(),
					})
					start = &cur.Timestamp
					covered -= 1000
				}
			}
		}
	}

	if covered > 0 && last != nil {
		out = append(out, Split{
			Distance:  covered,
			SplitTime: last.Timestamp.Sub(*start).Seconds(),
			Elevation: last.Elevation.Value(),
		})
	}
	return out
}

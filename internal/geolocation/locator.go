package geolocation

import (
	"context"
	"errors"
	"fmt"

	"github.com/briangreenhill/mapty/internal/workout"
	"github.com/tkrajina/gpxgo/gpx"
)

var ErrNoPosition = errors.New("position not available")

// Locator answers a one-shot request for the user's current position.
type Locator interface {
	CurrentPosition(ctx context.Context) (workout.Coordinates, error)
}

// Static returns a fixed, configured position. A nil position behaves like a
// denied permission.
type Static struct {
	Position *workout.Coordinates
}

func (s Static) CurrentPosition(ctx context.Context) (workout.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return workout.Coordinates{}, err
	}
	if s.Position == nil {
		return workout.Coordinates{}, ErrNoPosition
	}
	return *s.Position, nil
}

// GPX takes the position from the first point of a recorded track.
type GPX struct {
	Data []byte
}

func (g GPX) CurrentPosition(ctx context.Context) (workout.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return workout.Coordinates{}, err
	}
	doc, err := gpx.ParseBytes(g.Data)
	if err != nil {
		return workout.Coordinates{}, fmt.Errorf("%w: %v", ErrNoPosition, err)
	}
	p, ok := FirstPoint(doc)
	if !ok {
		return workout.Coordinates{}, ErrNoPosition
	}
	return p, nil
}

// FirstPoint returns the first track point of the document, falling back to
// the first waypoint.
func FirstPoint(doc *gpx.GPX) (workout.Coordinates, bool) {
	for _, track := range doc.Tracks {
		for _, segment := range track.Segments {
			if len(segment.Points) > 0 {
				p := segment.Points[0]
				return workout.Coordinates{Lat: p.Latitude, Lng: p.Longitude}, true
			}
		}
	}
	if len(doc.Waypoints) > 0 {
		p := doc.Waypoints[0]
		return workout.Coordinates{Lat: p.Latitude, Lng: p.Longitude}, true
	}
	return workout.Coordinates{}, false
}

package mapsurface

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briangreenhill/mapty/internal/workout"
	"github.com/tkrajina/gpxgo/gpx"
)

var (
	ErrUnknownMap    = errors.New("unknown map")
	ErrUnknownMarker = errors.New("unknown marker")
)

type Marker struct {
	Handle  string
	Coords  workout.Coordinates
	Label   string
	AddedAt time.Time
}

// Layer is an in-memory map: a center, a zoom level, the markers placed on it
// and the click listeners. A browser UI reads it back through the API.
type Layer struct {
	mu      sync.Mutex
	handle  string
	center  workout.Coordinates
	zoom    int
	markers map[string]Marker
	order   []string
	clicks  []func(workout.Coordinates)
	seq     int
}

func NewLayer() *Layer {
	return &Layer{markers: map[string]Marker{}}
}

// Initialize sets the view. Calling it again moves the existing map.
func (l *Layer) Initialize(center workout.Coordinates, zoom int) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.handle == "" {
		l.handle = "map-1"
	}
	l.center = center
	l.zoom = zoom
	return l.handle, nil
}

func (l *Layer) AddMarker(m string, at workout.Coordinates, label string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.check(m); err != nil {
		return "", err
	}

	l.seq++
	h := fmt.Sprintf("marker-%d", l.seq)
	l.markers[h] = Marker{Handle: h, Coords: at, Label: label, AddedAt: time.Now()}
	l.order = append(l.order, h)
	return h, nil
}

func (l *Layer) RemoveMarker(h string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.markers[h]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMarker, h)
	}
	delete(l.markers, h)
	for i, o := range l.order {
		if o == h {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return nil
}

func (l *Layer) Recenter(m string, at workout.Coordinates) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.check(m); err != nil {
		return err
	}
	l.center = at
	return nil
}

func (l *Layer) OnUserClick(m string, fn func(workout.Coordinates)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.check(m) != nil {
		return
	}
	l.clicks = append(l.clicks, fn)
}

// Click delivers a user click to every listener. It reports false when the
// map has not been initialized.
func (l *Layer) Click(at workout.Coordinates) bool {
	l.mu.Lock()
	if l.handle == "" {
		l.mu.Unlock()
		return false
	}
	listeners := append([]func(workout.Coordinates){}, l.clicks...)
	l.mu.Unlock()

	// listeners run unlocked, they call back into the layer
	for _, fn := range listeners {
		fn(at)
	}
	return true
}

func (l *Layer) Ready() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.handle != ""
}

func (l *Layer) View() (workout.Coordinates, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.center, l.zoom
}

// Markers returns the markers in the order they were added.
func (l *Layer) Markers() []Marker {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Marker, 0, len(l.order))
	for _, h := range l.order {
		out = append(out, l.markers[h])
	}
	return out
}

// WriteGPX writes the markers as GPX 1.1 waypoints.
func (l *Layer) WriteGPX(w io.Writer) error {
	doc := gpx.GPX{
		Name:    "mapty workouts",
		Creator: "mapty",
	}
	for _, m := range l.Markers() {
		doc.Waypoints = append(doc.Waypoints, gpx.GPXPoint{
			Point: gpx.Point{
				Latitude:  m.Coords.Lat,
				Longitude: m.Coords.Lng,
			},
			Timestamp: m.AddedAt.UTC(),
			Name:      m.Label,
		})
	}

	data, err := doc.ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
	if err != nil {
		return fmt.Errorf("error encoding gpx: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func (l *Layer) check(m string) error {
	if l.handle == "" || m != l.handle {
		return fmt.Errorf("%w: %q", ErrUnknownMap, m)
	}
	return nil
}

package mapsurface

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/briangreenhill/mapty/internal/workout"
	"github.com/tkrajina/gpxgo/gpx"
)

func TestLayerMarkers(t *testing.T) {
	l := NewLayer()
	if _, err := l.AddMarker("map-1", workout.Coordinates{}, "x"); !errors.Is(err, ErrUnknownMap) {
		t.Fatalf("expected unknown map before initialize, got %v", err)
	}

	m, err := l.Initialize(workout.Coordinates{Lat: 10, Lng: 20}, 12)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	a, _ := l.AddMarker(m, workout.Coordinates{Lat: 1, Lng: 2}, "a")
	b, _ := l.AddMarker(m, workout.Coordinates{Lat: 3, Lng: 4}, "b")
	c, _ := l.AddMarker(m, workout.Coordinates{Lat: 5, Lng: 6}, "c")
	if a == b || b == c {
		t.Fatalf("expected distinct handles")
	}

	if err := l.RemoveMarker(b); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := l.RemoveMarker(b); !errors.Is(err, ErrUnknownMarker) {
		t.Fatalf("expected unknown marker, got %v", err)
	}

	got := l.Markers()
	if len(got) != 2 || got[0].Handle != a || got[1].Handle != c {
		t.Fatalf("unexpected markers %+v", got)
	}
}

func TestLayerClickAndRecenter(t *testing.T) {
	l := NewLayer()
	if l.Click(workout.Coordinates{}) {
		t.Fatalf("expected click to be ignored before initialize")
	}

	m, _ := l.Initialize(workout.Coordinates{Lat: 10, Lng: 20}, 12)
	var clicked []workout.Coordinates
	l.OnUserClick(m, func(c workout.Coordinates) {
		clicked = append(clicked, c)
		// listeners may call back into the layer
		_ = l.Recenter(m, c)
	})

	at := workout.Coordinates{Lat: 1.5, Lng: 2.5}
	if !l.Click(at) {
		t.Fatalf("expected click to be delivered")
	}
	if len(clicked) != 1 || clicked[0] != at {
		t.Fatalf("unexpected clicks %v", clicked)
	}
	center, zoom := l.View()
	if center != at || zoom != 12 {
		t.Fatalf("unexpected view %v %d", center, zoom)
	}
}

func TestLayerGeoJSON(t *testing.T) {
	l := NewLayer()
	fc := l.GeoJSON()
	if fc.Type != "FeatureCollection" || len(fc.Features) != 0 || fc.Center != nil {
		t.Fatalf("unexpected empty collection %+v", fc)
	}

	m, _ := l.Initialize(workout.Coordinates{Lat: 10, Lng: 20}, 12)
	l.AddMarker(m, workout.Coordinates{Lat: 1, Lng: 2}, "run")

	fc = l.GeoJSON()
	if len(fc.Features) != 1 {
		t.Fatalf("expected one feature")
	}
	if got := fc.Features[0].Geometry.Coordinates; got[0] != 2 || got[1] != 1 {
		t.Fatalf("expected lng,lat order, got %v", got)
	}
	if fc.Features[0].Properties["label"] != "run" {
		t.Fatalf("unexpected properties %v", fc.Features[0].Properties)
	}
}

func TestLayerWriteGPX(t *testing.T) {
	l := NewLayer()
	m, _ := l.Initialize(workout.Coordinates{}, 12)
	l.AddMarker(m, workout.Coordinates{Lat: 51.5, Lng: -0.12}, "Running on April 14")
	l.AddMarker(m, workout.Coordinates{Lat: 40.4, Lng: -3.7}, "Cycling on April 15")

	var buf bytes.Buffer
	if err := l.WriteGPX(&buf); err != nil {
		t.Fatalf("write gpx: %v", err)
	}

	g, err := gpx.ParseBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("parse gpx: %v", err)
	}
	if len(g.Waypoints) != 2 {
		t.Fatalf("expected 2 waypoints, got %d", len(g.Waypoints))
	}
	if g.Waypoints[0].Name != "Running on April 14" || math.Abs(g.Waypoints[1].Latitude-40.4) > 1e-6 {
		t.Fatalf("unexpected waypoints %+v", g.Waypoints)
	}
}

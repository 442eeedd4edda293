package mapsurface

type FeatureCollection struct {
	Type     string    `json:"type"`
	Center   []float64 `json:"center,omitempty"`
	Zoom     int       `json:"zoom,omitempty"`
	Features []Feature `json:"features"`
}

type Feature struct {
	Type       string            `json:"type"`
	Geometry   Geometry          `json:"geometry"`
	Properties map[string]string `json:"properties"`
}

type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// GeoJSON returns the markers as a feature collection. Coordinates follow
// the GeoJSON [lng, lat] order.
func (l *Layer) GeoJSON() FeatureCollection {
	fc := FeatureCollection{Type: "FeatureCollection", Features: []Feature{}}
	if l.Ready() {
		center, zoom := l.View()
		fc.Center = []float64{center.Lng, center.Lat}
		fc.Zoom = zoom
	}

	for _, m := range l.Markers() {
		fc.Features = append(fc.Features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{m.Coords.Lng, m.Coords.Lat},
			},
			Properties: map[string]string{
				"handle": m.Handle,
				"label":  m.Label,
			},
		})
	}
	return fc
}

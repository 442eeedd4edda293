package activity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/briangreenhill/mapty/internal/coordinator"
	"github.com/briangreenhill/mapty/internal/mapsurface"
	"github.com/briangreenhill/mapty/internal/observability"
	"github.com/briangreenhill/mapty/internal/workout"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tkrajina/gpxgo/gpx"
)

func newTestAPI(t *testing.T, token string) (*testEnv, http.Handler) {
	t.Helper()
	home := workout.Coordinates{Lat: 38.72, Lng: -9.14}
	reg := prometheus.NewRegistry()
	env := newTestEnv(t, &home, coordinator.WithMetrics(observability.NewMetrics(reg)))
	if err := env.service.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	return env, NewAPI(env.service.logger, env.service, APIConfig{MapboxToken: token}, reg)
}

func do(t *testing.T, h http.Handler, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func runForm(lat, lng string) url.Values {
	return url.Values{
		"type":     {"running"},
		"distance": {"5"},
		"duration": {"30"},
		"cadence":  {"170"},
		"lat":      {lat},
		"lng":      {lng},
	}
}

func TestAPICreateAndList(t *testing.T) {
	env, h := newTestAPI(t, "")

	rec := do(t, h, http.MethodPost, "/workouts", runForm("38.7", "-9.1"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created workout.Workout
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Running == nil || created.Running.Pace != 6 {
		t.Fatalf("unexpected workout %+v", created)
	}

	rec = do(t, h, http.MethodGet, "/workouts", nil)
	var listed []workout.Workout
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("unexpected list %+v", listed)
	}

	stored, ok, _ := env.kv.Get(context.Background(), "workouts")
	if !ok || !strings.Contains(stored, created.ID) {
		t.Fatalf("expected workout in snapshot, got %q", stored)
	}
}

func TestAPICreateRejectsInvalid(t *testing.T) {
	env, h := newTestAPI(t, "")

	form := runForm("38.7", "-9.1")
	form.Set("distance", "-5")
	rec := do(t, h, http.MethodPost, "/workouts", form)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body struct {
		Error  string   `json:"error"`
		Fields []string `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Fields) != 1 || body.Fields[0] != "distance" {
		t.Fatalf("unexpected fields %v", body.Fields)
	}
	if len(env.service.Coordinator().Workouts()) != 0 {
		t.Fatalf("expected no workouts")
	}
}

func TestAPIMapClickThenCreate(t *testing.T) {
	env, h := newTestAPI(t, "")

	rec := do(t, h, http.MethodPost, "/map/click", url.Values{"lat": {"38.75"}, "lng": {"-9.2"}})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/workouts", runForm("", ""))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	markers := env.service.Layer().Markers()
	if len(markers) != 1 || markers[0].Coords.Lat != 38.75 {
		t.Fatalf("unexpected markers %+v", markers)
	}

	rec = do(t, h, http.MethodPost, "/map/click", url.Values{"lat": {"north"}, "lng": {"-9.2"}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAPIMapClickWithoutMap(t *testing.T) {
	env := newTestEnv(t, nil)
	if err := env.service.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	h := NewAPI(env.service.logger, env.service, APIConfig{}, nil)

	rec := do(t, h, http.MethodPost, "/map/click", url.Values{"lat": {"1"}, "lng": {"2"}})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestAPIDeleteAndLocate(t *testing.T) {
	env, h := newTestAPI(t, "")
	ctx := context.Background()
	first, err := env.service.Coordinator().CreateWorkout(ctx, workout.KindRunning, workout.Coordinates{Lat: 1, Lng: 2}, 5, 30, 170)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := env.service.Coordinator().CreateWorkout(ctx, workout.KindCycling, workout.Coordinates{Lat: 3, Lng: 4}, 20, 40, 100)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	rec := do(t, h, http.MethodPost, "/workouts/"+first.ID+"/locate", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if center, _ := env.service.Layer().View(); center != first.Coords {
		t.Fatalf("expected map on %v, got %v", first.Coords, center)
	}

	rec = do(t, h, http.MethodDelete, "/workouts/"+first.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	ws := env.service.Coordinator().Workouts()
	if len(ws) != 1 || ws[0].ID != second.ID {
		t.Fatalf("unexpected workouts %+v", ws)
	}

	// unknown ids are ignored
	rec = do(t, h, http.MethodDelete, "/workouts/nope", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodDelete, "/workouts", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(env.service.Coordinator().Workouts()) != 0 || len(env.service.Layer().Markers()) != 0 {
		t.Fatalf("expected everything removed")
	}
}

func TestAPIMarkers(t *testing.T) {
	env, h := newTestAPI(t, "")
	if _, err := env.service.Coordinator().CreateWorkout(context.Background(), workout.KindRunning, workout.Coordinates{Lat: 38.7, Lng: -9.1}, 5, 30, 170); err != nil {
		t.Fatalf("create: %v", err)
	}

	rec := do(t, h, http.MethodGet, "/markers", nil)
	var fc mapsurface.FeatureCollection
	if err := json.Unmarshal(rec.Body.Bytes(), &fc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(fc.Features) != 1 || fc.Features[0].Geometry.Coordinates[0] != -9.1 {
		t.Fatalf("unexpected features %+v", fc.Features)
	}

	rec = do(t, h, http.MethodGet, "/markers.gpx", nil)
	if ct := rec.Header().Get("Content-Type"); ct != "application/gpx+xml" {
		t.Fatalf("unexpected content type %q", ct)
	}
	doc, err := gpx.ParseBytes(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("parse gpx: %v", err)
	}
	if len(doc.Waypoints) != 1 {
		t.Fatalf("expected one waypoint, got %d", len(doc.Waypoints))
	}
}

func TestAPIToken(t *testing.T) {
	_, h := newTestAPI(t, "")
	if rec := do(t, h, http.MethodGet, "/token", nil); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 without token, got %d", rec.Code)
	}

	_, h = newTestAPI(t, "pk.test")
	rec := do(t, h, http.MethodGet, "/token", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "pk.test") {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestAPIMetrics(t *testing.T) {
	_, h := newTestAPI(t, "")
	do(t, h, http.MethodPost, "/workouts", runForm("38.7", "-9.1"))
	rec := do(t, h, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `mapty_workouts_created_total{type="running"} 1`) {
		t.Fatalf("unexpected metrics response %d %s", rec.Code, rec.Body.String())
	}
}

func TestAPIMapClickRejectsOffGlobe(t *testing.T) {
	env, h := newTestAPI(t, "")

	for _, at := range []url.Values{
		{"lat": {"NaN"}, "lng": {"0"}},
		{"lat": {"999"}, "lng": {"0"}},
		{"lat": {"0"}, "lng": {"Inf"}},
	} {
		rec := do(t, h, http.MethodPost, "/map/click", at)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %v, got %d", at, rec.Code)
		}
	}
	if _, ok := env.service.Coordinator().PendingPin(); ok {
		t.Fatalf("expected no pending pin")
	}

	rec := do(t, h, http.MethodPost, "/workouts", runForm("NaN", "0"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	rec = do(t, h, http.MethodPost, "/workouts", runForm("38.7", "-9.1"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	stored, ok, _ := env.kv.Get(context.Background(), "workouts")
	if !ok || strings.Count(stored, `"id"`) != 1 {
		t.Fatalf("expected one saved workout, got %q", stored)
	}
}

package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/briangreenhill/mapty/internal/observability"
	"github.com/briangreenhill/mapty/internal/workout"
)

const DefaultZoom = 12

type entry struct {
	workout workout.Workout
	marker  string
}

// Coordinator owns the workout collection and keeps the list, the map
// markers and the saved snapshot in step with it. Every exported method runs
// to completion before the next one starts.
type Coordinator struct {
	mu sync.Mutex

	list      ListSurface
	snapshots Snapshotter
	logger    *slog.Logger
	metrics   *observability.Metrics
	notifier  Notifier
	now       func() time.Time
	zoom      int
	strict    bool

	// ids holds insertion order, entries the workout and its marker.
	ids     []string
	entries map[string]*entry

	surface   MapSurface
	mapHandle string
	pin       *workout.Coordinates
	notified  bool
}

type Option func(*Coordinator)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

func WithNotifier(n Notifier) Option {
	return func(c *Coordinator) { c.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

func WithZoom(zoom int) Option {
	return func(c *Coordinator) { c.zoom = zoom }
}

// WithStrict makes an alignment fault panic instead of dropping the map.
func WithStrict(strict bool) Option {
	return func(c *Coordinator) { c.strict = strict }
}

func New(list ListSurface, snapshots Snapshotter, opts ...Option) *Coordinator {
	c := &Coordinator{
		list:      list,
		snapshots: snapshots,
		logger:    slog.Default(),
		now:       time.Now,
		zoom:      DefaultZoom,
		entries:   map[string]*entry{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.notifier == nil {
		logger := c.logger
		c.notifier = NotifierFunc(func(msg string) {
			logger.Warn(msg)
		})
	}
	return c
}

// CreateWorkout validates the input, records the workout, places its marker,
// renders its row, saves the snapshot and centers the map on it. A marker or
// row that cannot be placed undoes the whole create. A failed save is
// returned after the workout is recorded.
func (c *Coordinator) CreateWorkout(ctx context.Context, kind workout.Kind, coords workout.Coordinates, distance, duration, metric float64) (workout.Workout, error) {
	if err := workout.Validate(kind, coords, distance, duration, metric); err != nil {
		if c.metrics != nil {
			c.metrics.ValidationFailures.Inc()
		}
		return workout.Workout{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var w workout.Workout
	switch kind {
	case workout.KindRunning:
		w = workout.NewRunning(coords, distance, duration, int(metric), c.now())
	case workout.KindCycling:
		w = workout.NewCycling(coords, distance, duration, metric, c.now())
	}

	e := &entry{workout: w}
	c.entries[w.ID] = e
	c.ids = append(c.ids, w.ID)

	if c.surface != nil {
		h, err := c.surface.AddMarker(c.mapHandle, coords, w.Label())
		if err != nil {
			c.drop(w.ID)
			return workout.Workout{}, fmt.Errorf("error placing marker: %w", err)
		}
		e.marker = h
	}

	if err := c.list.RenderRow(w); err != nil {
		if e.marker != "" {
			if rerr := c.surface.RemoveMarker(e.marker); rerr != nil {
				c.logger.Warn("Error removing marker", slog.String("id", w.ID), slog.Any("error", rerr))
			}
		}
		c.drop(w.ID)
		return workout.Workout{}, fmt.Errorf("error rendering row: %w", err)
	}

	c.verify()
	if c.metrics != nil {
		c.metrics.Created.WithLabelValues(string(w.Kind)).Inc()
	}
	c.logger.Info("Workout created", slog.String("id", w.ID), slog.String("type", string(w.Kind)), slog.String("coords", coords.String()))

	persistErr := c.persist(ctx)

	if c.surface != nil {
		if err := c.surface.Recenter(c.mapHandle, coords); err != nil {
			c.logger.Warn("Error recentering map", slog.Any("error", err))
		}
	}

	return w, persistErr
}

// DeleteWorkout removes the workout and its marker. Unknown ids are ignored.
func (c *Coordinator) DeleteWorkout(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok {
		return nil
	}
	c.drop(id)

	if e.marker != "" && c.surface != nil {
		if err := c.surface.RemoveMarker(e.marker); err != nil {
			c.logger.Warn("Error removing marker", slog.String("id", id), slog.Any("error", err))
		}
	}
	if err := c.list.RemoveRow(id); err != nil {
		c.logger.Warn("Error removing row", slog.String("id", id), slog.Any("error", err))
	}

	c.verify()
	if c.metrics != nil {
		c.metrics.Deleted.Inc()
	}
	c.logger.Info("Workout deleted", slog.String("id", id))

	return c.persist(ctx)
}

// DeleteAll removes every workout, row and marker and saves an empty
// snapshot.
func (c *Coordinator) DeleteAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := c.clear()
	if c.metrics != nil {
		c.metrics.Deleted.Add(float64(removed))
	}
	c.logger.Info("All workouts deleted", slog.Int("count", removed))

	return c.persist(ctx)
}

// Reset deletes everything and removes the stored snapshot.
func (c *Coordinator) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := c.clear()
	if c.metrics != nil {
		c.metrics.Deleted.Add(float64(removed))
	}
	c.observe()

	if err := c.snapshots.Clear(ctx); err != nil {
		return err
	}
	c.logger.Info("Workouts reset", slog.Int("count", removed))
	return nil
}

// Restore replaces the collection with the saved snapshot and renders a row
// for each workout. Markers are placed once the map is loaded.
func (c *Coordinator) Restore(ctx context.Context) error {
	workouts, err := c.snapshots.Load(ctx)
	if err != nil {
		return fmt.Errorf("error restoring workouts: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.ids) > 0 {
		c.clear()
	}

	for _, w := range workouts {
		if _, dup := c.entries[w.ID]; dup {
			c.logger.Warn("Skipping duplicate workout", slog.String("id", w.ID))
			continue
		}
		if err := c.list.RenderRow(w); err != nil {
			c.logger.Warn("Skipping workout without a row", slog.String("id", w.ID), slog.Any("error", err))
			continue
		}
		c.entries[w.ID] = &entry{workout: w}
		c.ids = append(c.ids, w.ID)
	}

	if c.surface != nil {
		if err := c.materialize(); err != nil {
			c.logger.Error("Error placing markers", slog.Any("error", err))
		}
	}

	c.verify()
	c.observe()
	c.logger.Info("Workouts restored", slog.Int("count", len(c.ids)))
	return nil
}

// LoadMap asks for the current position, initializes the map there and
// places a marker for every workout already held. When the position is not
// available the user is told once and the coordinator keeps working without
// a map.
func (c *Coordinator) LoadMap(ctx context.Context, locator Locator, surface MapSurface) error {
	if c.MapReady() {
		return nil
	}

	pos, err := locator.CurrentPosition(ctx)
	if err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		if !c.notified {
			c.notified = true
			c.notifier.Notify("Cannot display the coordinates")
		}
		c.logger.Warn("Geolocation unavailable", slog.Any("error", err))
		return fmt.Errorf("%w: %w", ErrGeolocationUnavailable, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.surface != nil {
		return nil
	}

	h, err := surface.Initialize(pos, c.zoom)
	if err != nil {
		return fmt.Errorf("error initializing map: %w", err)
	}
	c.surface = surface
	c.mapHandle = h
	surface.OnUserClick(h, c.setPin)

	if err := c.materialize(); err != nil {
		return err
	}

	c.verify()
	c.observe()
	c.logger.Info("Map loaded", slog.String("center", pos.String()), slog.Int("markers", len(c.ids)))
	return nil
}

// LocateWorkout centers the map on the workout. Unknown ids and a missing
// map are ignored.
func (c *Coordinator) LocateWorkout(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok || c.surface == nil {
		return nil
	}
	return c.surface.Recenter(c.mapHandle, e.workout.Coords)
}

func (c *Coordinator) Workouts() []workout.Workout {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]workout.Workout, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.entries[id].workout)
	}
	return out
}

// Markers returns marker handles in workout order. It is empty until the map
// is loaded.
func (c *Coordinator) Markers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := []string{}
	if c.surface == nil {
		return out
	}
	for _, id := range c.ids {
		out = append(out, c.entries[id].marker)
	}
	return out
}

func (c *Coordinator) Workout(id string) (workout.Workout, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok {
		return workout.Workout{}, false
	}
	return e.workout, true
}

func (c *Coordinator) MapReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.surface != nil
}

func (c *Coordinator) PendingPin() (workout.Coordinates, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pin == nil {
		return workout.Coordinates{}, false
	}
	return *c.pin, true
}

func (c *Coordinator) setPin(at workout.Coordinates) {
	if !at.Valid() {
		c.logger.Warn("Ignoring map click off the globe", slog.String("coords", at.String()))
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pin = &at
}

// materialize places a marker for every workout that has none. On failure
// the markers placed by this call are taken down again and the map is
// dropped.
func (c *Coordinator) materialize() error {
	var placed []string
	for _, id := range c.ids {
		e := c.entries[id]
		if e.marker != "" {
			continue
		}
		h, err := c.surface.AddMarker(c.mapHandle, e.workout.Coords, e.workout.Label())
		if err != nil {
			for _, pid := range placed {
				pe := c.entries[pid]
				if rerr := c.surface.RemoveMarker(pe.marker); rerr != nil {
					c.logger.Warn("Error removing marker", slog.String("id", pid), slog.Any("error", rerr))
				}
				pe.marker = ""
			}
			c.surface = nil
			c.mapHandle = ""
			return fmt.Errorf("error placing marker for %s: %w", id, err)
		}
		e.marker = h
		placed = append(placed, id)
	}
	return nil
}

// drop removes the workout from the collection. Callers deal with its
// marker and row.
func (c *Coordinator) drop(id string) {
	delete(c.entries, id)
	for i, o := range c.ids {
		if o == id {
			c.ids = append(c.ids[:i], c.ids[i+1:]...)
			return
		}
	}
}

// clear empties the collection, the list and the map together and returns
// how many workouts were removed.
func (c *Coordinator) clear() int {
	removed := len(c.ids)
	var markers []string
	for _, id := range c.ids {
		if m := c.entries[id].marker; m != "" {
			markers = append(markers, m)
		}
	}
	c.ids = nil
	c.entries = map[string]*entry{}

	if err := c.list.ClearRows(); err != nil {
		c.logger.Warn("Error clearing rows", slog.Any("error", err))
	}
	if c.surface != nil {
		for _, m := range markers {
			if err := c.surface.RemoveMarker(m); err != nil {
				c.logger.Warn("Error removing marker", slog.String("marker", m), slog.Any("error", err))
			}
		}
	}
	return removed
}

func (c *Coordinator) persist(ctx context.Context) error {
	c.observe()

	out := make([]workout.Workout, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.entries[id].workout)
	}
	if err := c.snapshots.Save(ctx, out); err != nil {
		if c.metrics != nil {
			c.metrics.PersistFailures.Inc()
		}
		c.logger.Error("Error saving workouts", slog.Any("error", err))
		return err
	}
	return nil
}

func (c *Coordinator) observe() {
	if c.metrics == nil {
		return
	}
	c.metrics.Workouts.Set(float64(len(c.ids)))
	markers := 0
	for _, e := range c.entries {
		if e.marker != "" {
			markers++
		}
	}
	c.metrics.Markers.Set(float64(markers))
}

// verify checks that every workout has a marker while the map is up. A
// mismatch panics in strict mode, otherwise the map is dropped and the
// coordinator carries on with the list only.
func (c *Coordinator) verify() {
	if c.surface == nil {
		return
	}

	var missing []string
	markers := 0
	for _, id := range c.ids {
		e, ok := c.entries[id]
		if !ok || e.marker == "" {
			missing = append(missing, id)
			continue
		}
		markers++
	}
	if len(missing) == 0 && len(c.ids) == len(c.entries) {
		return
	}

	fault := &AlignmentFault{Workouts: len(c.ids), Markers: markers, Missing: missing}
	if c.metrics != nil {
		c.metrics.AlignmentFaults.Inc()
	}
	if c.strict {
		panic(fault)
	}

	c.logger.Error("Dropping map", slog.Any("error", fault))
	for _, e := range c.entries {
		if e.marker == "" {
			continue
		}
		if err := c.surface.RemoveMarker(e.marker); err != nil {
			c.logger.Warn("Error removing marker", slog.String("marker", e.marker), slog.Any("error", err))
		}
		e.marker = ""
	}
	c.surface = nil
	c.mapHandle = ""
	c.observe()
}

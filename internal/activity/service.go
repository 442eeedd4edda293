package activity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/briangreenhill/mapty/internal/coordinator"
	"github.com/briangreenhill/mapty/internal/listview"
	"github.com/briangreenhill/mapty/internal/mapsurface"
	"github.com/briangreenhill/mapty/internal/workout"
)

// Service ties the coordinator to the concrete list, map and position
// source used by the CLI and the API.
type Service struct {
	coord   *coordinator.Coordinator
	layer   *mapsurface.Layer
	panel   *listview.Panel
	locator coordinator.Locator
	logger  *slog.Logger
}

func NewService(coord *coordinator.Coordinator, layer *mapsurface.Layer, panel *listview.Panel, locator coordinator.Locator, logger *slog.Logger) *Service {
	return &Service{
		coord:   coord,
		layer:   layer,
		panel:   panel,
		locator: locator,
		logger:  logger,
	}
}

// Start restores saved workouts and loads the map. A missing position is
// not an error: the service runs without a map.
func (s *Service) Start(ctx context.Context) error {
	if err := s.coord.Restore(ctx); err != nil {
		return err
	}
	return s.LoadMap(ctx)
}

func (s *Service) LoadMap(ctx context.Context) error {
	err := s.coord.LoadMap(ctx, s.locator, s.layer)
	if errors.Is(err, coordinator.ErrGeolocationUnavailable) {
		return nil
	}
	return err
}

// Import records a GPX track as a workout pinned at the track's first point.
// Runs need a cadence since GPX files rarely carry one; rides use the
// track's uphill as elevation gain.
func (s *Service) Import(ctx context.Context, data []byte, kind workout.Kind, cadence int) (workout.Workout, Track, error) {
	track, err := ParseTrack(data)
	if err != nil {
		return workout.Workout{}, Track{}, err
	}

	metric := float64(cadence)
	if kind == workout.KindCycling {
		metric = track.Uphill
	}

	w, err := s.coord.CreateWorkout(ctx, kind, track.Start, track.Distance, track.Duration, metric)
	if err != nil {
		return w, track, fmt.Errorf("error importing %q: %w", track.Name, err)
	}
	s.logger.Info("Imported track", slog.String("name", track.Name), slog.String("id", w.ID), slog.Int("splits", len(track.Splits)))
	return w, track, nil
}

// DropPinAtCenter clicks the map at its current center, the way a user would
// pin the spot the map opened on.
func (s *Service) DropPinAtCenter() bool {
	if !s.layer.Ready() {
		return false
	}
	center, _ := s.layer.View()
	return s.layer.Click(center)
}

func (s *Service) Coordinator() *coordinator.Coordinator { return s.coord }
func (s *Service) Layer() *mapsurface.Layer                { return s.layer }
func (s *Service) Panel() *listview.Panel                  { return s.panel }

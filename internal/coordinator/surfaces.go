package coordinator

import (
	"context"

	"github.com/briangreenhill/mapty/internal/workout"
)

// MapSurface places markers on a map. Handles are opaque to the coordinator.
type MapSurface interface {
	Initialize(center workout.Coordinates, zoom int) (string, error)
	AddMarker(m string, at workout.Coordinates, label string) (string, error)
	RemoveMarker(marker string) error
	Recenter(m string, at workout.Coordinates) error
	OnUserClick(m string, fn func(workout.Coordinates))
}

// ListSurface renders one row per workout.
type ListSurface interface {
	RenderRow(w workout.Workout) error
	RemoveRow(id string) error
	ClearRows() error
}

// Snapshotter persists the whole collection at once.
type Snapshotter interface {
	Save(ctx context.Context, workouts []workout.Workout) error
	Load(ctx context.Context) ([]workout.Workout, error)
	Clear(ctx context.Context) error
}

type Locator interface {
	CurrentPosition(ctx context.Context) (workout.Coordinates, error)
}

// Notifier shows a message to the user.
type Notifier interface {
	Notify(msg string)
}

type NotifierFunc func(msg string)

func (f NotifierFunc) Notify(msg string) { f(msg) }

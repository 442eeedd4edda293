package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/briangreenhill/mapty/internal/workout"
)

const DefaultKey = "workouts"

// Snapshots saves and loads the whole workout collection as one value.
type Snapshots struct {
	kv     KV
	key    string
	logger *slog.Logger
}

func NewSnapshots(kv KV, key string, logger *slog.Logger) *Snapshots {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Snapshots{kv: kv, key: key, logger: logger}
}

func (s *Snapshots) Save(ctx context.Context, workouts []workout.Workout) error {
	if workouts == nil {
		workouts = []workout.Workout{}
	}
	data, err := json.Marshal(workouts)
	if err != nil {
		return fmt.Errorf("error encoding workouts: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("error saving workouts: %w", err)
	}
	return nil
}

// Load returns the saved workouts in order. A missing or unreadable snapshot
// loads as an empty collection.
func (s *Snapshots) Load(ctx context.Context) ([]workout.Workout, error) {
	data, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("error reading workouts: %w", err)
	}
	if !ok || data == "" {
		return nil, nil
	}

	var workouts []workout.Workout
	if err := json.Unmarshal([]byte(data), &workouts); err != nil {
		s.logger.Warn("Ignoring corrupt workout snapshot", slog.String("key", s.key), slog.Any("error", err))
		return nil, nil
	}
	return workouts, nil
}

func (s *Snapshots) Clear(ctx context.Context) error {
	if err := s.kv.Remove(ctx, s.key); err != nil {
		return fmt.Errorf("error clearing workouts: %w", err)
	}
	return nil
}

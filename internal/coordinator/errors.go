package coordinator

import (
	"errors"
	"fmt"
)

var ErrGeolocationUnavailable = errors.New("geolocation unavailable")

// AlignmentFault reports workouts and map markers that are out of step. It
// means a bug in the coordinator, not bad input.
type AlignmentFault struct {
	Workouts int
	Markers  int
	Missing  []string
}

func (f *AlignmentFault) Error() string {
	return fmt.Sprintf("workouts and markers out of step: %d workouts, %d markers, missing %v", f.Workouts, f.Markers, f.Missing)
}

package exercise

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date form used by local and remote records.
const DateLayout = "2006-01-02"

const (
	MinReps = 1
	MaxReps = 100

	MinWorkoutWeight = 0.5
	MaxWorkoutWeight = 500

	MinBodyWeight = 30
	MaxBodyWeight = 300
)

// ValidationError describes a record field outside its accepted range.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func ValidateWorkout(reps int, weight float64) error {
	if reps < MinReps || reps > MaxReps {
		return &ValidationError{Field: "reps", Reason: fmt.Sprintf("%d not in %d-%d", reps, MinReps, MaxReps)}
	}
	if weight < MinWorkoutWeight || weight > MaxWorkoutWeight {
		return &ValidationError{Field: "weight", Reason: fmt.Sprintf("%g not in %g-%g", weight, MinWorkoutWeight, float64(MaxWorkoutWeight))}
	}
	return nil
}

func ValidateBodyWeight(weight float64) error {
	if weight < MinBodyWeight || weight > MaxBodyWeight {
		return &ValidationError{Field: "body weight", Reason: fmt.Sprintf("%g not in %d-%d", weight, MinBodyWeight, MaxBodyWeight)}
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD calendar date. Timestamps are accepted and
// truncated to their date so older exports with full ISO strings still load.
func ParseDate(s string) (time.Time, error) {
	if d, err := time.Parse(DateLayout, s); err == nil {
		return d, nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Reason: fmt.Sprintf("%q is not a calendar date", s)}
	}
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC), nil
}

package migration

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated = errors.New("user must be authenticated to migrate data")
	ErrNoLocalData      = errors.New("no local data found to migrate")
)

// AuthenticationError aborts a run before any record is transferred.
type AuthenticationError struct{}

func (e *AuthenticationError) Error() string { return ErrNotAuthenticated.Error() }

func (e *AuthenticationError) Unwrap() error { return ErrNotAuthenticated }

// NoDataError aborts a run when the device holds no readable snapshot.
type NoDataError struct{}

func (e *NoDataError) Error() string { return ErrNoLocalData.Error() }

func (e *NoDataError) Unwrap() error { return ErrNoLocalData }

// RecordKind names the phase a record belongs to.
type RecordKind string

const (
	KindExercise   RecordKind = "exercise"
	KindWorkout    RecordKind = "workout"
	KindBodyWeight RecordKind = "body weight"
)

// RecordTransferError is a single record that did not reach the remote store.
// It never aborts the run.
type RecordTransferError struct {
	Kind  RecordKind
	Label string
	Err   error
}

func (e *RecordTransferError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("Failed to migrate %s: %s", e.Kind, e.Label)
	}
	return fmt.Sprintf("Failed to migrate %s: %s: %s", e.Kind, e.Label, e.Err)
}

func (e *RecordTransferError) Unwrap() error { return e.Err }

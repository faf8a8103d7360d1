// Package migration moves the pre-account data kept on the device into the
// remote store exactly once per device.
package migration

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/sadopc/liftlog/internal/exercise"
	"github.com/sadopc/liftlog/internal/observability"
	"github.com/sadopc/liftlog/internal/remote"
)

// Gateway is the part of the remote store the migration writes through.
type Gateway interface {
	// CurrentAccountID reads the local session only; it makes no remote call.
	CurrentAccountID(ctx context.Context) (string, bool)
	// EnsureExerciseInLibrary is idempotent.
	EnsureExerciseInLibrary(ctx context.Context, name string) error
	// CreateWorkout is a plain insert; calling it twice stores two rows.
	CreateWorkout(ctx context.Context, exerciseName string, reps int, weight float64, date string) (*remote.Workout, error)
	// UpsertBodyWeight replaces any entry for the same account and date.
	UpsertBodyWeight(ctx context.Context, weight float64, date string) (*remote.BodyWeight, error)
}

// Engine runs a single migration attempt. It reads the snapshot but never
// writes the marker or clears the snapshot; that is left to the caller.
//
// Records are sent one at a time; concurrent Run calls are not guarded.
type Engine struct {
	snapshots *SnapshotStore
	gateway   Gateway
}

func NewEngine(snapshots *SnapshotStore, gateway Gateway) *Engine {
	return &Engine{snapshots: snapshots, gateway: gateway}
}

// Run transfers exercises, then workouts, then body weights. Only a missing
// account or a missing snapshot abort the run; every other failure is
// collected in the result.
func (e *Engine) Run(ctx context.Context) Result {
	// The session lookup is local, so checking it before the snapshot read
	// still leaves the remote store untouched when either is missing.
	accountID, ok := e.gateway.CurrentAccountID(ctx)
	if !ok {
		log.Warn("migration refused: no authenticated account")
		observability.RecordRun(observability.RunAborted)
		return failed(&AuthenticationError{})
	}

	snap, ok := e.snapshots.ReadSnapshot(ctx)
	if !ok {
		log.Warn("migration refused: no local snapshot")
		observability.RecordRun(observability.RunAborted)
		return failed(&NoDataError{})
	}

	logger := log.WithField("account", accountID)
	logger.WithFields(log.Fields{
		"workouts":    len(snap.Workouts),
		"bodyWeights": len(snap.BodyWeights),
		"exercises":   len(snap.ExerciseLibrary),
	}).Info("starting migration")

	res := Result{Errors: []string{}}
	e.migrateExercises(ctx, logger, snap.ExerciseLibrary, &res)
	e.reportMalformed(logger, snap, KindExercise, &res)
	e.migrateWorkouts(ctx, logger, snap.Workouts, &res)
	e.reportMalformed(logger, snap, KindWorkout, &res)
	e.migrateBodyWeights(ctx, logger, snap.BodyWeights, &res)
	e.reportMalformed(logger, snap, KindBodyWeight, &res)
	res.Success = true

	if res.Clean() {
		observability.RecordRun(observability.RunClean)
	} else {
		observability.RecordRun(observability.RunPartial)
	}
	logger.WithFields(log.Fields{
		"workouts":    res.WorkoutsMigrated,
		"bodyWeights": res.BodyWeightsMigrated,
		"exercises":   res.ExercisesMigrated,
		"errors":      len(res.Errors),
	}).Info("migration finished")
	return res
}

func (e *Engine) migrateExercises(ctx context.Context, logger *log.Entry, names []string, res *Result) {
	seen := make(map[string]struct{}, len(names))
	for _, raw := range names {
		name, err := exercise.ValidateName(raw)
		if err != nil {
			e.fail(logger, res, &RecordTransferError{Kind: KindExercise, Label: fmt.Sprintf("%q", raw), Err: err})
			continue
		}
		if _, dup := seen[name]; dup {
			logger.Debugf("exercise %q already migrated in this run", name)
			continue
		}
		seen[name] = struct{}{}

		if err := e.gateway.EnsureExerciseInLibrary(ctx, name); err != nil {
			e.fail(logger, res, &RecordTransferError{Kind: KindExercise, Label: name, Err: err})
			continue
		}
		res.ExercisesMigrated++
		observability.RecordTransfer(string(KindExercise), true)
	}
}

func (e *Engine) migrateWorkouts(ctx context.Context, logger *log.Entry, workouts []LocalWorkout, res *Result) {
	for _, w := range workouts {
		label := fmt.Sprintf("%s on %s", w.ExerciseName, w.Date)
		name, err := exercise.ValidateName(w.ExerciseName)
		if err != nil {
			e.fail(logger, res, &RecordTransferError{Kind: KindWorkout, Label: label, Err: err})
			continue
		}
		if _, err := e.gateway.CreateWorkout(ctx, name, w.Reps, w.Weight, w.Date); err != nil {
			e.fail(logger, res, &RecordTransferError{Kind: KindWorkout, Label: label, Err: err})
			continue
		}
		res.WorkoutsMigrated++
		observability.RecordTransfer(string(KindWorkout), true)
	}
}

func (e *Engine) migrateBodyWeights(ctx context.Context, logger *log.Entry, weights []LocalBodyWeight, res *Result) {
	for _, bw := range weights {
		if _, err := e.gateway.UpsertBodyWeight(ctx, bw.Weight, bw.Date); err != nil {
			e.fail(logger, res, &RecordTransferError{
				Kind:  KindBodyWeight,
				Label: fmt.Sprintf("%gkg on %s", bw.Weight, bw.Date),
				Err:   err,
			})
			continue
		}
		res.BodyWeightsMigrated++
		observability.RecordTransfer(string(KindBodyWeight), true)
	}
}

// reportMalformed records the entries of one kind that could not be decoded.
func (e *Engine) reportMalformed(logger *log.Entry, snap *Snapshot, kind RecordKind, res *Result) {
	for _, m := range snap.malformed(kind) {
		e.fail(logger, res, m.transferError())
	}
}

func (e *Engine) fail(logger *log.Entry, res *Result, err *RecordTransferError) {
	logger.WithFields(log.Fields{
		"kind":  err.Kind,
		"label": err.Label,
	}).Errorf("record migration failed: %s", err.Err)
	observability.RecordTransfer(string(err.Kind), false)
	res.record(err)
}

package migration

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/liftlog/internal/remote"
)

func seed(t *testing.T, snaps *SnapshotStore, snap Snapshot) {
	t.Helper()
	require.NoError(t, snaps.WriteSnapshot(context.Background(), snap))
}

func TestRunScenario(t *testing.T) {
	ctx := context.Background()
	snaps, _ := newTestSnapshots(t)
	seed(t, snaps, Snapshot{
		Workouts:        []LocalWorkout{{ExerciseName: "bench press", Reps: 8, Weight: 60, Date: "2024-01-01"}},
		BodyWeights:     []LocalBodyWeight{{Weight: 80, Date: "2024-01-01"}},
		ExerciseLibrary: []string{"bench press"},
	})
	gw := newFlakyGateway(testAccount)

	res := NewEngine(snaps, gw).Run(ctx)

	assert.Equal(t, Result{
		Success:             true,
		WorkoutsMigrated:    1,
		BodyWeightsMigrated: 1,
		ExercisesMigrated:   1,
		Errors:              []string{},
	}, res)
	assert.True(t, res.Clean())
	assert.Equal(t, []string{"Bench Press"}, gw.Library(testAccount))
	assert.Equal(t, "Bench Press", gw.Workouts(testAccount)[0].ExerciseName)
}

func TestRunDedupesExerciseNames(t *testing.T) {
	snaps, _ := newTestSnapshots(t)
	seed(t, snaps, Snapshot{ExerciseLibrary: []string{"squat", "Squat ", "deadlift"}})
	gw := newFlakyGateway(testAccount)

	res := NewEngine(snaps, gw).Run(context.Background())

	assert.LessOrEqual(t, res.ExercisesMigrated, 2)
	assert.Equal(t, 2, res.ExercisesMigrated)
	assert.Equal(t, []string{"Deadlift", "Squat"}, gw.Library(testAccount))
	assert.Empty(t, res.Errors)
}

func TestRunBlankExerciseNameIsRecorded(t *testing.T) {
	snaps, _ := newTestSnapshots(t)
	seed(t, snaps, Snapshot{ExerciseLibrary: []string{"   ", "squat"}})
	gw := newFlakyGateway(testAccount)

	res := NewEngine(snaps, gw).Run(context.Background())

	assert.True(t, res.Success)
	assert.Equal(t, 1, res.ExercisesMigrated)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "Failed to migrate exercise")
	assert.Equal(t, []string{"Squat"}, gw.Library(testAccount))
}

func TestRunOneWorkoutFails(t *testing.T) {
	snaps, _ := newTestSnapshots(t)
	var workouts []LocalWorkout
	for i := 0; i < 5; i++ {
		workouts = append(workouts, LocalWorkout{ExerciseName: "Squat", Reps: 5, Weight: 100 + float64(i), Date: "2024-01-0" + string(rune('1'+i))})
	}
	seed(t, snaps, Snapshot{Workouts: workouts})
	gw := newFlakyGateway(testAccount)
	gw.failWorkout[2] = true

	res := NewEngine(snaps, gw).Run(context.Background())

	assert.True(t, res.Success)
	assert.Equal(t, 4, res.WorkoutsMigrated)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "Failed to migrate workout: Squat on 2024-01-03: backend unavailable", res.Errors[0])
	assert.False(t, res.Clean())
}

func TestRunMistypedRecordDoesNotBlockOthers(t *testing.T) {
	ctx := context.Background()
	snaps, kv := newTestSnapshots(t)
	raw := `{
		"workouts": [
			{"id":"w1","exerciseName":"Squat","reps":"5","weight":100,"date":"2024-01-01"},
			{"id":"w2","exerciseName":"Squat","reps":5,"weight":100,"date":"2024-01-02"}
		],
		"bodyWeights": [{"id":"b1","weight":80,"date":"2024-01-01"}],
		"exerciseLibrary": ["squat"]
	}`
	require.NoError(t, kv.Set(ctx, SnapshotKey, raw))
	gw := newFlakyGateway(testAccount)

	res := NewEngine(snaps, gw).Run(ctx)

	assert.True(t, res.Success)
	assert.Equal(t, 1, res.ExercisesMigrated)
	assert.Equal(t, 1, res.WorkoutsMigrated)
	assert.Equal(t, 1, res.BodyWeightsMigrated)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "Failed to migrate workout: entry 1: unreadable record")
	assert.False(t, res.Clean())
	require.Len(t, gw.Workouts(testAccount), 1)
	assert.Equal(t, "2024-01-02", gw.Workouts(testAccount)[0].Date.Format("2006-01-02"))
}

func TestRunExerciseFailureDoesNotAbort(t *testing.T) {
	snaps, _ := newTestSnapshots(t)
	seed(t, snaps, Snapshot{
		ExerciseLibrary: []string{"bench press", "squat"},
		BodyWeights:     []LocalBodyWeight{{Weight: 80, Date: "2024-01-01"}},
	})
	gw := newFlakyGateway(testAccount)
	gw.failName["Bench Press"] = true

	res := NewEngine(snaps, gw).Run(context.Background())

	assert.True(t, res.Success)
	assert.Equal(t, 1, res.ExercisesMigrated)
	assert.Equal(t, 1, res.BodyWeightsMigrated)
	assert.Equal(t, []string{"Failed to migrate exercise: Bench Press: backend unavailable"}, res.Errors)
}

func TestRunInvalidRecordsAreRecorded(t *testing.T) {
	snaps, _ := newTestSnapshots(t)
	seed(t, snaps, Snapshot{
		Workouts:    []LocalWorkout{{ExerciseName: "Squat", Reps: 0, Weight: 100, Date: "2024-01-01"}},
		BodyWeights: []LocalBodyWeight{{Weight: 5, Date: "2024-01-01"}},
	})
	gw := newFlakyGateway(testAccount)

	res := NewEngine(snaps, gw).Run(context.Background())

	assert.True(t, res.Success)
	assert.Zero(t, res.Total())
	require.Len(t, res.Errors, 2)
	assert.Contains(t, res.Errors[1], "Failed to migrate body weight: 5kg on 2024-01-01")
}

func TestRerunBodyWeightIdempotentWorkoutsDuplicate(t *testing.T) {
	ctx := context.Background()
	snaps, _ := newTestSnapshots(t)
	seed(t, snaps, Snapshot{
		Workouts: []LocalWorkout{{ExerciseName: "Squat", Reps: 5, Weight: 100, Date: "2024-01-01"}},
		BodyWeights: []LocalBodyWeight{
			{Weight: 80, Date: "2024-01-01"},
			{Weight: 80.4, Date: "2024-01-01"},
		},
	})
	gw := newFlakyGateway(testAccount)
	engine := NewEngine(snaps, gw)

	first := engine.Run(ctx)
	second := engine.Run(ctx)

	assert.Equal(t, 2, first.BodyWeightsMigrated)
	assert.Equal(t, 2, second.BodyWeightsMigrated)
	rows := gw.BodyWeights(testAccount)
	require.Len(t, rows, 1)
	assert.Equal(t, 80.4, rows[0].Weight)

	// Workouts have no natural key and are inserted again.
	assert.Len(t, gw.Workouts(testAccount), 2)
}

func TestRunWithoutSnapshot(t *testing.T) {
	snaps, _ := newTestSnapshots(t)
	gw := newFlakyGateway(testAccount)

	res := NewEngine(snaps, gw).Run(context.Background())

	assert.False(t, res.Success)
	assert.Equal(t, []string{ErrNoLocalData.Error()}, res.Errors)
	assert.Zero(t, res.Total())
	assert.Zero(t, gw.calls)
}

func TestRunWithCorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	snaps, kv := newTestSnapshots(t)
	require.NoError(t, kv.Set(ctx, SnapshotKey, "]["))
	gw := newFlakyGateway(testAccount)

	res := NewEngine(snaps, gw).Run(ctx)

	assert.False(t, res.Success)
	assert.Len(t, res.Errors, 1)
	assert.Zero(t, gw.calls)
}

func TestRunUnauthenticated(t *testing.T) {
	snaps, _ := newTestSnapshots(t)
	seed(t, snaps, Snapshot{ExerciseLibrary: []string{"squat"}})
	gw := newFlakyGateway("")

	res := NewEngine(snaps, gw).Run(context.Background())

	assert.False(t, res.Success)
	assert.Equal(t, []string{ErrNotAuthenticated.Error()}, res.Errors)
	assert.Zero(t, gw.calls)
}

func TestRunNeverTouchesMarkerOrSnapshot(t *testing.T) {
	ctx := context.Background()
	snaps, _ := newTestSnapshots(t)
	seed(t, snaps, Snapshot{ExerciseLibrary: []string{"squat"}})

	res := NewEngine(snaps, remote.NewMemory(remote.StaticSession(testAccount))).Run(ctx)
	require.True(t, res.Clean())

	_, marked := snaps.Marker(ctx)
	assert.False(t, marked)
	_, stored := snaps.ReadSnapshot(ctx)
	assert.True(t, stored)
}

func TestErrorTypes(t *testing.T) {
	assert.True(t, errors.Is(&AuthenticationError{}, ErrNotAuthenticated))
	assert.Equal(t, ErrNotAuthenticated.Error(), (&AuthenticationError{}).Error())
	assert.True(t, errors.Is(&NoDataError{}, ErrNoLocalData))

	rte := &RecordTransferError{Kind: KindWorkout, Label: "Squat on 2024-01-01", Err: errBackend}
	assert.True(t, errors.Is(rte, errBackend))
	assert.Equal(t, "Failed to migrate workout: Squat on 2024-01-01", (&RecordTransferError{Kind: KindWorkout, Label: "Squat on 2024-01-01"}).Error())
}

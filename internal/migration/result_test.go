package migration

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultErrorPreview(t *testing.T) {
	var r Result
	for i := 0; i < 5; i++ {
		r.Errors = append(r.Errors, fmt.Sprintf("err %d", i))
	}

	shown, more := r.ErrorPreview(3)
	assert.Equal(t, []string{"err 0", "err 1", "err 2"}, shown)
	assert.Equal(t, 2, more)

	shown, more = r.ErrorPreview(10)
	assert.Len(t, shown, 5)
	assert.Zero(t, more)

	shown, more = r.ErrorPreview(-1)
	assert.Empty(t, shown)
	assert.Equal(t, 5, more)
}

func TestResultClean(t *testing.T) {
	assert.True(t, Result{Success: true}.Clean())
	assert.False(t, Result{Success: true, Errors: []string{"x"}}.Clean())
	assert.False(t, Result{}.Clean())
	assert.Equal(t, 6, Result{WorkoutsMigrated: 1, BodyWeightsMigrated: 2, ExercisesMigrated: 3}.Total())
}

package migration

// Result sums up one migration attempt.
//
// Success means every phase was attempted. A run with Success and a
// non-empty Errors list migrated only part of the data; use Clean to tell
// the two apart.
type Result struct {
	Success             bool     `json:"success"`
	WorkoutsMigrated    int      `json:"workoutsMigrated"`
	BodyWeightsMigrated int      `json:"bodyWeightsMigrated"`
	ExercisesMigrated   int      `json:"exercisesMigrated"`
	Errors              []string `json:"errors"`
}

func failed(err error) Result {
	return Result{Errors: []string{err.Error()}}
}

// Clean reports a fully successful run.
func (r Result) Clean() bool {
	return r.Success && len(r.Errors) == 0
}

// Total is the number of records that reached the remote store.
func (r Result) Total() int {
	return r.WorkoutsMigrated + r.BodyWeightsMigrated + r.ExercisesMigrated
}

// ErrorPreview returns at most n error messages and how many were left out.
func (r Result) ErrorPreview(n int) ([]string, int) {
	if n < 0 {
		n = 0
	}
	if len(r.Errors) <= n {
		return r.Errors, 0
	}
	return r.Errors[:n], len(r.Errors) - n
}

func (r *Result) record(err *RecordTransferError) {
	r.Errors = append(r.Errors, err.Error())
}

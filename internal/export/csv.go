// Package export writes the local snapshot to backup files.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/sadopc/liftlog/internal/migration"
)

// ToCSV writes one row per workout, body weight and library exercise.
func ToCSV(snap *migration.Snapshot, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	// Header
	if err := w.Write([]string{"Type", "Date", "Exercise", "Reps", "Weight", "Volume"}); err != nil {
		return err
	}

	for _, wo := range snap.Workouts {
		row := []string{
			"workout",
			wo.Date,
			wo.ExerciseName,
			strconv.Itoa(wo.Reps),
			formatWeight(wo.Weight),
			formatWeight(float64(wo.Reps) * wo.Weight),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	for _, bw := range snap.BodyWeights {
		if err := w.Write([]string{"body_weight", bw.Date, "", "", formatWeight(bw.Weight), ""}); err != nil {
			return err
		}
	}

	for _, name := range snap.ExerciseLibrary {
		if err := w.Write([]string{"exercise", "", name, "", "", ""}); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatWeight(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

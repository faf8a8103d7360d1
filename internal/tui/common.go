package tui

import (
	"github.com/sadopc/liftlog/internal/migration"
)

// screenState follows the migration lifecycle of the device.
type screenState int

const (
	screenChecking screenState = iota
	screenPreview
	screenMigrating
	screenResult
	screenSkipped
	screenNothing
)

// --- Messages ---

type checkedMsg struct {
	needed bool
	snap   *migration.Snapshot
	err    error
}

type migratedMsg struct {
	result migration.Result
}

type skippedMsg struct {
	err error
}

type statusMsg struct {
	text    string
	isError bool
}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

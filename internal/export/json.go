package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/liftlog/internal/migration"
)

// jsonExport keeps the snapshot layout so a backup can be seeded back.
type jsonExport struct {
	ExportedAt string `json:"exportedAt"`
	migration.Snapshot
}

func ToJSON(snap *migration.Snapshot, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Snapshot:   *snap,
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

// FromJSON reads a snapshot backup or a raw legacy data export.
func FromJSON(path string) (*migration.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read json file: %w", err)
	}

	var export jsonExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("parse json file: %w", err)
	}
	return &export.Snapshot, nil
}

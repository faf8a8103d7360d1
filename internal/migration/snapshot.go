package migration

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	SnapshotKey = "workout-tracker-data"
	MarkerKey   = "workout-tracker-migrated"
)

// KV is the device key-value primitive the snapshot store is built on.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type LocalWorkout struct {
	ID           string  `json:"id"`
	ExerciseName string  `json:"exerciseName"`
	Reps         int     `json:"reps"`
	Weight       float64 `json:"weight"`
	Date         string  `json:"date"`
	CreatedAt    string  `json:"createdAt"`
}

type LocalBodyWeight struct {
	ID        string  `json:"id"`
	Weight    float64 `json:"weight"`
	Date      string  `json:"date"`
	CreatedAt string  `json:"createdAt"`
}

// Snapshot is the pre-migration data set kept on the device.
type Snapshot struct {
	Workouts        []LocalWorkout    `json:"workouts"`
	BodyWeights     []LocalBodyWeight `json:"bodyWeights"`
	ExerciseLibrary []string          `json:"exerciseLibrary"`

	// Malformed holds stored entries that could not be decoded. The engine
	// reports each one in its phase instead of dropping the whole snapshot.
	Malformed []MalformedRecord `json:"-"`
}

// MalformedRecord is a stored entry whose fields have the wrong types.
type MalformedRecord struct {
	Kind  RecordKind
	Index int
	Err   error
}

func (m MalformedRecord) transferError() *RecordTransferError {
	return &RecordTransferError{
		Kind:  m.Kind,
		Label: fmt.Sprintf("entry %d", m.Index+1),
		Err:   fmt.Errorf("unreadable record: %w", m.Err),
	}
}

// Empty reports whether the snapshot carries no records at all.
func (s *Snapshot) Empty() bool {
	return len(s.Workouts) == 0 && len(s.BodyWeights) == 0 &&
		len(s.ExerciseLibrary) == 0 && len(s.Malformed) == 0
}

func (s *Snapshot) malformed(kind RecordKind) []MalformedRecord {
	var out []MalformedRecord
	for _, m := range s.Malformed {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

// storedSnapshot is decoded first so one bad entry only costs that entry.
type storedSnapshot struct {
	Workouts        []json.RawMessage `json:"workouts"`
	BodyWeights     []json.RawMessage `json:"bodyWeights"`
	ExerciseLibrary []json.RawMessage `json:"exerciseLibrary"`
}

func (st *storedSnapshot) decode() *Snapshot {
	snap := &Snapshot{}
	for i, raw := range st.Workouts {
		var w LocalWorkout
		if err := json.Unmarshal(raw, &w); err != nil {
			snap.Malformed = append(snap.Malformed, MalformedRecord{Kind: KindWorkout, Index: i, Err: err})
			continue
		}
		snap.Workouts = append(snap.Workouts, w)
	}
	for i, raw := range st.BodyWeights {
		var bw LocalBodyWeight
		if err := json.Unmarshal(raw, &bw); err != nil {
			snap.Malformed = append(snap.Malformed, MalformedRecord{Kind: KindBodyWeight, Index: i, Err: err})
			continue
		}
		snap.BodyWeights = append(snap.BodyWeights, bw)
	}
	for i, raw := range st.ExerciseLibrary {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			snap.Malformed = append(snap.Malformed, MalformedRecord{Kind: KindExercise, Index: i, Err: err})
			continue
		}
		snap.ExerciseLibrary = append(snap.ExerciseLibrary, name)
	}
	return snap
}

// Marker records that this device already went through the migration
// prompt, either by skipping it or by migrating.
type Marker struct {
	MigratedAt        time.Time `json:"migratedAt"`
	Skipped           bool      `json:"skipped"`
	DataMovedToRemote bool      `json:"dataMovedToRemote"`
	AccountID         string    `json:"userId,omitempty"`
}

// SnapshotStore is the only way to reach the snapshot and the marker.
type SnapshotStore struct {
	kv KV
}

func NewSnapshotStore(kv KV) *SnapshotStore {
	return &SnapshotStore{kv: kv}
}

// IsMigrationNeeded is true when no marker exists and a snapshot does.
// A present marker wins even if the snapshot was never cleared.
func (s *SnapshotStore) IsMigrationNeeded(ctx context.Context) (bool, error) {
	_, marked, err := s.kv.Get(ctx, MarkerKey)
	if err != nil {
		return false, fmt.Errorf("read marker: %w", err)
	}
	if marked {
		return false, nil
	}

	_, stored, err := s.kv.Get(ctx, SnapshotKey)
	if err != nil {
		return false, fmt.Errorf("read snapshot: %w", err)
	}
	return stored, nil
}

// ReadSnapshot returns the parsed snapshot. Missing, unreadable, null or
// corrupt data all read as absent. Entries with mistyped fields are kept
// aside in Malformed.
func (s *SnapshotStore) ReadSnapshot(ctx context.Context) (*Snapshot, bool) {
	raw, ok, err := s.kv.Get(ctx, SnapshotKey)
	if err != nil {
		log.Errorf("read local snapshot: %s", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var stored *storedSnapshot
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		log.WithField("bytes", len(raw)).Warnf("local snapshot is corrupt, ignoring it: %s", err)
		return nil, false
	}
	if stored == nil {
		log.WithField("bytes", len(raw)).Warn("local snapshot is null, ignoring it")
		return nil, false
	}

	snap := stored.decode()
	if len(snap.Malformed) > 0 {
		log.WithField("entries", len(snap.Malformed)).Warn("local snapshot has unreadable entries")
	}
	return snap, true
}

func (s *SnapshotStore) WriteSnapshot(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return s.kv.Set(ctx, SnapshotKey, string(data))
}

// WriteMarker persists m, replacing any marker already stored.
func (s *SnapshotStore) WriteMarker(ctx context.Context, m Marker) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal marker: %w", err)
	}
	if err := s.kv.Set(ctx, MarkerKey, string(data)); err != nil {
		return fmt.Errorf("write marker: %w", err)
	}
	return nil
}

// Marker returns the stored marker. An unparsable marker still counts as
// present and reads back as a completed migration with an unknown time.
func (s *SnapshotStore) Marker(ctx context.Context) (*Marker, bool) {
	raw, ok, err := s.kv.Get(ctx, MarkerKey)
	if err != nil {
		log.Errorf("read migration marker: %s", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var m Marker
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		log.Warnf("migration marker is corrupt: %s", err)
		return &Marker{DataMovedToRemote: true}, true
	}
	return &m, true
}

// ClearSnapshot removes the local snapshot. Failures are only logged.
func (s *SnapshotStore) ClearSnapshot(ctx context.Context) {
	if err := s.kv.Delete(ctx, SnapshotKey); err != nil {
		log.Errorf("clear local snapshot: %s", err)
		return
	}
	log.Info("local snapshot cleared after migration")
}

// ResetMarker forgets that the migration ran so the prompt shows again.
func (s *SnapshotStore) ResetMarker(ctx context.Context) error {
	if err := s.kv.Delete(ctx, MarkerKey); err != nil {
		return fmt.Errorf("reset marker: %w", err)
	}
	log.Info("migration marker reset")
	return nil
}

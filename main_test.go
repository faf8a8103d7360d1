package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sadopc/liftlog/internal/config"
	"github.com/sadopc/liftlog/internal/export"
	"github.com/sadopc/liftlog/internal/migration"
	"github.com/sadopc/liftlog/internal/remote"
	"github.com/sadopc/liftlog/internal/store"
)

func newTestSnapshots(t *testing.T) *migration.SnapshotStore {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return migration.NewSnapshotStore(s)
}

func TestOfflineAccount(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-7"}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{"configured", config.Config{OfflineAccount: "me", AccessToken: tok}, "me"},
		{"token subject", config.Config{AccessToken: tok}, "user-7"},
		{"opaque token", config.Config{AccessToken: "not-a-jwt"}, "offline"},
		{"nothing", config.Config{}, "offline"},
	}
	for _, tc := range cases {
		if got := offlineAccount(&tc.cfg); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestSeedDemo(t *testing.T) {
	ctx := context.Background()
	snapshots := newTestSnapshots(t)

	if err := seedSnapshot(ctx, snapshots, "demo"); err != nil {
		t.Fatal(err)
	}
	snap, ok := snapshots.ReadSnapshot(ctx)
	if !ok || len(snap.Workouts) != 3 || len(snap.ExerciseLibrary) != 4 {
		t.Fatalf("unexpected demo snapshot %+v", snap)
	}
}

func TestSeedFromExport(t *testing.T) {
	ctx := context.Background()
	snapshots := newTestSnapshots(t)

	path := filepath.Join(t.TempDir(), "legacy.json")
	legacy := `{"workouts":[{"id":"x","exerciseName":"deadlift","reps":3,"weight":140,"date":"2023-12-30"}],"bodyWeights":[],"exerciseLibrary":["deadlift"]}`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := seedSnapshot(ctx, snapshots, path); err != nil {
		t.Fatal(err)
	}
	snap, ok := snapshots.ReadSnapshot(ctx)
	if !ok || len(snap.Workouts) != 1 || snap.Workouts[0].ExerciseName != "deadlift" {
		t.Fatalf("unexpected seeded snapshot %+v", snap)
	}

	needed, err := snapshots.IsMigrationNeeded(ctx)
	if err != nil || !needed {
		t.Fatal("a seeded device should need migration")
	}
}

func TestSeedErrors(t *testing.T) {
	ctx := context.Background()
	snapshots := newTestSnapshots(t)

	if err := seedSnapshot(ctx, snapshots, filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for a missing file")
	}

	empty := filepath.Join(t.TempDir(), "empty.json")
	if err := export.ToJSON(&migration.Snapshot{}, empty); err != nil {
		t.Fatal(err)
	}
	if err := seedSnapshot(ctx, snapshots, empty); err == nil {
		t.Fatal("expected error for an export without records")
	}
	if _, ok := snapshots.ReadSnapshot(ctx); ok {
		t.Fatal("failed seeds should write nothing")
	}
}

func TestAutoMigrateOffline(t *testing.T) {
	ctx := context.Background()
	snapshots := newTestSnapshots(t)
	if err := snapshots.WriteSnapshot(ctx, demoSnapshot(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))); err != nil {
		t.Fatal(err)
	}

	mem := remote.NewMemory(remote.StaticSession("offline"))
	svc := migration.NewService(snapshots, mem)
	if err := autoMigrate(ctx, svc); err != nil {
		t.Fatal(err)
	}

	if got := mem.Library("offline"); len(got) != 4 {
		t.Fatalf("library = %v", got)
	}
	if _, ok := snapshots.ReadSnapshot(ctx); ok {
		t.Fatal("snapshot should be cleared after a clean run")
	}
	if err := autoMigrate(ctx, svc); err != nil {
		t.Fatalf("second run should find nothing to do: %v", err)
	}
}

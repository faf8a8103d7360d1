package migration

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sadopc/liftlog/internal/exercise"
)

// Service is the surface the migration screen talks to.
type Service struct {
	snapshots *SnapshotStore
	gateway   Gateway
	engine    *Engine
	now       func() time.Time
}

func NewService(snapshots *SnapshotStore, gateway Gateway) *Service {
	return &Service{
		snapshots: snapshots,
		gateway:   gateway,
		engine:    NewEngine(snapshots, gateway),
		now:       time.Now,
	}
}

func (s *Service) IsMigrationNeeded(ctx context.Context) (bool, error) {
	return s.snapshots.IsMigrationNeeded(ctx)
}

func (s *Service) PreviewLocalData(ctx context.Context) (*Snapshot, bool) {
	return s.snapshots.ReadSnapshot(ctx)
}

// RunMigration runs one attempt. Only a clean result writes the marker, so
// a partially failed run is offered again.
func (s *Service) RunMigration(ctx context.Context) Result {
	res := s.engine.Run(ctx)
	if !res.Clean() {
		return res
	}

	accountID, _ := s.gateway.CurrentAccountID(ctx)
	err := s.snapshots.WriteMarker(ctx, Marker{
		MigratedAt:        s.now().UTC(),
		DataMovedToRemote: true,
		AccountID:         accountID,
	})
	if err != nil {
		// The data is already remote; a missing marker only means the
		// prompt comes back.
		log.Errorf("mark migration completed: %s", err)
	}
	return res
}

// MarkSkipped records that the user declined the migration on this device.
func (s *Service) MarkSkipped(ctx context.Context) error {
	err := s.snapshots.WriteMarker(ctx, Marker{
		MigratedAt: s.now().UTC(),
		Skipped:    true,
	})
	if err != nil {
		return fmt.Errorf("skip migration: %w", err)
	}
	return nil
}

func (s *Service) ClearSnapshotAfterSuccess(ctx context.Context) {
	s.snapshots.ClearSnapshot(ctx)
}

// Status returns the marker if the device already went through the prompt.
func (s *Service) Status(ctx context.Context) (*Marker, bool) {
	return s.snapshots.Marker(ctx)
}

// AutoMigrate runs the migration without prompting when one is needed and
// clears the snapshot after a clean run. It returns false when nothing ran.
func (s *Service) AutoMigrate(ctx context.Context) (*Result, bool, error) {
	needed, err := s.IsMigrationNeeded(ctx)
	if err != nil {
		return nil, false, err
	}
	if !needed {
		return nil, false, nil
	}

	log.Info("auto-migration needed, starting")
	res := s.RunMigration(ctx)
	if res.Clean() {
		s.ClearSnapshotAfterSuccess(ctx)
	}
	return &res, true, nil
}

// Inventory is implemented by gateways that can list what the account holds.
type Inventory interface {
	LibraryNames(ctx context.Context) ([]string, error)
	CountRows(ctx context.Context) (workouts, bodyWeights int, err error)
}

// Verification is a read-back of the remote account after a run.
type Verification struct {
	LibrarySize int
	Workouts    int
	BodyWeights int
	// Missing lists local library names with no remote entry.
	Missing []string
}

// Verify reads the account back and checks that every name in library
// reached it. It returns false when the gateway cannot list its contents.
func (s *Service) Verify(ctx context.Context, library []string) (*Verification, bool, error) {
	inv, ok := s.gateway.(Inventory)
	if !ok {
		return nil, false, nil
	}

	names, err := inv.LibraryNames(ctx)
	if err != nil {
		return nil, true, fmt.Errorf("verify library: %w", err)
	}
	workouts, bodyWeights, err := inv.CountRows(ctx)
	if err != nil {
		return nil, true, fmt.Errorf("verify rows: %w", err)
	}

	v := &Verification{LibrarySize: len(names), Workouts: workouts, BodyWeights: bodyWeights}
	for _, local := range library {
		if _, err := exercise.ValidateName(local); err != nil {
			continue
		}
		found := false
		for _, remote := range names {
			if exercise.SameName(local, remote) {
				found = true
				break
			}
		}
		if !found {
			v.Missing = append(v.Missing, local)
		}
	}
	return v, true, nil
}

package migration

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubScanner struct {
	migrations []Migration
	err        error
}

func (s *stubScanner) ScanMigrations() ([]Migration, error) {
	return s.migrations, s.err
}

func (s *stubScanner) ValidateFileName(string) error { return nil }

type stubExecutor struct {
	applied   []AppliedMigration
	executed  []string
	recorded  []string
	execErr   error
	recordErr error
	initErr   error
}

func (e *stubExecutor) ExecuteMigration(_ context.Context, migration Migration) error {
	if e.execErr != nil {
		return e.execErr
	}
	e.executed = append(e.executed, migration.Version)
	return nil
}

func (e *stubExecutor) InitializeVersionTable(context.Context) error { return e.initErr }

func (e *stubExecutor) RecordMigration(_ context.Context, migration Migration, _ time.Duration) error {
	if e.recordErr != nil {
		return e.recordErr
	}
	e.recorded = append(e.recorded, migration.Version)
	e.applied = append(e.applied, AppliedMigration{Version: migration.Version})
	return nil
}

func (e *stubExecutor) GetAppliedVersions(context.Context) ([]AppliedMigration, error) {
	return e.applied, nil
}

func migrations(versions ...string) []Migration {
	out := make([]Migration, 0, len(versions))
	for _, v := range versions {
		out = append(out, Migration{Version: v, SQL: "SELECT 1;", FilePath: v + "_m.sql"})
	}
	return out
}

func TestManager_RunMigrations(t *testing.T) {
	t.Run("applies pending migrations in order", func(t *testing.T) {
		executor := &stubExecutor{applied: []AppliedMigration{{Version: "001"}}}
		manager := NewMigrationManager(&stubScanner{migrations: migrations("001", "002", "003")}, executor, nil)

		if err := manager.RunMigrations(context.Background()); err != nil {
			t.Fatalf("RunMigrations failed: %v", err)
		}
		if len(executor.executed) != 2 || executor.executed[0] != "002" || executor.executed[1] != "003" {
			t.Fatalf("unexpected execution order %v", executor.executed)
		}
		if len(executor.recorded) != 2 {
			t.Fatalf("expected two recorded migrations, got %v", executor.recorded)
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		executor := &stubExecutor{}
		manager := NewMigrationManager(&stubScanner{migrations: migrations("001")}, executor, nil)

		for i := 0; i < 2; i++ {
			if err := manager.RunMigrations(context.Background()); err != nil {
				t.Fatalf("run %d failed: %v", i, err)
			}
		}
		if len(executor.executed) != 1 {
			t.Fatalf("expected a single execution, got %v", executor.executed)
		}
	})

	t.Run("wraps execution failures", func(t *testing.T) {
		executor := &stubExecutor{execErr: errors.New("boom")}
		manager := NewMigrationManager(&stubScanner{migrations: migrations("001")}, executor, nil)

		err := manager.RunMigrations(context.Background())
		if !errors.Is(err, ErrMigrationFailed) {
			t.Fatalf("expected ErrMigrationFailed, got %v", err)
		}
		var migrationErr *MigrationError
		if !errors.As(err, &migrationErr) || migrationErr.Version != "001" {
			t.Fatalf("expected MigrationError for 001, got %v", err)
		}
	})

	t.Run("rejects gaps in the sequence", func(t *testing.T) {
		manager := NewMigrationManager(&stubScanner{migrations: migrations("001", "003")}, &stubExecutor{}, nil)

		if err := manager.RunMigrations(context.Background()); !errors.Is(err, ErrVersionConflict) {
			t.Fatalf("expected ErrVersionConflict, got %v", err)
		}
	})

	t.Run("rejects applied versions without files", func(t *testing.T) {
		executor := &stubExecutor{applied: []AppliedMigration{{Version: "007"}}}
		manager := NewMigrationManager(&stubScanner{migrations: migrations("001")}, executor, nil)

		if err := manager.RunMigrations(context.Background()); !errors.Is(err, ErrVersionConflict) {
			t.Fatalf("expected ErrVersionConflict, got %v", err)
		}
	})
}

func TestManager_GetMigrationStatus(t *testing.T) {
	executor := &stubExecutor{applied: []AppliedMigration{{Version: "001"}, {Version: "002"}}}
	manager := NewMigrationManager(&stubScanner{migrations: migrations("001", "002", "003")}, executor, nil)

	status, err := manager.GetMigrationStatus(context.Background())
	if err != nil {
		t.Fatalf("GetMigrationStatus failed: %v", err)
	}
	if status.CurrentVersion != "002" || status.PendingCount != 1 {
		t.Fatalf("unexpected status %+v", status)
	}
}

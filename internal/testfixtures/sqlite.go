package testfixtures

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/command-center/internal/persistence"
	"github.com/example/command-center/internal/persistence/sqlstore"
)

// SQLiteHarness provides repository access backed by a temporary SQLite storage
// instance for integration-style tests.
type SQLiteHarness struct {
	Storage    *sqlstore.Storage
	Workspaces persistence.WorkspaceRepository
	Users      persistence.UserRepository
	Projects   persistence.ProjectRepository
	Tasks      persistence.TaskRepository
	Meetings   persistence.MeetingRepository
	Summaries  persistence.SummaryRepository
	Sessions   persistence.SessionRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// will also register a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	harness, err := OpenSQLiteHarness(tb.TempDir())
	if err != nil {
		tb.Fatalf("%v", err)
	}
	tb.Cleanup(harness.Close)
	return harness
}

// OpenSQLiteHarness opens and migrates a database inside dir. The caller owns
// Close.
func OpenSQLiteHarness(dir string) (*SQLiteHarness, error) {
	path := filepath.Join(dir, "command-center.db")

	storage, err := sqlstore.OpenSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	if err := storage.Migrate(context.Background(), nil); err != nil {
		_ = storage.Close()
		return nil, fmt.Errorf("failed to migrate storage: %w", err)
	}

	return &SQLiteHarness{
		Storage:    storage,
		Workspaces: storage.Workspaces,
		Users:      storage.Users,
		Projects:   storage.Projects,
		Tasks:      storage.Tasks,
		Meetings:   storage.Meetings,
		Summaries:  storage.Summaries,
		Sessions:   storage.Sessions,
		cleanup: func() {
			_ = storage.Close()
		},
	}, nil
}

// Seed persists a workspace, its owner and any additional members. It fails the
// test on error.
func (h *SQLiteHarness) Seed(tb testing.TB, workspace WorkspaceFixture, owner UserFixture, members ...UserFixture) {
	tb.Helper()
	ctx := context.Background()

	if err := h.Users.CreateUser(ctx, owner.Persistence()); err != nil {
		tb.Fatalf("failed to create owner %s: %v", owner.ID, err)
	}
	if err := h.Workspaces.CreateWorkspace(ctx, workspace.Persistence(), workspace.OwnerMembership(owner.ID)); err != nil {
		tb.Fatalf("failed to create workspace %s: %v", workspace.ID, err)
	}
	for i, member := range members {
		if err := h.Users.CreateUser(ctx, member.Persistence()); err != nil {
			tb.Fatalf("failed to create member %s: %v", member.ID, err)
		}
		membership := persistence.Membership{
			UserID:      member.ID,
			WorkspaceID: workspace.ID,
			Role:        "member",
			JoinedAt:    workspace.CreatedAt.Add(time.Duration(i+1) * time.Minute),
		}
		if err := h.Workspaces.AddMember(ctx, membership); err != nil {
			tb.Fatalf("failed to add member %s: %v", member.ID, err)
		}
	}
}

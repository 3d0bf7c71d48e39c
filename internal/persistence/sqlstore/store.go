// Package sqlstore implements the persistence repositories on database/sql.
// SQLite (modernc.org/sqlite) is the default engine; Postgres is reached through
// the pgx stdlib driver with placeholders rebound per dialect.
package sqlstore

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/example/command-center/internal/persistence/sqlstore/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Storage bundles the connection pool with every repository.
type Storage struct {
	pool *ConnectionPool

	Workspaces *WorkspaceRepository
	Users      *UserRepository
	Projects   *ProjectRepository
	Tasks      *TaskRepository
	Meetings   *MeetingRepository
	Summaries  *SummaryRepository
	Sessions   *SessionRepository
}

// Open connects to the configured database and wires the repositories.
func Open(config Config) (*Storage, error) {
	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}
	return &Storage{
		pool:       pool,
		Workspaces: NewWorkspaceRepository(pool),
		Users:      NewUserRepository(pool),
		Projects:   NewProjectRepository(pool),
		Tasks:      NewTaskRepository(pool),
		Meetings:   NewMeetingRepository(pool),
		Summaries:  NewSummaryRepository(pool),
		Sessions:   NewSessionRepository(pool),
	}, nil
}

// OpenSQLite opens a SQLite database file with default settings.
func OpenSQLite(path string) (*Storage, error) {
	return Open(DefaultSQLiteConfig(path))
}

// Pool exposes the underlying connection pool.
func (s *Storage) Pool() *ConnectionPool {
	return s.pool
}

// Ping verifies the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}

// Migrate applies the embedded schema migrations.
func (s *Storage) Migrate(ctx context.Context, logger *slog.Logger) error {
	manager := migration.NewMigrationManager(
		migration.NewDirScanner(migrationFiles, "migrations"),
		migration.NewExecutor(s.pool.DB(), s.pool.Dialect()),
		logger,
	)
	if err := manager.RunMigrations(ctx); err != nil {
		return fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return nil
}

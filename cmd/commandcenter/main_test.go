package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/example/command-center/internal/config"
	"github.com/example/command-center/internal/persistence"
	"github.com/example/command-center/internal/persistence/sqlstore"
)

func TestParseFlags(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		opts, err := parseFlags(nil, io.Discard)
		if err != nil {
			t.Fatalf("parseFlags returned error: %v", err)
		}
		if opts != (options{}) {
			t.Fatalf("expected zero options, got %+v", opts)
		}
	})

	t.Run("all flags", func(t *testing.T) {
		t.Parallel()
		opts, err := parseFlags([]string{"--migrate-only", "--seed", "--addr", "127.0.0.1:9000", "--env-file=custom.env"}, io.Discard)
		if err != nil {
			t.Fatalf("parseFlags returned error: %v", err)
		}
		want := options{migrateOnly: true, seed: true, addr: "127.0.0.1:9000", envFile: "custom.env"}
		if opts != want {
			t.Fatalf("expected %+v, got %+v", want, opts)
		}
	})

	t.Run("help", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		_, err := parseFlags([]string{"--help"}, &out)
		if !errors.Is(err, pflag.ErrHelp) {
			t.Fatalf("expected pflag.ErrHelp, got %v", err)
		}
		if !strings.Contains(out.String(), "--migrate-only") {
			t.Fatalf("expected usage to list flags, got %q", out.String())
		}
	})

	t.Run("unknown flag", func(t *testing.T) {
		t.Parallel()
		if _, err := parseFlags([]string{"--verbose"}, io.Discard); err == nil {
			t.Fatal("expected error for unknown flag")
		}
	})

	t.Run("positional argument", func(t *testing.T) {
		t.Parallel()
		_, err := parseFlags([]string{"serve"}, io.Discard)
		if err == nil || !strings.Contains(err.Error(), "unexpected argument: serve") {
			t.Fatalf("expected unexpected argument error, got %v", err)
		}
	})
}

func TestRunMigrateOnlyWithSeed(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "command-center.db")
	t.Setenv("COMMAND_CENTER_ENV", "development")
	t.Setenv("COMMAND_CENTER_DATABASE_DRIVER", "sqlite")
	t.Setenv("COMMAND_CENTER_DATABASE_DSN", dbPath)
	t.Setenv("COMMAND_CENTER_OTEL_ENDPOINT", "")

	var logs bytes.Buffer
	for i := 0; i < 2; i++ {
		if err := run(context.Background(), []string{"--migrate-only", "--seed"}, &logs); err != nil {
			t.Fatalf("run #%d returned error: %v", i+1, err)
		}
	}

	if !strings.Contains(logs.String(), "seed skipped") {
		t.Fatalf("expected second run to skip the seed, logs: %s", logs.String())
	}

	storage, err := sqlstore.OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite returned error: %v", err)
	}
	defer storage.Close()

	workspace, err := storage.Workspaces.GetWorkspaceBySlug(context.Background(), "alex-startup")
	if err != nil {
		t.Fatalf("expected seeded workspace: %v", err)
	}
	projects, err := storage.Projects.ListProjects(context.Background(), persistence.ProjectFilter{WorkspaceID: workspace.ID})
	if err != nil {
		t.Fatalf("ListProjects returned error: %v", err)
	}
	if len(projects) != 3 {
		t.Fatalf("expected 3 seeded projects after two runs, got %d", len(projects))
	}
}

func TestRunRejectsMissingEnvFile(t *testing.T) {
	err := run(context.Background(), []string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "load env file") {
		t.Fatalf("expected env file error, got %v", err)
	}
}

func TestRunReportsInvalidConfiguration(t *testing.T) {
	t.Setenv("COMMAND_CENTER_DATABASE_DRIVER", "oracle")

	err := run(context.Background(), []string{"--migrate-only"}, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "COMMAND_CENTER_DATABASE_DRIVER") {
		t.Fatalf("expected invalid driver error, got %v", err)
	}
}

func TestOpenStorageCreatesDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "data")
	storage, err := openStorage(config.Config{DatabaseDriver: config.DriverSQLite, DatabaseDSN: filepath.Join(dir, "app.db")})
	if err != nil {
		t.Fatalf("openStorage returned error: %v", err)
	}
	defer storage.Close()

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("expected database directory to exist, stat error: %v", err)
	}
	if err := storage.Ping(context.Background()); err != nil {
		t.Fatalf("Ping returned error: %v", err)
	}
}

type purgeRecorder struct {
	persistence.SessionRepository
	mu    sync.Mutex
	calls int
	err   error
}

func (r *purgeRecorder) DeleteExpiredSessions(context.Context, time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.err
}

func (r *purgeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestPurgeExpiredSessions(t *testing.T) {
	t.Parallel()

	recorder := &purgeRecorder{err: errors.New("database locked")}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		purgeExpiredSessions(ctx, recorder, time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for recorder.count() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected repeated purges, got %d", recorder.count())
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("purge loop did not stop after cancellation")
	}
}

func TestRandomHex(t *testing.T) {
	t.Parallel()

	token := randomHex(32)
	if len(token) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(token))
	}
	if randomHex(32) == token {
		t.Fatal("expected distinct tokens")
	}
	if len(randomHex(0)) != 32 {
		t.Fatal("expected default length of 16 bytes")
	}
}

package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/example/command-center/internal/application"
	"github.com/example/command-center/internal/calendar"
	"github.com/example/command-center/internal/config"
	httptransport "github.com/example/command-center/internal/http"
	"github.com/example/command-center/internal/identity"
	"github.com/example/command-center/internal/logging"
	"github.com/example/command-center/internal/persistence"
	"github.com/example/command-center/internal/persistence/sqlstore"
	"github.com/example/command-center/internal/seed"
	"github.com/example/command-center/internal/session"
	"github.com/example/command-center/internal/telemetry"
)

var version = "dev"

const sessionPurgeInterval = time.Hour

type options struct {
	migrateOnly bool
	seed        bool
	addr        string
	envFile     string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func parseFlags(args []string, output io.Writer) (options, error) {
	var opts options
	flagSet := pflag.NewFlagSet("commandcenter", pflag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.BoolVar(&opts.migrateOnly, "migrate-only", false, "apply database migrations (and the seed when --seed is set) then exit")
	flagSet.BoolVar(&opts.seed, "seed", false, "load the demo workspace unless its slug already exists")
	flagSet.StringVar(&opts.addr, "addr", "", "listen address (default \":$COMMAND_CENTER_HTTP_PORT\")")
	flagSet.StringVar(&opts.envFile, "env-file", "", "dotenv file to load before reading the environment (default .env when present)")
	flagSet.Usage = func() {
		fmt.Fprintf(output, "Usage: commandcenter [flags]\n\nServes the startup command center API.\n\nFlags:\n")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		return options{}, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return options{}, fmt.Errorf("unexpected argument: %s", rest[0])
	}
	return opts, nil
}

func run(ctx context.Context, args []string, logOutput io.Writer) error {
	opts, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}

	if err := config.LoadEnvFile(opts.envFile); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	tel, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint:       cfg.OTel.Endpoint,
		Headers:        cfg.OTel.Headers,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: version,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tel.Shutdown(shutdownCtx)
	}()

	logger := logging.NewLogger(logging.Options{
		Production:  cfg.IsProduction(),
		Export:      tel != nil,
		ServiceName: cfg.OTel.ServiceName,
		Output:      logOutput,
	})
	slog.SetDefault(logger)

	storage, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(ctx, logger); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	if opts.seed {
		if err := seedDemo(ctx, storage, cfg, logger); err != nil {
			return err
		}
	}
	if opts.migrateOnly {
		logger.Info("migrations applied, exiting", "driver", cfg.DatabaseDriver)
		return nil
	}

	var (
		cache     application.SessionCache
		redisPing httptransport.Pinger
	)
	if cfg.RedisURL != "" {
		store, err := session.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("session cache unavailable, continuing without it", "error", err)
		} else {
			defer store.Close()
			cache = store
			redisPing = store
		}
	}

	var provider application.IdentityProvider
	if cfg.WorkOS.Configured() {
		workos, err := identity.NewWorkOS(identity.Config{
			APIKey:      cfg.WorkOS.APIKey,
			ClientID:    cfg.WorkOS.ClientID,
			RedirectURI: cfg.WorkOS.RedirectURI,
		})
		if err != nil {
			return err
		}
		provider = workos
	} else {
		logger.Warn("WorkOS credentials not set, login is disabled")
	}

	handler := newHandler(cfg, storage, provider, cache, redisPing, logger)

	addr := opts.addr
	if addr == "" {
		addr = fmt.Sprintf(":%d", cfg.HTTPPort)
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go purgeExpiredSessions(ctx, storage.Sessions, sessionPurgeInterval, logger)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("command center API listening", "addr", server.Addr, "env", cfg.Env, "driver", cfg.DatabaseDriver)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server encountered error: %w", err)
	}
	return nil
}

func openStorage(cfg config.Config) (*sqlstore.Storage, error) {
	var dbConfig sqlstore.Config
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		dbConfig = sqlstore.DefaultPostgresConfig(cfg.DatabaseDSN)
	default:
		if dir := filepath.Dir(cfg.DatabaseDSN); cfg.DatabaseDSN != ":memory:" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dbConfig = sqlstore.DefaultSQLiteConfig(cfg.DatabaseDSN)
	}

	storage, err := sqlstore.Open(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	return storage, nil
}

func seedDemo(ctx context.Context, storage *sqlstore.Storage, cfg config.Config, logger *slog.Logger) error {
	dataset, err := seed.Demo()
	if err != nil {
		return err
	}
	_, err = seed.Run(ctx, seed.Repositories{
		Users:      storage.Users,
		Workspaces: storage.Workspaces,
		Projects:   storage.Projects,
		Tasks:      storage.Tasks,
		Meetings:   storage.Meetings,
		Summaries:  storage.Summaries,
	}, dataset, seed.Options{
		IDGenerator: uuid.NewString,
		Now:         time.Now,
		Calendar:    calendar.New(cfg.Location),
		Logger:      logger,
	})
	return err
}

func newHandler(cfg config.Config, storage *sqlstore.Storage, provider application.IdentityProvider, cache application.SessionCache, redisPing httptransport.Pinger, logger *slog.Logger) http.Handler {
	idGenerator := uuid.NewString
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now
	cal := calendar.New(cfg.Location)

	resolver := application.NewMembershipResolver(storage.Workspaces, logger)
	guard := application.NewAccessGuard(resolver, storage.Tasks, storage.Projects, storage.Meetings, logger)
	validator := application.NewMutationValidator(cal, storage.Projects, storage.Meetings, storage.Workspaces)

	taskService := application.NewTaskServiceWithLogger(storage.Tasks, resolver, guard, validator, idGenerator, now, logger)
	projectService := application.NewProjectServiceWithLogger(storage.Projects, resolver, guard, validator, idGenerator, now, logger)
	meetingService := application.NewMeetingServiceWithLogger(storage.Meetings, storage.Tasks, resolver, guard, validator, idGenerator, now, logger)
	viewService := application.NewViewServiceWithLogger(application.ViewRepositories{
		Tasks:     storage.Tasks,
		Projects:  storage.Projects,
		Meetings:  storage.Meetings,
		Summaries: storage.Summaries,
	}, resolver, guard, cal, now, logger)
	summaryService := application.NewSummaryServiceWithLogger(storage.Summaries, storage.Tasks, storage.Meetings, resolver, cal, idGenerator, now, logger)
	workspaceService := application.NewWorkspaceServiceWithLogger(storage.Workspaces, resolver, idGenerator, now, logger)
	authService := application.NewAuthService(application.AuthServiceConfig{
		Provider:       provider,
		Users:          storage.Users,
		Sessions:       storage.Sessions,
		Cache:          cache,
		IDGenerator:    idGenerator,
		TokenGenerator: tokenGenerator,
		Now:            now,
		SessionTTL:     cfg.SessionTTL,
		Logger:         logger,
	})

	checks := map[string]httptransport.Pinger{"database": storage}
	if redisPing != nil {
		checks["redis"] = redisPing
	}

	return httptransport.NewRouter(httptransport.RouterConfig{
		Auth: httptransport.NewAuthHandler(authService, httptransport.AuthConfig{
			DashboardURL: cfg.DashboardURL,
			SecureCookie: cfg.IsProduction(),
		}, logger),
		Tasks:          httptransport.NewTaskHandler(taskService, logger),
		Projects:       httptransport.NewProjectHandler(projectService, viewService, logger),
		Meetings:       httptransport.NewMeetingHandler(meetingService, logger),
		Views:          httptransport.NewViewHandler(viewService, summaryService, logger),
		Workspaces:     httptransport.NewWorkspaceHandler(workspaceService, logger),
		Health:         httptransport.NewHealthHandler(checks, logger),
		Sessions:       authService,
		AllowedOrigins: cfg.CORSOrigins,
		Logger:         logger,
	})
}

// purgeExpiredSessions deletes expired session rows once at startup and then
// on every tick until ctx is done.
func purgeExpiredSessions(ctx context.Context, sessions persistence.SessionRepository, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := sessions.DeleteExpiredSessions(ctx, time.Now()); err != nil && ctx.Err() == nil {
			logger.Warn("failed to purge expired sessions", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

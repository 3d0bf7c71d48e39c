package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "COMMAND_CENTER_"

// Environment names accepted by COMMAND_CENTER_ENV.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Database drivers accepted by COMMAND_CENTER_DATABASE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// WorkOSConfig holds the identity provider credentials.
type WorkOSConfig struct {
	APIKey      string
	ClientID    string
	RedirectURI string
}

// Configured reports whether login can be offered.
func (w WorkOSConfig) Configured() bool {
	return w.APIKey != "" && w.ClientID != ""
}

// OTelConfig selects the OTLP collector; an empty endpoint disables export.
type OTelConfig struct {
	Endpoint    string
	Headers     string
	ServiceName string
}

// Config captures environment driven configuration values for the command center.
type Config struct {
	HTTPPort       int
	Env            string
	DatabaseDriver string
	DatabaseDSN    string
	SessionTTL     time.Duration
	RedisURL       string
	WorkOS         WorkOSConfig
	DashboardURL   string
	CORSOrigins    []string
	Location       *time.Location
	OTel           OTelConfig
}

// IsProduction reports whether the process runs with production settings.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// LoadEnvFile loads variables from a dotenv file without overriding the
// process environment. An empty path reads ./.env when it exists.
func LoadEnvFile(path string) error {
	if strings.TrimSpace(path) == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Load parses configuration values from the current process environment.
//
// The loader applies defaults for optional fields and reports every missing or
// invalid entry at once.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:       8080,
		Env:            EnvDevelopment,
		DatabaseDriver: DriverSQLite,
		DatabaseDSN:    "data/command-center.db",
		SessionTTL:     30 * 24 * time.Hour,
		DashboardURL:   "http://localhost:3000/dashboard",
		Location:       time.UTC,
		OTel:           OTelConfig{ServiceName: "command-center"},
	}

	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 2)

	if portValue := getenv("HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, envPrefix+"HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if env := strings.ToLower(getenv("ENV")); env != "" {
		if env != EnvDevelopment && env != EnvProduction {
			invalid = append(invalid, envPrefix+"ENV")
		} else {
			cfg.Env = env
		}
	}

	if driver := strings.ToLower(getenv("DATABASE_DRIVER")); driver != "" {
		if driver != DriverSQLite && driver != DriverPostgres {
			invalid = append(invalid, envPrefix+"DATABASE_DRIVER")
		} else {
			cfg.DatabaseDriver = driver
		}
	}

	if dsn := getenv("DATABASE_DSN"); dsn != "" {
		cfg.DatabaseDSN = dsn
	} else if cfg.DatabaseDriver == DriverPostgres {
		missing = append(missing, envPrefix+"DATABASE_DSN")
	}

	if ttlValue := getenv("SESSION_TTL"); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, envPrefix+"SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	cfg.RedisURL = getenv("REDIS_URL")

	cfg.WorkOS = WorkOSConfig{
		APIKey:      getenv("WORKOS_API_KEY"),
		ClientID:    getenv("WORKOS_CLIENT_ID"),
		RedirectURI: getenv("WORKOS_REDIRECT_URI"),
	}
	if cfg.IsProduction() {
		for key, value := range map[string]string{
			"WORKOS_API_KEY":      cfg.WorkOS.APIKey,
			"WORKOS_CLIENT_ID":    cfg.WorkOS.ClientID,
			"WORKOS_REDIRECT_URI": cfg.WorkOS.RedirectURI,
		} {
			if value == "" {
				missing = append(missing, envPrefix+key)
			}
		}
	}

	if dashboard := getenv("DASHBOARD_URL"); dashboard != "" {
		cfg.DashboardURL = dashboard
	}

	if origins := getenv("CORS_ORIGINS"); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, trimmed)
			}
		}
	}

	if tz := getenv("TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			invalid = append(invalid, envPrefix+"TIMEZONE")
		} else {
			cfg.Location = loc
		}
	}

	cfg.OTel.Endpoint = getenv("OTEL_ENDPOINT")
	cfg.OTel.Headers = getenv("OTEL_HEADERS")
	if name := getenv("OTEL_SERVICE_NAME"); name != "" {
		cfg.OTel.ServiceName = name
	}

	if len(missing) > 0 {
		slices.Sort(missing)
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables have invalid values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + key))
}

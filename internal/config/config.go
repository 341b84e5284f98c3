package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for configuration fields.
const (
	DefaultConfigFile       = "dealdb.yml"
	DefaultMigrationsDir    = "./sql"
	DefaultLockTimeout      = 5 * time.Second
	DefaultStatementTimeout = 5 * time.Minute
	DefaultSplitMode        = "scanner"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
)

// Defaults for the legacy DB_* variables used by the original setup scripts.
const (
	DefaultDBHost = "localhost"
	DefaultDBPort = 5432
	DefaultDBName = "deal_finder"
	DefaultDBUser = "postgres"
)

// Config holds the application configuration loaded from file, environment, and flags.
type Config struct {
	DatabaseURL      string
	MigrationsDir    string
	LockTimeout      time.Duration
	LockWait         time.Duration
	StatementTimeout time.Duration
	SplitMode        string
	StrictChecksums  bool
	Extensions       []string
	RefreshViews     []string
	AnalyzeTables    []string
	LogLevel         string
	LogFormat        string
}

// yamlConfig is the raw YAML file representation with string durations.
// Pointer and nil-slice fields distinguish "unset" from an explicit empty value.
type yamlConfig struct {
	DatabaseURL      string    `yaml:"database_url"`
	MigrationsDir    string    `yaml:"migrations_dir"`
	LockTimeout      string    `yaml:"lock_timeout"`
	LockWait         string    `yaml:"lock_wait"`
	StatementTimeout string    `yaml:"statement_timeout"`
	SplitMode        string    `yaml:"split_mode"`
	StrictChecksums  *bool     `yaml:"strict_checksums"`
	Extensions       *[]string `yaml:"extensions"`
	RefreshViews     []string  `yaml:"refresh_views"`
	AnalyzeTables    []string  `yaml:"analyze_tables"`
	LogLevel         string    `yaml:"log_level"`
	LogFormat        string    `yaml:"log_format"`
}

// New returns a Config populated with default values. PostGIS is enabled by
// default because the deal tables store geometry columns.
func New() *Config {
	return &Config{
		MigrationsDir:    DefaultMigrationsDir,
		LockTimeout:      DefaultLockTimeout,
		StatementTimeout: DefaultStatementTimeout,
		SplitMode:        DefaultSplitMode,
		Extensions:       []string{"postgis"},
		LogLevel:         DefaultLogLevel,
		LogFormat:        DefaultLogFormat,
	}
}

// Load reads a YAML configuration file and returns a Config.
// If allowMissing is true and the file does not exist, defaults are returned.
func Load(path string, allowMissing bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && allowMissing {
			return New(), nil
		}

		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return fromYAML(&raw)
}

// fromYAML converts the raw YAML representation to a Config with defaults applied.
func fromYAML(raw *yamlConfig) (*Config, error) {
	cfg := New()

	setString(&cfg.DatabaseURL, raw.DatabaseURL)
	setString(&cfg.MigrationsDir, raw.MigrationsDir)
	setString(&cfg.SplitMode, raw.SplitMode)
	setString(&cfg.LogLevel, raw.LogLevel)
	setString(&cfg.LogFormat, raw.LogFormat)

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"lock_timeout", raw.LockTimeout, &cfg.LockTimeout},
		{"lock_wait", raw.LockWait, &cfg.LockWait},
		{"statement_timeout", raw.StatementTimeout, &cfg.StatementTimeout},
	}

	for _, d := range durations {
		if d.raw == "" {
			continue
		}

		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return nil, fmt.Errorf("parsing %s %q: %w", d.key, d.raw, err)
		}

		*d.dst = v
	}

	if raw.StrictChecksums != nil {
		cfg.StrictChecksums = *raw.StrictChecksums
	}

	if raw.Extensions != nil {
		cfg.Extensions = *raw.Extensions
	}

	if raw.RefreshViews != nil {
		cfg.RefreshViews = raw.RefreshViews
	}

	if raw.AnalyzeTables != nil {
		cfg.AnalyzeTables = raw.AnalyzeTables
	}

	return cfg, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// MergeEnv overrides config fields from DEALDB_* environment variables. When
// no database URL is configured anywhere, one is built from the DB_HOST,
// DB_PORT, DB_NAME, DB_USER and DB_PASSWORD variables the ECS task and the
// legacy scripts use. A duration that does not parse is an error.
func MergeEnv(cfg *Config) error {
	if v := os.Getenv("DEALDB_DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}

	if v := os.Getenv("DEALDB_MIGRATIONS_DIR"); v != "" {
		cfg.MigrationsDir = v
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"DEALDB_LOCK_TIMEOUT", &cfg.LockTimeout},
		{"DEALDB_LOCK_WAIT", &cfg.LockWait},
		{"DEALDB_STATEMENT_TIMEOUT", &cfg.StatementTimeout},
	}

	for _, d := range durations {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}

		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", d.key, v, err)
		}

		*d.dst = parsed
	}

	if v := os.Getenv("DEALDB_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if cfg.DatabaseURL == "" && os.Getenv("DB_HOST") != "" {
		cfg.DatabaseURL = URLFromEnv()
	}

	return nil
}

// URLFromEnv builds a postgres:// URL from the legacy DB_* variables,
// falling back to the same defaults the original scripts used.
func URLFromEnv() string {
	port := DefaultDBPort
	if v, err := strconv.Atoi(os.Getenv("DB_PORT")); err == nil && v > 0 {
		port = v
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(envOr("DB_USER", DefaultDBUser), os.Getenv("DB_PASSWORD")),
		Host:   net.JoinHostPort(envOr("DB_HOST", DefaultDBHost), strconv.Itoa(port)),
		Path:   "/" + envOr("DB_NAME", DefaultDBName),
	}

	if mode := os.Getenv("DB_SSLMODE"); mode != "" {
		u.RawQuery = url.Values{"sslmode": {mode}}.Encode()
	}

	return u.String()
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}

	return fallback
}

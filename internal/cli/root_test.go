package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/dealfinder-db/internal/config"
)

func newFlagCmd() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().String("config", config.DefaultConfigFile, "")
	cmd.Flags().String("database-url", "", "")
	cmd.Flags().String("migrations-dir", "", "")
	cmd.Flags().String("log-level", "", "")
	cmd.Flags().String("log-format", "", "")

	return cmd
}

func TestMergeFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		flag  string
		value string
		get   func(*config.Config) string
	}{
		{"database url", "database-url", "postgres://test:5432/deal_finder", func(c *config.Config) string { return c.DatabaseURL }},
		{"migrations dir", "migrations-dir", "/custom/sql", func(c *config.Config) string { return c.MigrationsDir }},
		{"log level", "log-level", "debug", func(c *config.Config) string { return c.LogLevel }},
		{"log format", "log-format", "json", func(c *config.Config) string { return c.LogFormat }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.New()
			cmd := newFlagCmd()
			require.NoError(t, cmd.Flags().Set(tt.flag, tt.value))

			mergeFlags(cmd, cfg)

			assert.Equal(t, tt.value, tt.get(cfg))
		})
	}
}

func TestMergeFlags_unchangedFlags_preserveConfig(t *testing.T) {
	t.Parallel()

	cfg := config.New()
	cfg.DatabaseURL = "postgres://original:5432/deal_finder"
	cfg.MigrationsDir = "/original/sql"

	mergeFlags(newFlagCmd(), cfg)

	assert.Equal(t, "postgres://original:5432/deal_finder", cfg.DatabaseURL)
	assert.Equal(t, "/original/sql", cfg.MigrationsDir)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
}

func TestLoadConfig_missingFile_usesDefaults(t *testing.T) { //nolint:paralleltest // mutates global AppConfig
	old := AppConfig
	t.Cleanup(func() { AppConfig = old })

	// No dealdb.yml in this directory and --config not given.
	require.NoError(t, loadConfig(newFlagCmd()))
	require.NotNil(t, AppConfig)
	assert.Equal(t, config.DefaultStatementTimeout, AppConfig.StatementTimeout)
	assert.Equal(t, []string{"postgis"}, AppConfig.Extensions)
}

func TestLoadConfig_validFile_loadsValues(t *testing.T) { //nolint:paralleltest // mutates global AppConfig
	old := AppConfig
	t.Cleanup(func() { AppConfig = old })

	cfgPath := filepath.Join(t.TempDir(), "dealdb.yml")
	yamlContent := "migrations_dir: /from/yaml\nrefresh_views:\n  - app.deals_enriched\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(yamlContent), 0o600))

	cmd := newFlagCmd()
	require.NoError(t, cmd.Flags().Set("config", cfgPath))

	require.NoError(t, loadConfig(cmd))
	assert.Equal(t, "/from/yaml", AppConfig.MigrationsDir)
	assert.Equal(t, []string{"app.deals_enriched"}, AppConfig.RefreshViews)
}

func TestLoadConfig_explicitMissingFile_returnsError(t *testing.T) { //nolint:paralleltest // mutates global AppConfig
	old := AppConfig
	t.Cleanup(func() { AppConfig = old })

	cmd := newFlagCmd()
	require.NoError(t, cmd.Flags().Set("config", filepath.Join(t.TempDir(), "absent.yml")))

	err := loadConfig(cmd)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading configuration")
}

func TestLoadConfig_invalidEnvDuration_returnsError(t *testing.T) { //nolint:paralleltest // mutates global AppConfig and env
	old := AppConfig
	t.Cleanup(func() { AppConfig = old })
	t.Setenv("DEALDB_LOCK_WAIT", "forever")

	err := loadConfig(newFlagCmd())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing DEALDB_LOCK_WAIT")
}

func TestLoadConfig_invalidFile_returnsError(t *testing.T) { //nolint:paralleltest // mutates global AppConfig
	old := AppConfig
	t.Cleanup(func() { AppConfig = old })

	cfgPath := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("extensions: [unclosed"), 0o600))

	cmd := newFlagCmd()
	require.NoError(t, cmd.Flags().Set("config", cfgPath))

	err := loadConfig(cmd)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading configuration")
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
		want    string
	}{
		{name: "text at info", level: "info", format: "text", want: "level=INFO"},
		{name: "json", level: "info", format: "json", want: `"level":"INFO"`},
		{name: "defaults", want: "level=INFO"},
		{name: "bad level", level: "loud", wantErr: true},
		{name: "bad format", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			buf := new(bytes.Buffer)

			logger, err := newLogger(buf, tt.level, tt.format)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			logger.Info("migration run started")
			logger.Debug("hidden at info")

			assert.Contains(t, buf.String(), tt.want)
			assert.NotContains(t, buf.String(), "hidden at info")
		})
	}
}

func TestNewLogger_unknownFormat_isSentinel(t *testing.T) {
	t.Parallel()

	_, err := newLogger(new(bytes.Buffer), "", "xml")

	require.ErrorIs(t, err, errUnknownLogFormat)
}

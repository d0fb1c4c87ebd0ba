package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/canvasql/pkg/adapter"
	// register the postgres adapter for database.type validation
	_ "github.com/leapstack-labs/canvasql/pkg/adapters/postgres"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "canvasql.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("state", "", "")
	flags.String("columns", "", "")
	flags.String("addr", "", "")
	flags.String("database-url", "", "")
	flags.String("log-level", "", "")
	flags.BoolP("verbose", "v", false, "")
	return flags
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, DefaultAddr, cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 50, cfg.Browse.DefaultLimit)
	assert.Equal(t, 5000, cfg.Browse.MaxLimit)
	assert.Equal(t, 10, cfg.Query.DefaultLimit)
	assert.Equal(t, 1000, cfg.Preview.MaxRows)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, GetConfigFileUsed())

	root, err := filepath.EvalSymlinks(cfg.ProjectRoot)
	require.NoError(t, err)
	wantRoot, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, wantRoot, root)
	assert.Equal(t, filepath.Join(cfg.ProjectRoot, ".canvasql", "state.db"), cfg.StatePath)
	assert.Equal(t, filepath.Join(cfg.ProjectRoot, "columns.json"), cfg.ColumnsFile)
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_FileFoundUpward(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
database:
  host: db.internal
  port: 6543
  name: analytics
  user: reader
  sslmode: require
browse:
  default_limit: 25
state_path: data/state.db
`)
	sub := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0o750))
	t.Chdir(sub)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, 25, cfg.Browse.DefaultLimit)
	assert.Equal(t, filepath.Join(cfg.ProjectRoot, "data", "state.db"), cfg.StatePath)
	assert.NotEmpty(t, GetConfigFileUsed())

	ac := cfg.Database.AdapterConfig()
	assert.Equal(t, "analytics", ac.Database)
	assert.Equal(t, "reader", ac.Username)
	assert.Equal(t, "require", ac.Options["sslmode"])
}

func TestLoadConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeConfig(t, dir, `
server:
  addr: ":9000"
log:
  level: warn
database:
  host: from-file
`)
	t.Setenv("CANVASQL_DATABASE__HOST", "from-env")
	t.Setenv("CANVASQL_LOG__LEVEL", "error")
	t.Setenv("CANVASQL_QUERY__DEFAULT_LIMIT", "20")
	t.Setenv("CANVASQL_SERVER__SHUTDOWN_TIMEOUT", "30s")

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--addr", ":7000", "--state", "custom.db"}))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr, "flag beats file")
	assert.Equal(t, "from-env", cfg.Database.Host, "env beats file")
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, 20, cfg.Query.DefaultLimit)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.True(t, filepath.IsAbs(cfg.StatePath))
	assert.Equal(t, "custom.db", filepath.Base(cfg.StatePath))
}

func TestLoadConfig_ExpandsCredentials(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("PG_SECRET", "s3cret")
	path := writeConfig(t, dir, `
database:
  password: ${PG_SECRET}
  user: ${PG_UNSET_USER}
`)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, "${PG_UNSET_USER}", cfg.Database.User, "unset variables are left as is")
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		errSubstr string
	}{
		{"unknown database type", "database:\n  type: mysql\n", "unknown adapter type"},
		{"default above max", "browse:\n  default_limit: 100\n  max_limit: 10\n", "browse.default_limit"},
		{"bad log level", "log:\n  level: loud\n", "invalid log.level"},
		{"bad log format", "log:\n  format: xml\n", "log.format"},
		{"bad preview rows", "preview:\n  max_rows: 0\n", "preview.max_rows"},
		{"bad duration", "server:\n  shutdown_timeout: soon\n", "unable to decode config"},
		{"zero shutdown", "server:\n  shutdown_timeout: 0s\n", "server.shutdown_timeout"},
		{"bad file", "database: [", "error reading config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Chdir(dir)
			path := writeConfig(t, dir, tt.content)

			_, err := LoadConfig(path, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestValidate_UnknownAdapterError(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Type: "oracle"}}
	err := cfg.Validate()
	var unknown *adapter.UnknownAdapterError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "oracle", unknown.Type)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "database.host", envKey("CANVASQL_DATABASE__HOST"))
	assert.Equal(t, "state_path", envKey("CANVASQL_STATE_PATH"))
	assert.Equal(t, "browse.max_limit", envKey("CANVASQL_BROWSE__MAX_LIMIT"))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LogConfig{Level: "warn", Format: "json"}, false)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	logger = NewLogger(&buf, LogConfig{Level: "warn", Format: "text"}, true)
	logger.Debug("debug line")
	assert.Contains(t, buf.String(), "msg=\"debug line\"")
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	var buf bytes.Buffer
	logger := NewLogger(&buf, LogConfig{Level: "info", Format: "text"}, false)
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}

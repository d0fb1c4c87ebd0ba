// Package config provides configuration management for the canvasql CLI.
//
// Configuration is layered with koanf: built-in defaults, then
// canvasql.yaml, then CANVASQL_ environment variables, then command-line
// flags.
package config

import (
	"time"

	"github.com/leapstack-labs/canvasql/pkg/adapter"
)

// DatabaseConfig holds the connection settings of the browsed database.
type DatabaseConfig struct {
	Type         string            `koanf:"type"`
	URL          string            `koanf:"url"`
	Host         string            `koanf:"host"`
	Port         int               `koanf:"port"`
	Name         string            `koanf:"name"`
	User         string            `koanf:"user"`
	Password     string            `koanf:"password"`
	SSLMode      string            `koanf:"sslmode"`
	MaxOpenConns int               `koanf:"max_open_conns"`
	Options      map[string]string `koanf:"options"`
}

// AdapterConfig converts the database settings to an adapter config.
func (d DatabaseConfig) AdapterConfig() adapter.Config {
	opts := make(map[string]string, len(d.Options)+1)
	for k, v := range d.Options {
		opts[k] = v
	}
	if d.SSLMode != "" {
		opts["sslmode"] = d.SSLMode
	}
	return adapter.Config{
		Type:         d.Type,
		URL:          d.URL,
		Host:         d.Host,
		Port:         d.Port,
		Database:     d.Name,
		Username:     d.User,
		Password:     d.Password,
		Options:      opts,
		MaxOpenConns: d.MaxOpenConns,
	}
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// BrowseConfig holds table browse paging limits.
type BrowseConfig struct {
	DefaultLimit int `koanf:"default_limit"`
	MaxLimit     int `koanf:"max_limit"`
}

// QueryConfig holds ad-hoc query settings.
type QueryConfig struct {
	DefaultLimit int `koanf:"default_limit"`
}

// PreviewConfig holds dataset preview settings.
type PreviewConfig struct {
	MaxRows int `koanf:"max_rows"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Config holds all CLI configuration options.
type Config struct {
	Database    DatabaseConfig `koanf:"database"`
	Server      ServerConfig   `koanf:"server"`
	StatePath   string         `koanf:"state_path"`
	ColumnsFile string         `koanf:"columns_file"`
	Browse      BrowseConfig   `koanf:"browse"`
	Query       QueryConfig    `koanf:"query"`
	Preview     PreviewConfig  `koanf:"preview"`
	Log         LogConfig      `koanf:"log"`
	Verbose     bool           `koanf:"verbose"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultDatabaseType = "postgres"
	DefaultAddr         = ":8000"
	DefaultShutdown     = "5s"
	DefaultStateFile    = ".canvasql/state.db"
	DefaultColumnsFile  = "columns.json"
	DefaultBrowseLimit  = 50
	DefaultMaxLimit     = 5000
	DefaultQueryLimit   = 10
	DefaultPreviewRows  = 1000
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
)

package config

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/canvasql/pkg/adapter"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !adapter.IsRegistered(c.Database.Type) {
		return &adapter.UnknownAdapterError{Type: c.Database.Type, Available: adapter.ListAdapters()}
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive, got %s", c.Server.ShutdownTimeout)
	}
	if c.Browse.MaxLimit < 1 {
		return fmt.Errorf("browse.max_limit must be positive, got %d", c.Browse.MaxLimit)
	}
	if c.Browse.DefaultLimit < 1 || c.Browse.DefaultLimit > c.Browse.MaxLimit {
		return fmt.Errorf("browse.default_limit must be between 1 and %d, got %d", c.Browse.MaxLimit, c.Browse.DefaultLimit)
	}
	if c.Query.DefaultLimit < 1 {
		return fmt.Errorf("query.default_limit must be positive, got %d", c.Query.DefaultLimit)
	}
	if c.Preview.MaxRows < 1 {
		return fmt.Errorf("preview.max_rows must be positive, got %d", c.Preview.MaxRows)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// ParseLevel parses a log level name.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log.level %q", s)
	}
	return level, nil
}

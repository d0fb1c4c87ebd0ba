// Package commands implements the canvasql subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/canvasql/internal/adhoc"
	"github.com/leapstack-labs/canvasql/internal/cli/config"
	"github.com/leapstack-labs/canvasql/internal/engine"
	"github.com/leapstack-labs/canvasql/internal/overrides"
	"github.com/leapstack-labs/canvasql/internal/state"
	"github.com/leapstack-labs/canvasql/pkg/adapter"
)

// CommandContext holds the shared dependencies of a command.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
}

// NewCommandContext creates a CommandContext from the loaded configuration.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := config.GetCurrentConfig()
	if cfg == nil {
		cfg = &config.Config{
			Database:  config.DatabaseConfig{Type: config.DefaultDatabaseType},
			StatePath: config.DefaultStateFile,
			Browse:    config.BrowseConfig{DefaultLimit: config.DefaultBrowseLimit, MaxLimit: config.DefaultMaxLimit},
			Query:     config.QueryConfig{DefaultLimit: config.DefaultQueryLimit},
			Preview:   config.PreviewConfig{MaxRows: config.DefaultPreviewRows},
		}
	}
	return &CommandContext{
		Cfg:    cfg,
		Logger: config.GetLogger(cmd.Context()),
	}
}

// OpenStore opens and migrates the dataset store.
func (c *CommandContext) OpenStore() (*state.SQLiteStore, error) {
	store := state.NewSQLiteStore()
	if err := store.Open(c.Cfg.StatePath); err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// ConnectDatabase connects the configured database adapter.
func (c *CommandContext) ConnectDatabase(ctx context.Context) (adapter.Adapter, error) {
	adp, err := adapter.NewAdapter(c.Cfg.Database.AdapterConfig(), c.Logger)
	if err != nil {
		return nil, err
	}
	if err := adp.Connect(ctx, c.Cfg.Database.AdapterConfig()); err != nil {
		return nil, err
	}
	return adp, nil
}

// NewExecutor creates an ad-hoc executor on adp.
func (c *CommandContext) NewExecutor(adp adapter.Adapter) *adhoc.Executor {
	registry := adhoc.NewRegistry(adp, c.Logger)
	return adhoc.NewExecutor(adp, registry, c.Logger, adhoc.WithDefaultLimit(c.Cfg.Query.DefaultLimit))
}

// NewEngine creates an engine. adp and store may be nil for commands that
// only need part of it.
func (c *CommandContext) NewEngine(adp adapter.Adapter, store *state.SQLiteStore, src *overrides.Source) *engine.Engine {
	cfg := engine.Config{
		DefaultBrowseLimit: c.Cfg.Browse.DefaultLimit,
		MaxBrowseLimit:     c.Cfg.Browse.MaxLimit,
		PreviewMaxRows:     c.Cfg.Preview.MaxRows,
		Logger:             c.Logger,
	}
	if adp != nil {
		cfg.Catalog = adp
		cfg.Executor = c.NewExecutor(adp)
	}
	if store != nil {
		cfg.Datasets = store
		cfg.Semantics = store
	}
	if src != nil {
		cfg.Overrides = src
	}
	return engine.New(cfg)
}

// Package engine serves the read paths of canvasql.
//
// It joins the browsed database, the dataset store, the override file, the
// semantic mappings and the ad-hoc executor: table browsing compiles a filtered page through
// pkg/browse, dataset previews compile the join graph through pkg/dataset,
// and ad-hoc queries run through internal/adhoc.
package engine

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/leapstack-labs/canvasql/internal/adhoc"
	"github.com/leapstack-labs/canvasql/pkg/adapters/postgres"
	"github.com/leapstack-labs/canvasql/pkg/core"
)

// Defaults applied by New for unset limits.
const (
	DefaultBrowseLimit    = 50
	DefaultMaxBrowseLimit = 5000
	DefaultPreviewMaxRows = 1000
	DefaultSchema         = "public"
)

var (
	// ErrInvalidPagination is returned for a browse limit outside
	// 1..max or a negative offset.
	ErrInvalidPagination = errors.New("invalid pagination")

	// ErrUnknownObjectKind is returned for an unsupported catalog object kind.
	ErrUnknownObjectKind = errors.New("unknown object kind")

	// ErrInspectionUnsupported is returned when the catalog cannot list
	// objects beyond schemas and tables.
	ErrInspectionUnsupported = errors.New("catalog inspection not supported by this database")
)

// Catalog is the browsed database.
type Catalog interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	TableColumns(ctx context.Context, schema, table string) ([]core.CatalogColumn, error)
	ListSchemas(ctx context.Context) ([]string, error)
	ListTables(ctx context.Context, schema string) ([]string, error)
}

// Inspector lists catalog objects beyond tables. The postgres adapter
// implements it.
type Inspector interface {
	SchemasAndTables(ctx context.Context) (map[string][]string, error)
	ListObjects(ctx context.Context, schema string, kind postgres.ObjectKind) ([]string, error)
	ListIndexes(ctx context.Context, schema string) ([]postgres.Index, error)
	DescribeColumns(ctx context.Context, schema, table string) ([]postgres.ColumnInfo, error)
}

// DatasetSource loads dataset graphs.
type DatasetSource interface {
	LoadGraph(ctx context.Context, datasetID string) (*core.DatasetGraph, error)
}

// OverrideSource provides the column overrides for browsed tables.
type OverrideSource interface {
	Columns() []core.ColumnDescriptor
}

// SemanticSource provides the semantic types assigned to table columns.
type SemanticSource interface {
	SemanticColumnTypes(ctx context.Context, schema, table string) (map[string]core.UIType, error)
}

// Config holds engine configuration.
type Config struct {
	Catalog  Catalog
	Datasets DatasetSource
	// Overrides is optional.
	Overrides OverrideSource
	// Semantics is optional.
	Semantics SemanticSource
	Executor  *adhoc.Executor

	DefaultBrowseLimit int
	MaxBrowseLimit     int
	PreviewMaxRows     int

	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Engine answers browse, preview and ad-hoc requests.
type Engine struct {
	catalog   Catalog
	datasets  DatasetSource
	overrides OverrideSource
	semantics SemanticSource
	executor  *adhoc.Executor
	logger    *slog.Logger

	defaultLimit int
	maxLimit     int
	previewMax   int
}

// New creates an engine from cfg.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	e := &Engine{
		catalog:      cfg.Catalog,
		datasets:     cfg.Datasets,
		overrides:    cfg.Overrides,
		semantics:    cfg.Semantics,
		executor:     cfg.Executor,
		logger:       logger,
		defaultLimit: cfg.DefaultBrowseLimit,
		maxLimit:     cfg.MaxBrowseLimit,
		previewMax:   cfg.PreviewMaxRows,
	}
	if e.maxLimit <= 0 {
		e.maxLimit = DefaultMaxBrowseLimit
	}
	if e.defaultLimit <= 0 {
		e.defaultLimit = min(DefaultBrowseLimit, e.maxLimit)
	}
	if e.previewMax <= 0 {
		e.previewMax = DefaultPreviewMaxRows
	}
	return e
}

// ExecuteQuery runs an ad-hoc statement and returns one page of it.
func (e *Engine) ExecuteQuery(ctx context.Context, req adhoc.Request) (*adhoc.Result, error) {
	return e.executor.Execute(ctx, req)
}

// CancelQuery cancels a pending ad-hoc statement and returns the pid of its
// backend.
func (e *Engine) CancelQuery(ctx context.Context, queryID string) (int, error) {
	return e.executor.Cancel(ctx, queryID)
}

// ListSchemas returns the user-visible schemas.
func (e *Engine) ListSchemas(ctx context.Context) ([]string, error) {
	return e.catalog.ListSchemas(ctx)
}

// ListTables returns the tables of schema, defaulting to "public".
func (e *Engine) ListTables(ctx context.Context, schema string) ([]string, error) {
	if schema == "" {
		schema = DefaultSchema
	}
	return e.catalog.ListTables(ctx, schema)
}

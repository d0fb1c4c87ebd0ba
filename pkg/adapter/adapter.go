// Package adapter provides the database adapter contract for canvasql.
//
// An adapter owns the connection pool to the browsed database and answers
// catalog questions about it. Concrete adapters live in pkg/adapters/ and
// register themselves with Register from an init function.
package adapter

import (
	"context"
	"database/sql"

	"github.com/leapstack-labs/canvasql/pkg/core"
)

// Config is an alias for core.AdapterConfig.
type Config = core.AdapterConfig

// Adapter defines the interface that all database adapters must implement.
type Adapter interface {
	// Connect establishes a connection pool using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the connection pool.
	Close() error

	// QueryContext runs a statement on a pooled connection.
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)

	// Conn checks out a dedicated connection. The caller must close it.
	Conn(ctx context.Context) (*sql.Conn, error)

	// TableColumns returns the ordered columns of schema.table.
	// It returns ErrTableNotFound when the catalog reports no columns.
	TableColumns(ctx context.Context, schema, table string) ([]core.CatalogColumn, error)

	// ListSchemas returns the user-visible schemas.
	ListSchemas(ctx context.Context) ([]string, error)

	// ListTables returns the tables and views of a schema.
	ListTables(ctx context.Context, schema string) ([]string, error)

	// CancelBackend asks the server to cancel the statement running on the
	// backend with the given pid. It reports false when no such backend is
	// running a statement.
	CancelBackend(ctx context.Context, pid int) (bool, error)
}

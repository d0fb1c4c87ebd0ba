package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/leapstack-labs/canvasql/pkg/adapter"
	"github.com/leapstack-labs/canvasql/pkg/core"
)

// MapDataType converts an information_schema data type to a UI type.
func MapDataType(dataType string) core.UIType {
	t := strings.ToLower(strings.TrimSpace(dataType))
	switch {
	case t == "integer", t == "bigint", t == "smallint", t == "numeric", t == "real", t == "double precision":
		return core.UITypeNumber
	case t == "boolean":
		return core.UITypeBoolean
	case t == "date":
		return core.UITypeDate
	case strings.HasPrefix(t, "timestamp"):
		return core.UITypeDatetime
	default:
		return core.UITypeString
	}
}

// TableColumns returns the ordered columns of schema.table.
func (a *Adapter) TableColumns(ctx context.Context, schema, table string) ([]core.CatalogColumn, error) {
	return a.TableColumnsCommon(ctx, schema, table, MapDataType)
}

// ListSchemas returns all schemas except pg_* and information_schema.
func (a *Adapter) ListSchemas(ctx context.Context) ([]string, error) {
	return a.QueryStrings(ctx, `
		SELECT nspname
		FROM pg_catalog.pg_namespace
		WHERE nspname !~ '^pg_'
		  AND nspname <> 'information_schema'
		ORDER BY nspname
	`)
}

// ListTables returns the tables and views of a schema.
func (a *Adapter) ListTables(ctx context.Context, schema string) ([]string, error) {
	return a.QueryStrings(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1
		ORDER BY table_name
	`, schema)
}

// SchemasAndTables groups every user table by schema.
func (a *Adapter) SchemasAndTables(ctx context.Context) (map[string][]string, error) {
	rows, err := a.QueryContext(ctx, `
		SELECT table_schema, table_name
		FROM information_schema.tables
		WHERE table_schema NOT IN ('information_schema', 'pg_catalog')
		ORDER BY table_schema, table_name
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := map[string][]string{}
	for rows.Next() {
		var schema, table string
		if err := rows.Scan(&schema, &table); err != nil {
			return nil, fmt.Errorf("failed to scan table listing: %w", err)
		}
		result[schema] = append(result[schema], table)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating table listing: %w", err)
	}
	return result, nil
}

// ObjectKind names a class of catalog objects within a schema.
type ObjectKind string

// Catalog object kinds.
const (
	KindTables    ObjectKind = "tables"
	KindViews     ObjectKind = "views"
	KindMatViews  ObjectKind = "matviews"
	KindSequences ObjectKind = "sequences"
	KindFunctions ObjectKind = "functions"
	KindDataTypes ObjectKind = "datatypes"
)

var objectQueries = map[ObjectKind]string{
	KindTables:    `SELECT tablename FROM pg_catalog.pg_tables WHERE schemaname = $1 ORDER BY tablename`,
	KindViews:     `SELECT viewname FROM pg_catalog.pg_views WHERE schemaname = $1 ORDER BY viewname`,
	KindMatViews:  `SELECT matviewname FROM pg_catalog.pg_matviews WHERE schemaname = $1 ORDER BY matviewname`,
	KindSequences: `SELECT c.relname FROM pg_catalog.pg_class c JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace WHERE c.relkind = 'S' AND n.nspname = $1 ORDER BY c.relname`,
	KindFunctions: `SELECT p.proname FROM pg_catalog.pg_proc p JOIN pg_catalog.pg_namespace n ON n.oid = p.pronamespace WHERE n.nspname = $1 ORDER BY p.proname`,
	KindDataTypes: `SELECT t.typname FROM pg_catalog.pg_type t JOIN pg_catalog.pg_namespace n ON n.oid = t.typnamespace WHERE n.nspname = $1 ORDER BY t.typname`,
}

// ParseObjectKind parses a catalog object kind.
func ParseObjectKind(s string) (ObjectKind, bool) {
	k := ObjectKind(s)
	_, ok := objectQueries[k]
	return k, ok
}

// ListObjects returns the names of the objects of one kind in a schema.
func (a *Adapter) ListObjects(ctx context.Context, schema string, kind ObjectKind) ([]string, error) {
	query, ok := objectQueries[kind]
	if !ok {
		return nil, fmt.Errorf("unknown object kind %q", kind)
	}
	return a.QueryStrings(ctx, query, schema)
}

// Index is a named index and the table it belongs to.
type Index struct {
	Name  string `json:"name"`
	Table string `json:"table"`
}

// ListIndexes returns the indexes of a schema.
func (a *Adapter) ListIndexes(ctx context.Context, schema string) ([]Index, error) {
	rows, err := a.QueryContext(ctx, `
		SELECT indexname, tablename
		FROM pg_catalog.pg_indexes
		WHERE schemaname = $1
		ORDER BY tablename, indexname
	`, schema)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []Index{}
	for rows.Next() {
		var idx Index
		if err := rows.Scan(&idx.Name, &idx.Table); err != nil {
			return nil, fmt.Errorf("failed to scan index: %w", err)
		}
		out = append(out, idx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating indexes: %w", err)
	}
	return out, nil
}

// ColumnInfo is a physical column description from pg_attribute.
type ColumnInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
	Position int    `json:"position"`
}

// DescribeColumns returns the physical columns of schema.table with their
// formatted types.
func (a *Adapter) DescribeColumns(ctx context.Context, schema, table string) ([]ColumnInfo, error) {
	rows, err := a.QueryContext(ctx, `
		SELECT
			a.attname,
			format_type(a.atttypid, a.atttypmod),
			a.attnotnull,
			a.attnum
		FROM pg_catalog.pg_attribute a
		JOIN pg_catalog.pg_class c ON c.oid = a.attrelid
		JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1
		  AND c.relname = $2
		  AND a.attnum > 0
		  AND NOT a.attisdropped
		ORDER BY a.attnum
	`, schema, table)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []ColumnInfo{}
	for rows.Next() {
		var col ColumnInfo
		var notNull bool
		if err := rows.Scan(&col.Name, &col.Type, &notNull, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		col.Nullable = !notNull
		out = append(out, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s.%s: %w", schema, table, adapter.ErrTableNotFound)
	}
	return out, nil
}

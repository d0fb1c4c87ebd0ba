package engine

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/canvasql/pkg/adapters/postgres"
	"github.com/leapstack-labs/canvasql/pkg/sqlguard"
)

func (e *Engine) inspector() (Inspector, error) {
	insp, ok := e.catalog.(Inspector)
	if !ok {
		return nil, ErrInspectionUnsupported
	}
	return insp, nil
}

// SchemasAndTables returns every user table grouped by schema.
func (e *Engine) SchemasAndTables(ctx context.Context) (map[string][]string, error) {
	insp, err := e.inspector()
	if err != nil {
		return nil, err
	}
	return insp.SchemasAndTables(ctx)
}

// ListObjects returns the names of the objects of one kind in a schema.
func (e *Engine) ListObjects(ctx context.Context, schema, kind string) ([]string, error) {
	k, ok := postgres.ParseObjectKind(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownObjectKind, kind)
	}
	insp, err := e.inspector()
	if err != nil {
		return nil, err
	}
	return insp.ListObjects(ctx, schema, k)
}

// ListIndexes returns the indexes of a schema.
func (e *Engine) ListIndexes(ctx context.Context, schema string) ([]postgres.Index, error) {
	insp, err := e.inspector()
	if err != nil {
		return nil, err
	}
	return insp.ListIndexes(ctx, schema)
}

// DescribeColumns returns the physical columns of schema.table.
func (e *Engine) DescribeColumns(ctx context.Context, schema, table string) ([]postgres.ColumnInfo, error) {
	if _, err := sqlguard.ValidateIdentifier(table, "table"); err != nil {
		return nil, err
	}
	insp, err := e.inspector()
	if err != nil {
		return nil, err
	}
	return insp.DescribeColumns(ctx, schema, table)
}

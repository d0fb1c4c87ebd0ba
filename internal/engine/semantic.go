package engine

import (
	"context"
	"errors"

	"github.com/leapstack-labs/canvasql/pkg/adapter"
	"github.com/leapstack-labs/canvasql/pkg/browse"
	"github.com/leapstack-labs/canvasql/pkg/core"
	"github.com/leapstack-labs/canvasql/pkg/sqlguard"
)

// SemanticColumns returns the catalog columns of a table with their
// resolved semantic types. A table the catalog does not know yields an
// empty list.
func (e *Engine) SemanticColumns(ctx context.Context, schema, table string) ([]browse.SemanticColumn, error) {
	if _, err := sqlguard.ValidateIdentifier(schema, "schema"); err != nil {
		return nil, err
	}
	if _, err := sqlguard.ValidateIdentifier(table, "table"); err != nil {
		return nil, err
	}

	cols, err := e.catalog.TableColumns(ctx, schema, table)
	if errors.Is(err, adapter.ErrTableNotFound) {
		e.logger.Debug("semantic columns requested for unknown table", "schema", schema, "table", table)
		return []browse.SemanticColumn{}, nil
	}
	if err != nil {
		return nil, err
	}

	semantic, err := e.semanticTypes(ctx, schema, table)
	if err != nil {
		return nil, err
	}
	return browse.ResolveSemantic(cols, semantic), nil
}

func (e *Engine) semanticTypes(ctx context.Context, schema, table string) (map[string]core.UIType, error) {
	if e.semantics == nil {
		return nil, nil
	}
	return e.semantics.SemanticColumnTypes(ctx, schema, table)
}

package engine

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/canvasql/pkg/browse"
	"github.com/leapstack-labs/canvasql/pkg/core"
	"github.com/leapstack-labs/canvasql/pkg/sqlguard"
)

// BrowseRequest is a table browse request as received from a client.
// Filters holds the raw JSON filter array.
type BrowseRequest struct {
	Schema       string
	Table        string
	Limit        int
	Offset       int
	SortBy       string
	SortDir      string
	Filters      string
	AutoGenerate bool
}

// BrowseMeta describes the returned page.
type BrowseMeta struct {
	Total  int64  `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
	Table  string `json:"table"`
}

// BrowseResult is one page of a browsed table.
type BrowseResult struct {
	Columns []core.ColumnDescriptor `json:"columns"`
	Data    []map[string]any        `json:"data"`
	Meta    BrowseMeta              `json:"meta"`
}

// BrowseTable returns a filtered, sorted page of a table together with the
// total number of matching rows.
func (e *Engine) BrowseTable(ctx context.Context, req BrowseRequest) (*BrowseResult, error) {
	limit := req.Limit
	if limit == 0 {
		limit = e.defaultLimit
	}
	if limit < 1 || limit > e.maxLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidPagination, e.maxLimit)
	}
	if req.Offset < 0 {
		return nil, fmt.Errorf("%w: offset must not be negative", ErrInvalidPagination)
	}
	schema := req.Schema
	if schema == "" {
		schema = DefaultSchema
	}

	if _, err := sqlguard.ValidateIdentifier(schema, "schema"); err != nil {
		return nil, err
	}
	if _, err := sqlguard.ValidateIdentifier(req.Table, "table"); err != nil {
		return nil, err
	}

	catalogCols, err := e.catalog.TableColumns(ctx, schema, req.Table)
	if err != nil {
		return nil, err
	}
	semantic, err := e.semanticTypes(ctx, schema, req.Table)
	if err != nil {
		return nil, err
	}
	catalogCols = browse.ApplySemantic(catalogCols, semantic)

	var overrides []core.ColumnDescriptor
	if e.overrides != nil {
		overrides = e.overrides.Columns()
	}
	columns := browse.MergeColumns(catalogCols, overrides, req.AutoGenerate)

	filters, err := browse.DecodeFilters(req.Filters)
	if err != nil {
		return nil, err
	}

	compiled, err := browse.Compile(browse.Request{
		Schema:  schema,
		Table:   req.Table,
		Columns: columns,
		SortBy:  req.SortBy,
		SortDir: req.SortDir,
		Filters: filters,
		Limit:   limit,
		Offset:  req.Offset,
	})
	if err != nil {
		return nil, err
	}

	log := e.logger.With("schema", schema, "table", req.Table)
	log.Debug("browsing table", "sql", compiled.SelectSQL, "filters", len(filters))

	total, err := e.count(ctx, compiled)
	if err != nil {
		return nil, err
	}

	data, err := e.page(ctx, compiled, columns)
	if err != nil {
		return nil, err
	}

	return &BrowseResult{
		Columns: columns,
		Data:    data,
		Meta: BrowseMeta{
			Total:  total,
			Limit:  limit,
			Offset: req.Offset,
			Table:  schema + "." + req.Table,
		},
	}, nil
}

func (e *Engine) count(ctx context.Context, c *browse.Compiled) (int64, error) {
	rows, err := e.catalog.QueryContext(ctx, c.CountSQL, c.CountArgs)
	if err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var total int64
	if rows.Next() {
		if err := rows.Scan(&total); err != nil {
			return 0, fmt.Errorf("failed to scan row count: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return total, nil
}

func (e *Engine) page(ctx context.Context, c *browse.Compiled, columns []core.ColumnDescriptor) ([]map[string]any, error) {
	rows, err := e.catalog.QueryContext(ctx, c.SelectSQL, c.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to query table: %w", err)
	}
	defer func() { _ = rows.Close() }()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	types := make(map[string]core.UIType, len(columns))
	for _, col := range columns {
		types[col.Key] = col.Type
	}

	values := make([]any, len(names))
	ptrs := make([]any, len(names))
	for i := range values {
		ptrs[i] = &values[i]
	}

	data := []map[string]any{}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(map[string]any, len(names))
		for i, name := range names {
			t, ok := types[name]
			if !ok {
				t = core.UITypeString
			}
			row[name] = browse.CastValue(values[i], t)
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return data, nil
}

package dataset

import (
	"context"
	"database/sql"
	"fmt"
)

// Preview is the tabular result of a dataset preview. Rows hold raw column
// values in statement order.
type Preview struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Querier runs a statement without bound parameters.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Run executes a compiled preview statement and collects at most maxRows
// rows. maxRows <= 0 means no cap.
func Run(ctx context.Context, q Querier, stmt string, maxRows int) (*Preview, error) {
	rows, err := q.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("failed to execute preview: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read preview columns: %w", err)
	}

	p := &Preview{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		if maxRows > 0 && len(p.Rows) >= maxRows {
			break
		}
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan preview row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		p.Rows = append(p.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read preview rows: %w", err)
	}
	return p, nil
}

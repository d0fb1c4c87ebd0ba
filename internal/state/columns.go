package state

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/canvasql/pkg/core"
	"github.com/leapstack-labs/canvasql/pkg/sqlguard"
)

// SaveColumn creates or replaces the mapping of a column of a node.
func (s *SQLiteStore) SaveColumn(ctx context.Context, datasetID, tableID string, in ColumnInput) (*DatasetColumn, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	name, err := sqlguard.ValidateIdentifier(in.ColumnName, "column name")
	if err != nil {
		return nil, err
	}
	role, ok := core.ParseRole(in.Role)
	if !ok {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidColumn, in.Role)
	}
	if _, err := s.GetTable(ctx, datasetID, tableID); err != nil {
		return nil, err
	}

	c := &DatasetColumn{
		ID:             generateID(),
		DatasetTableID: tableID,
		ColumnName:     name,
		Role:           role,
		DefinitionCode: in.DefinitionCode,
		DisplayName:    in.DisplayName,
	}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO dataset_columns (id, dataset_table_id, column_name, role, definition_code, display_name)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (dataset_table_id, column_name) DO UPDATE SET
			role = excluded.role,
			definition_code = excluded.definition_code,
			display_name = excluded.display_name
		RETURNING id
	`, c.ID, c.DatasetTableID, c.ColumnName, string(c.Role), c.DefinitionCode, c.DisplayName).Scan(&c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to save column: %w", err)
	}
	return c, nil
}

// ListColumns returns the column mappings of a dataset, ordered by node
// insertion and then column insertion.
func (s *SQLiteStore) ListColumns(ctx context.Context, datasetID string) ([]*DatasetColumn, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.dataset_table_id, c.column_name, c.role, c.definition_code, c.display_name
		FROM dataset_columns c
		JOIN dataset_tables t ON t.id = c.dataset_table_id
		WHERE t.dataset_id = ?
		ORDER BY t.rowid, c.rowid
	`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns := []*DatasetColumn{}
	for rows.Next() {
		var (
			c    DatasetColumn
			role string
		)
		if err := rows.Scan(&c.ID, &c.DatasetTableID, &c.ColumnName, &role, &c.DefinitionCode, &c.DisplayName); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		c.Role = core.Role(role)
		columns = append(columns, &c)
	}
	return columns, rows.Err()
}

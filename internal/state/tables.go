package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/leapstack-labs/canvasql/pkg/core"
	"github.com/leapstack-labs/canvasql/pkg/sqlguard"
)

// AddTable places a table node on a dataset. The table name may be schema
// qualified; without an alias such a node is stored under its unqualified
// name. The effective alias must be unique within the dataset.
func (s *SQLiteStore) AddTable(ctx context.Context, datasetID string, in NewTable) (*DatasetTable, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	tableName, err := sqlguard.ValidateQualifiedName(in.TableName, "table name")
	if err != nil {
		return nil, err
	}
	alias := in.Alias
	if alias != "" {
		if alias, err = sqlguard.ValidateIdentifier(alias, "alias"); err != nil {
			return nil, err
		}
	} else if strings.Contains(tableName, ".") {
		alias = core.TableNode{TableName: tableName}.EffectiveAlias()
	}
	if err := s.requireDataset(ctx, datasetID); err != nil {
		return nil, err
	}

	t := &DatasetTable{
		ID:        generateID(),
		DatasetID: datasetID,
		TableName: tableName,
		Alias:     alias,
		PositionX: in.PositionX,
		PositionY: in.PositionY,
	}
	effective := t.Node().EffectiveAlias()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx,
		`SELECT table_name, alias FROM dataset_tables WHERE dataset_id = ?`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	for rows.Next() {
		var other core.TableNode
		if err := rows.Scan(&other.TableName, &other.Alias); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		if other.EffectiveAlias() == effective {
			_ = rows.Close()
			return nil, aliasInUse(effective)
		}
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO dataset_tables (id, dataset_id, table_name, alias, position_x, position_y)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.ID, t.DatasetID, t.TableName, t.Alias, t.PositionX, t.PositionY)
	if isUniqueViolation(err) {
		return nil, aliasInUse(effective)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add table: %w", err)
	}
	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return nil, aliasInUse(effective)
		}
		return nil, fmt.Errorf("failed to commit table: %w", err)
	}
	return t, nil
}

func aliasInUse(alias string) error {
	return fmt.Errorf("%w: alias %q is already used in this dataset", ErrInvalidTable, alias)
}

// isUniqueViolation reports whether err comes from a UNIQUE constraint, such
// as the per-dataset alias index.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

// ListTables returns the nodes of a dataset in insertion order.
func (s *SQLiteStore) ListTables(ctx context.Context, datasetID string) ([]*DatasetTable, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, dataset_id, table_name, alias, position_x, position_y
		FROM dataset_tables WHERE dataset_id = ? ORDER BY rowid
	`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tables := []*DatasetTable{}
	for rows.Next() {
		var t DatasetTable
		if err := rows.Scan(&t.ID, &t.DatasetID, &t.TableName, &t.Alias, &t.PositionX, &t.PositionY); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		tables = append(tables, &t)
	}
	return tables, rows.Err()
}

// GetTable returns a node of a dataset.
func (s *SQLiteStore) GetTable(ctx context.Context, datasetID, tableID string) (*DatasetTable, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	var t DatasetTable
	err := s.db.QueryRowContext(ctx, `
		SELECT id, dataset_id, table_name, alias, position_x, position_y
		FROM dataset_tables WHERE dataset_id = ? AND id = ?
	`, datasetID, tableID).Scan(&t.ID, &t.DatasetID, &t.TableName, &t.Alias, &t.PositionX, &t.PositionY)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("table %s: %w", tableID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get table: %w", err)
	}
	return &t, nil
}

// DeleteTable removes a node together with its joins and column mappings.
func (s *SQLiteStore) DeleteTable(ctx context.Context, datasetID, tableID string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM dataset_tables WHERE dataset_id = ? AND id = ?`, datasetID, tableID)
	if err != nil {
		return fmt.Errorf("failed to delete table: %w", err)
	}
	return expectAffected(res, "table", tableID)
}

// UpdateTablePosition moves a node on the canvas. Nil coordinates are left
// unchanged.
func (s *SQLiteStore) UpdateTablePosition(ctx context.Context, datasetID, tableID string, x, y *float64) (*DatasetTable, error) {
	t, err := s.GetTable(ctx, datasetID, tableID)
	if err != nil {
		return nil, err
	}
	if x != nil {
		t.PositionX = *x
	}
	if y != nil {
		t.PositionY = *y
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE dataset_tables SET position_x = ?, position_y = ? WHERE id = ?
	`, t.PositionX, t.PositionY, t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update table position: %w", err)
	}
	return t, nil
}

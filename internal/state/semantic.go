package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/leapstack-labs/canvasql/pkg/core"
	"github.com/leapstack-labs/canvasql/pkg/sqlguard"
)

// ErrInvalidMapping is returned for a semantic mapping naming an unknown
// semantic type or missing its type code.
var ErrInvalidMapping = errors.New("invalid semantic mapping")

// BulkMappingResult counts the rows written by SaveSemanticMappings.
type BulkMappingResult struct {
	Inserted int
	Updated  int
}

// ListSemanticTypes returns every semantic type ordered by code.
func (s *SQLiteStore) ListSemanticTypes(ctx context.Context) ([]core.SemanticType, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, name, label, category FROM semantic_types ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to list semantic types: %w", err)
	}
	defer func() { _ = rows.Close() }()

	types := []core.SemanticType{}
	for rows.Next() {
		var t core.SemanticType
		if err := rows.Scan(&t.Code, &t.Name, &t.Label, &t.Category); err != nil {
			return nil, fmt.Errorf("failed to scan semantic type: %w", err)
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// SaveSemanticMapping assigns a semantic type to a column, replacing any
// earlier assignment.
func (s *SQLiteStore) SaveSemanticMapping(ctx context.Context, m core.SemanticMapping) error {
	_, err := s.SaveSemanticMappings(ctx, []core.SemanticMapping{m})
	return err
}

// SaveSemanticMappings writes all mappings in one transaction. Nothing is
// written when any mapping is invalid.
func (s *SQLiteStore) SaveSemanticMappings(ctx context.Context, mappings []core.SemanticMapping) (BulkMappingResult, error) {
	var res BulkMappingResult
	if err := s.checkOpen(); err != nil {
		return res, err
	}
	for i, m := range mappings {
		if err := validateMapping(m); err != nil {
			return res, fmt.Errorf("mapping %d: %w", i, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(timeLayout)
	for i, m := range mappings {
		inserted, err := upsertMapping(ctx, tx, m, now)
		if err != nil {
			return BulkMappingResult{}, fmt.Errorf("mapping %d: %w", i, err)
		}
		if inserted {
			res.Inserted++
		} else {
			res.Updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return BulkMappingResult{}, fmt.Errorf("failed to commit semantic mappings: %w", err)
	}
	return res, nil
}

func validateMapping(m core.SemanticMapping) error {
	if _, err := sqlguard.ValidateIdentifier(m.Schema, "schema"); err != nil {
		return err
	}
	if _, err := sqlguard.ValidateIdentifier(m.Table, "table"); err != nil {
		return err
	}
	if _, err := sqlguard.ValidateIdentifier(m.Column, "column"); err != nil {
		return err
	}
	if m.Code == "" {
		return fmt.Errorf("%w: sm_code is required", ErrInvalidMapping)
	}
	return nil
}

func upsertMapping(ctx context.Context, tx *sql.Tx, m core.SemanticMapping, now string) (bool, error) {
	var known bool
	err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM semantic_types WHERE code = ?)`, m.Code).Scan(&known)
	if err != nil {
		return false, fmt.Errorf("failed to look up semantic type: %w", err)
	}
	if !known {
		return false, fmt.Errorf("%w: unknown semantic type %q", ErrInvalidMapping, m.Code)
	}

	var exists bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM semantic_column_mappings
			WHERE schema_name = ? AND table_name = ? AND column_name = ?
		)
	`, m.Schema, m.Table, m.Column).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to look up semantic mapping: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO semantic_column_mappings (schema_name, table_name, column_name, sm_code, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (schema_name, table_name, column_name) DO UPDATE SET
			sm_code = excluded.sm_code,
			updated_at = excluded.updated_at
	`, m.Schema, m.Table, m.Column, m.Code, now)
	if err != nil {
		return false, fmt.Errorf("failed to save semantic mapping: %w", err)
	}
	return !exists, nil
}

// SemanticMappings returns the mappings of one table ordered by column.
func (s *SQLiteStore) SemanticMappings(ctx context.Context, schema, table string) ([]core.SemanticMapping, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT column_name, sm_code FROM semantic_column_mappings
		WHERE schema_name = ? AND table_name = ?
		ORDER BY column_name
	`, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to list semantic mappings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	mappings := []core.SemanticMapping{}
	for rows.Next() {
		m := core.SemanticMapping{Schema: schema, Table: table}
		if err := rows.Scan(&m.Column, &m.Code); err != nil {
			return nil, fmt.Errorf("failed to scan semantic mapping: %w", err)
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

// SemanticColumnTypes returns the UI type of the semantic type assigned to
// each mapped column of a table.
func (s *SQLiteStore) SemanticColumnTypes(ctx context.Context, schema, table string) (map[string]core.UIType, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.column_name, t.label
		FROM semantic_column_mappings m
		JOIN semantic_types t ON t.code = m.sm_code
		WHERE m.schema_name = ? AND m.table_name = ?
	`, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to load semantic column types: %w", err)
	}
	defer func() { _ = rows.Close() }()

	types := map[string]core.UIType{}
	for rows.Next() {
		var column, label string
		if err := rows.Scan(&column, &label); err != nil {
			return nil, fmt.Errorf("failed to scan semantic column type: %w", err)
		}
		types[column] = core.UITypeForLabel(label)
	}
	return types, rows.Err()
}

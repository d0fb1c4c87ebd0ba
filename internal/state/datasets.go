package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// timeLayout sorts lexically in UTC.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// CreateDataset creates a new dataset.
func (s *SQLiteStore) CreateDataset(ctx context.Context, in NewDataset) (*Dataset, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("dataset name is required")
	}

	ds := &Dataset{
		ID:          generateID(),
		Name:        name,
		Description: in.Description,
		CreatedBy:   in.CreatedBy,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO datasets (id, name, description, created_by, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, ds.ID, ds.Name, ds.Description, ds.CreatedBy, ds.CreatedAt.Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset: %w", err)
	}
	return ds, nil
}

// GetDataset retrieves a dataset by ID.
func (s *SQLiteStore) GetDataset(ctx context.Context, id string) (*Dataset, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, created_by, created_at
		FROM datasets WHERE id = ?
	`, id)
	ds, err := scanDataset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("dataset %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}
	return ds, nil
}

// ListDatasets returns all datasets, newest first.
func (s *SQLiteStore) ListDatasets(ctx context.Context) ([]*Dataset, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, created_by, created_at
		FROM datasets ORDER BY created_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	datasets := []*Dataset{}
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		datasets = append(datasets, ds)
	}
	return datasets, rows.Err()
}

// DeleteDataset removes a dataset with its tables, joins and columns.
func (s *SQLiteStore) DeleteDataset(ctx context.Context, id string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}
	return expectAffected(res, "dataset", id)
}

// requireDataset returns ErrNotFound unless the dataset exists.
func (s *SQLiteStore) requireDataset(ctx context.Context, id string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM datasets WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("dataset %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to look up dataset: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDataset(row scanner) (*Dataset, error) {
	var (
		ds        Dataset
		createdAt string
	)
	if err := row.Scan(&ds.ID, &ds.Name, &ds.Description, &ds.CreatedBy, &createdAt); err != nil {
		return nil, err
	}
	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
	}
	ds.CreatedAt = t
	return &ds, nil
}

func expectAffected(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return nil
}

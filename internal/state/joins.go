package state

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/canvasql/pkg/core"
	"github.com/leapstack-labs/canvasql/pkg/sqlguard"
)

// AddJoin adds a join edge. Both endpoints must be nodes of the dataset and
// the same edge may not be added twice.
func (s *SQLiteStore) AddJoin(ctx context.Context, datasetID string, in NewJoin) (*DatasetJoin, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	leftCol, err := sqlguard.ValidateIdentifier(in.LeftColumn, "left column")
	if err != nil {
		return nil, err
	}
	rightCol, err := sqlguard.ValidateIdentifier(in.RightColumn, "right column")
	if err != nil {
		return nil, err
	}
	joinType, ok := core.ParseJoinType(in.JoinType)
	if !ok {
		return nil, fmt.Errorf("%w: unknown join type %q", ErrInvalidJoin, in.JoinType)
	}
	if err := s.requireDataset(ctx, datasetID); err != nil {
		return nil, err
	}

	for _, id := range []string{in.LeftTableID, in.RightTableID} {
		if _, err := s.GetTable(ctx, datasetID, id); err != nil {
			return nil, fmt.Errorf("%w: table %s does not belong to the dataset", ErrInvalidJoin, id)
		}
	}

	var dup int
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM dataset_joins
		WHERE dataset_id = ? AND left_table_id = ? AND left_column = ?
		  AND right_table_id = ? AND right_column = ?
	`, datasetID, in.LeftTableID, leftCol, in.RightTableID, rightCol).Scan(&dup)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing joins: %w", err)
	}
	if dup > 0 {
		return nil, fmt.Errorf("%w: join already exists", ErrInvalidJoin)
	}

	j := &DatasetJoin{
		ID:           generateID(),
		DatasetID:    datasetID,
		LeftTableID:  in.LeftTableID,
		LeftColumn:   leftCol,
		RightTableID: in.RightTableID,
		RightColumn:  rightCol,
		JoinType:     joinType,
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO dataset_joins (id, dataset_id, left_table_id, left_column, right_table_id, right_column, join_type)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, j.ID, j.DatasetID, j.LeftTableID, j.LeftColumn, j.RightTableID, j.RightColumn, string(j.JoinType))
	if err != nil {
		return nil, fmt.Errorf("failed to add join: %w", err)
	}
	return j, nil
}

// ListJoins returns the join edges of a dataset in insertion order.
func (s *SQLiteStore) ListJoins(ctx context.Context, datasetID string) ([]*DatasetJoin, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, dataset_id, left_table_id, left_column, right_table_id, right_column, join_type
		FROM dataset_joins WHERE dataset_id = ? ORDER BY rowid
	`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list joins: %w", err)
	}
	defer func() { _ = rows.Close() }()

	joins := []*DatasetJoin{}
	for rows.Next() {
		var (
			j        DatasetJoin
			joinType string
		)
		if err := rows.Scan(&j.ID, &j.DatasetID, &j.LeftTableID, &j.LeftColumn,
			&j.RightTableID, &j.RightColumn, &joinType); err != nil {
			return nil, fmt.Errorf("failed to scan join: %w", err)
		}
		j.JoinType = core.JoinType(joinType)
		joins = append(joins, &j)
	}
	return joins, rows.Err()
}

// DeleteJoin removes a join edge.
func (s *SQLiteStore) DeleteJoin(ctx context.Context, datasetID, joinID string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM dataset_joins WHERE dataset_id = ? AND id = ?`, datasetID, joinID)
	if err != nil {
		return fmt.Errorf("failed to delete join: %w", err)
	}
	return expectAffected(res, "join", joinID)
}

package state

import (
	"context"

	"github.com/leapstack-labs/canvasql/pkg/core"
)

// LoadGraph returns a snapshot of a dataset for compilation.
func (s *SQLiteStore) LoadGraph(ctx context.Context, datasetID string) (*core.DatasetGraph, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if err := s.requireDataset(ctx, datasetID); err != nil {
		return nil, err
	}

	tables, err := s.ListTables(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	joins, err := s.ListJoins(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	columns, err := s.ListColumns(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	g := &core.DatasetGraph{
		Tables:  make([]core.TableNode, 0, len(tables)),
		Joins:   make([]core.JoinEdge, 0, len(joins)),
		Columns: make([]core.ColumnMapping, 0, len(columns)),
	}
	for _, t := range tables {
		g.Tables = append(g.Tables, t.Node())
	}
	for _, j := range joins {
		g.Joins = append(g.Joins, j.Edge())
	}
	for _, c := range columns {
		g.Columns = append(g.Columns, c.Mapping())
	}
	return g, nil
}

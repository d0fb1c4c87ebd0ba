package engine

import (
	"context"

	"github.com/leapstack-labs/canvasql/pkg/dataset"
)

// DatasetPreview is the compiled statement of a dataset and its first rows.
type DatasetPreview struct {
	SQL     string   `json:"sql"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// CompileDataset loads a dataset graph and returns its preview statement.
func (e *Engine) CompileDataset(ctx context.Context, datasetID string) (string, error) {
	g, err := e.datasets.LoadGraph(ctx, datasetID)
	if err != nil {
		return "", err
	}
	return dataset.CompileGraph(g)
}

// PreviewDataset compiles a dataset and runs it against the browsed
// database, returning at most the configured number of rows.
func (e *Engine) PreviewDataset(ctx context.Context, datasetID string) (*DatasetPreview, error) {
	stmt, err := e.CompileDataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("previewing dataset", "dataset_id", datasetID, "sql", stmt)

	p, err := dataset.Run(ctx, e.catalog, stmt, e.previewMax)
	if err != nil {
		return nil, err
	}
	return &DatasetPreview{SQL: stmt, Columns: p.Columns, Rows: p.Rows}, nil
}

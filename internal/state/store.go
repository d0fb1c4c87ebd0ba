// Package state persists dataset definitions in SQLite.
//
// A dataset is a set of table nodes placed on a canvas, the join edges
// between them, and role-tagged column mappings. The store validates every
// name that later gets spliced into preview SQL, and LoadGraph returns the
// ordered snapshot the preview compiler works on.
package state

import (
	"errors"
	"time"

	"github.com/leapstack-labs/canvasql/pkg/core"
)

var (
	// ErrNotFound is returned when a dataset, table, join or column does
	// not exist in the requested dataset.
	ErrNotFound = errors.New("not found")

	// ErrInvalidJoin is returned for joins whose endpoints are not in the
	// dataset, whose join type is unknown, or that duplicate an existing edge.
	ErrInvalidJoin = errors.New("invalid join")

	// ErrInvalidTable is returned when a table alias clashes with another
	// node of the same dataset.
	ErrInvalidTable = errors.New("invalid dataset table")

	// ErrInvalidColumn is returned for a column mapping with an unknown role.
	ErrInvalidColumn = errors.New("invalid dataset column")
)

// Dataset is a named dataset definition.
type Dataset struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// DatasetTable is a table node on the dataset canvas.
type DatasetTable struct {
	ID        string  `json:"id"`
	DatasetID string  `json:"dataset_id"`
	TableName string  `json:"table_name"`
	Alias     string  `json:"alias"`
	PositionX float64 `json:"position_x"`
	PositionY float64 `json:"position_y"`
}

// Node converts the table to a compiler node.
func (t DatasetTable) Node() core.TableNode {
	return core.TableNode{ID: t.ID, TableName: t.TableName, Alias: t.Alias}
}

// DatasetJoin is a join edge between two nodes of a dataset.
type DatasetJoin struct {
	ID           string        `json:"id"`
	DatasetID    string        `json:"dataset_id"`
	LeftTableID  string        `json:"left_dataset_table_id"`
	LeftColumn   string        `json:"left_column"`
	RightTableID string        `json:"right_dataset_table_id"`
	RightColumn  string        `json:"right_column"`
	JoinType     core.JoinType `json:"join_type"`
}

// Edge converts the join to a compiler edge.
func (j DatasetJoin) Edge() core.JoinEdge {
	return core.JoinEdge{
		ID:          j.ID,
		LeftNodeID:  j.LeftTableID,
		LeftColumn:  j.LeftColumn,
		RightNodeID: j.RightTableID,
		RightColumn: j.RightColumn,
		JoinType:    j.JoinType,
	}
}

// DatasetColumn is the role mapping of one column of a node.
type DatasetColumn struct {
	ID             string    `json:"id"`
	DatasetTableID string    `json:"dataset_table_id"`
	ColumnName     string    `json:"column_name"`
	Role           core.Role `json:"role"`
	DefinitionCode string    `json:"definition_code"`
	DisplayName    string    `json:"display_name"`
}

// Mapping converts the column to a compiler mapping.
func (c DatasetColumn) Mapping() core.ColumnMapping {
	return core.ColumnMapping{
		ID:          c.ID,
		NodeID:      c.DatasetTableID,
		ColumnName:  c.ColumnName,
		Role:        c.Role,
		DisplayName: c.DisplayName,
	}
}

// NewDataset holds the fields of a dataset to create.
type NewDataset struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedBy   string `json:"created_by"`
}

// NewTable holds the fields of a table node to add.
type NewTable struct {
	TableName string  `json:"table_name"`
	Alias     string  `json:"alias"`
	PositionX float64 `json:"position_x"`
	PositionY float64 `json:"position_y"`
}

// NewJoin holds the fields of a join edge to add.
type NewJoin struct {
	LeftTableID  string `json:"left_dataset_table_id"`
	LeftColumn   string `json:"left_column"`
	RightTableID string `json:"right_dataset_table_id"`
	RightColumn  string `json:"right_column"`
	JoinType     string `json:"join_type"`
}

// ColumnInput holds the fields of a column mapping to save.
type ColumnInput struct {
	ColumnName     string `json:"column_name"`
	Role           string `json:"role"`
	DefinitionCode string `json:"definition_code"`
	DisplayName    string `json:"display_name"`
}

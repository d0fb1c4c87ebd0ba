package core

import "strings"

// Role tags a dataset column as grouped or aggregated.
type Role string

// Column roles. The zero value means the column is not selected.
const (
	RoleNone      Role = ""
	RoleDimension Role = "Dimension"
	RoleIndicator Role = "Indicator"
)

// ParseRole parses a role name. Matching is case-insensitive and the empty
// string yields RoleNone.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return RoleNone, true
	case "dimension":
		return RoleDimension, true
	case "indicator":
		return RoleIndicator, true
	}
	return "", false
}

// JoinType is the SQL join kind of a dataset edge.
type JoinType string

// Supported join types.
const (
	JoinInner JoinType = "inner"
	JoinLeft  JoinType = "left"
	JoinRight JoinType = "right"
)

// ParseJoinType parses a join type name. Matching is case-insensitive.
func ParseJoinType(s string) (JoinType, bool) {
	switch jt := JoinType(strings.ToLower(strings.TrimSpace(s))); jt {
	case JoinInner, JoinLeft, JoinRight:
		return jt, true
	}
	return "", false
}

// TableNode is a table placed on the dataset canvas.
type TableNode struct {
	ID        string
	TableName string
	Alias     string
}

// EffectiveAlias returns the alias, or the unqualified table name when no
// alias is set.
func (n TableNode) EffectiveAlias() string {
	if n.Alias != "" {
		return n.Alias
	}
	if i := strings.LastIndexByte(n.TableName, '.'); i >= 0 {
		return n.TableName[i+1:]
	}
	return n.TableName
}

// JoinEdge connects two table nodes of the same dataset.
type JoinEdge struct {
	ID          string
	LeftNodeID  string
	LeftColumn  string
	RightNodeID string
	RightColumn string
	JoinType    JoinType
}

// ColumnMapping assigns a role and display name to a column of a node.
type ColumnMapping struct {
	ID          string
	NodeID      string
	ColumnName  string
	Role        Role
	DisplayName string
}

// OutputName returns the display name, or the column name when none is set.
func (m ColumnMapping) OutputName() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.ColumnName
}

// DatasetGraph is an immutable snapshot of a dataset's nodes, edges and
// column mappings, in the order they should be compiled.
type DatasetGraph struct {
	Tables  []TableNode
	Joins   []JoinEdge
	Columns []ColumnMapping
}

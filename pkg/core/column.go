package core

import "strings"

// UIType is the coarse semantic type used to pick legal filter operators
// and output casting, independent of the physical column type.
type UIType string

// UI types.
const (
	UITypeString   UIType = "string"
	UITypeNumber   UIType = "number"
	UITypeBoolean  UIType = "boolean"
	UITypeDate     UIType = "date"
	UITypeDatetime UIType = "datetime"
)

// ParseUIType parses a UI type name. Matching is case-insensitive.
func ParseUIType(s string) (UIType, bool) {
	switch t := UIType(strings.ToLower(strings.TrimSpace(s))); t {
	case UITypeString, UITypeNumber, UITypeBoolean, UITypeDate, UITypeDatetime:
		return t, true
	}
	return "", false
}

// ColumnDescriptor describes one browsable column of a table.
type ColumnDescriptor struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Type     UIType `json:"type"`
	Sortable bool   `json:"enableSorting"`
}

// Operator is a filter comparison operator.
type Operator string

// Filter operators.
const (
	OpEq         Operator = "eq"
	OpContains   Operator = "contains"
	OpStartsWith Operator = "starts_with"
	OpEndsWith   Operator = "ends_with"
	OpGt         Operator = "gt"
	OpGte        Operator = "gte"
	OpLt         Operator = "lt"
	OpLte        Operator = "lte"
)

// ParseOperator parses an operator name.
func ParseOperator(s string) (Operator, bool) {
	switch op := Operator(s); op {
	case OpEq, OpContains, OpStartsWith, OpEndsWith, OpGt, OpGte, OpLt, OpLte:
		return op, true
	}
	return "", false
}

// FilterClause is a single (field, operator, value) predicate.
type FilterClause struct {
	Field string
	Op    Operator
	Value any
}

package core

import "strings"

// SemanticType is a business type that can be assigned to a column, such as
// "Currency Amount" or "Event Date".
type SemanticType struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Label    string `json:"label"`
	Category string `json:"category"`
}

// UIType derives the UI type of the semantic type from its label.
func (t SemanticType) UIType() UIType {
	return UITypeForLabel(t.Label)
}

var numericLabelWords = []string{"integer", "number", "decimal", "currency", "percentage"}

// UITypeForLabel maps a semantic label to a UI type by keyword, checked in
// order: timestamp, date, numeric words, boolean. Anything else is string.
func UITypeForLabel(label string) UIType {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "timestamp"):
		return UITypeDatetime
	case strings.Contains(l, "date"):
		return UITypeDate
	case containsAny(l, numericLabelWords):
		return UITypeNumber
	case strings.Contains(l, "boolean"):
		return UITypeBoolean
	}
	return UITypeString
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// FilterKind is the filter widget a client offers for a column.
type FilterKind string

// Filter kinds.
const (
	FilterRange    FilterKind = "range"
	FilterContains FilterKind = "contains"
	FilterEquals   FilterKind = "equals"
)

// FilterKindFor returns the filter widget for a UI type.
func FilterKindFor(t UIType) FilterKind {
	switch t {
	case UITypeDate, UITypeDatetime, UITypeNumber:
		return FilterRange
	case UITypeString:
		return FilterContains
	}
	return FilterEquals
}

// SemanticMapping assigns a semantic type to a column of a table.
type SemanticMapping struct {
	Schema string `json:"schema"`
	Table  string `json:"table"`
	Column string `json:"column"`
	Code   string `json:"sm_code"`
}

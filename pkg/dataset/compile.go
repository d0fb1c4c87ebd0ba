package dataset

import (
	"strings"

	"github.com/leapstack-labs/canvasql/pkg/core"
)

// PreviewError is a composition error of a dataset preview. It describes a
// problem with the dataset itself rather than with the database.
type PreviewError struct {
	Reason string
}

func (e *PreviewError) Error() string {
	return e.Reason
}

// Is matches preview errors by reason, so the sentinels below work with
// errors.Is.
func (e *PreviewError) Is(target error) bool {
	t, ok := target.(*PreviewError)
	return ok && t.Reason == e.Reason
}

// Preview composition errors.
var (
	ErrNoTables          = &PreviewError{Reason: "no tables in dataset"}
	ErrNoSelectedColumns = &PreviewError{Reason: "dataset has no selected columns"}
	ErrNoValidColumns    = &PreviewError{Reason: "no valid columns to select"}
)

// CompilePreview renders the preview statement for a dataset graph.
func CompilePreview(tables []core.TableNode, joins []core.JoinEdge, mappings []core.ColumnMapping) (string, error) {
	if len(tables) == 0 {
		return "", ErrNoTables
	}
	if !hasSelection(mappings) {
		return "", ErrNoSelectedColumns
	}

	nodes := make(map[string]core.TableNode, len(tables))
	for _, t := range tables {
		nodes[t.ID] = t
	}

	base := tables[0]
	from := "FROM " + base.TableName + " " + base.EffectiveAlias()

	var joinClauses []string
	for _, j := range joins {
		left, ok := nodes[j.LeftNodeID]
		if !ok {
			continue
		}
		right, ok := nodes[j.RightNodeID]
		if !ok {
			continue
		}
		joinClauses = append(joinClauses, joinKeyword(j.JoinType)+" JOIN "+
			right.TableName+" "+right.EffectiveAlias()+
			" ON "+left.EffectiveAlias()+"."+j.LeftColumn+" = "+right.EffectiveAlias()+"."+j.RightColumn)
	}

	var selects, groupBy []string
	for _, m := range mappings {
		node, ok := nodes[m.NodeID]
		if !ok {
			continue
		}
		expr := node.EffectiveAlias() + "." + m.ColumnName

		switch m.Role {
		case core.RoleDimension:
			selects = append(selects, expr+" AS "+quoteOutputName(m.OutputName()))
			groupBy = append(groupBy, expr)
		case core.RoleIndicator:
			selects = append(selects, "SUM("+expr+") AS "+quoteOutputName(m.OutputName()))
		}
	}

	if len(selects) == 0 {
		return "", ErrNoValidColumns
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(selects, ", "))
	sb.WriteString("\n")
	sb.WriteString(from)
	for _, jc := range joinClauses {
		sb.WriteString("\n")
		sb.WriteString(jc)
	}
	if len(groupBy) > 0 {
		sb.WriteString("\nGROUP BY ")
		sb.WriteString(strings.Join(groupBy, ", "))
	}
	return sb.String(), nil
}

// CompileGraph is CompilePreview over a loaded graph snapshot.
func CompileGraph(g *core.DatasetGraph) (string, error) {
	if g == nil {
		return "", ErrNoTables
	}
	return CompilePreview(g.Tables, g.Joins, g.Columns)
}

func hasSelection(mappings []core.ColumnMapping) bool {
	for _, m := range mappings {
		if m.Role != core.RoleNone {
			return true
		}
	}
	return false
}

func joinKeyword(jt core.JoinType) string {
	if jt == "" {
		return "INNER"
	}
	return strings.ToUpper(string(jt))
}

func quoteOutputName(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

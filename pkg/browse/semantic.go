package browse

import "github.com/leapstack-labs/canvasql/pkg/core"

// Sources of a resolved column type.
const (
	SourceDatabase = "database"
	SourceSemantic = "semantic"
)

// SemanticColumn is a catalog column with its resolved type and the filter
// widget that type calls for.
type SemanticColumn struct {
	Column       string          `json:"column"`
	SemanticType core.UIType     `json:"semanticType"`
	FilterType   core.FilterKind `json:"filterType"`
	Source       string          `json:"source"`
}

// ResolveSemantic resolves the type of every catalog column, in catalog
// order. semantic maps column names to the UI type of their assigned
// semantic type. A semantic type is applied only when filter values bound
// for it still fit the physical column; otherwise the catalog type stays.
func ResolveSemantic(db []core.CatalogColumn, semantic map[string]core.UIType) []SemanticColumn {
	out := make([]SemanticColumn, 0, len(db))
	for _, c := range db {
		t, source := uiTypeOf(c), SourceDatabase
		if st, ok := semantic[c.Name]; ok && semanticFits(c.Type, st) {
			t, source = st, SourceSemantic
		}
		out = append(out, SemanticColumn{
			Column:       c.Name,
			SemanticType: t,
			FilterType:   core.FilterKindFor(t),
			Source:       source,
		})
	}
	return out
}

// ApplySemantic returns a copy of db with semantic types applied where
// ResolveSemantic accepts them.
func ApplySemantic(db []core.CatalogColumn, semantic map[string]core.UIType) []core.CatalogColumn {
	if len(semantic) == 0 {
		return db
	}
	resolved := ResolveSemantic(db, semantic)
	out := make([]core.CatalogColumn, len(db))
	for i, c := range db {
		if resolved[i].Source == SourceSemantic {
			c.Type = resolved[i].SemanticType
		}
		out[i] = c
	}
	return out
}

// semanticFits reports whether a column of catalog type physical can take
// filter values coerced for semantic. Date and datetime values bind as
// text, so they fit text columns; a date also parses as a timestamp.
func semanticFits(physical, semantic core.UIType) bool {
	if physical == "" || physical == semantic {
		return true
	}
	switch semantic {
	case core.UITypeDate:
		return physical == core.UITypeString || physical == core.UITypeDatetime
	case core.UITypeDatetime:
		return physical == core.UITypeString
	}
	return false
}

package browse

import "github.com/leapstack-labs/canvasql/pkg/core"

// MergeColumns combines the catalog columns of a table with user overrides.
//
// Overrides come first, in their own order, deduplicated by key. Overrides
// naming a column the catalog does not report are dropped. The catalog type
// wins because it decides how filter values bind; an override type only
// fills in for a column the catalog could not classify. Catalog columns without
// an override are appended as sortable when autoGenerate is true, or when
// there are no overrides at all.
func MergeColumns(db []core.CatalogColumn, overrides []core.ColumnDescriptor, autoGenerate bool) []core.ColumnDescriptor {
	catalog := make(map[string]core.CatalogColumn, len(db))
	for _, c := range db {
		catalog[c.Name] = c
	}

	out := make([]core.ColumnDescriptor, 0, len(db))
	seen := make(map[string]bool, len(db))

	for _, o := range overrides {
		if o.Key == "" || seen[o.Key] {
			continue
		}
		dbCol, ok := catalog[o.Key]
		if !ok {
			continue
		}
		seen[o.Key] = true

		if o.Label == "" {
			o.Label = o.Key
		}
		switch {
		case dbCol.Type != "":
			o.Type = dbCol.Type
		case o.Type == "":
			o.Type = core.UITypeString
		}
		out = append(out, o)
	}

	if !autoGenerate && len(overrides) > 0 {
		return out
	}

	for _, c := range db {
		if seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		out = append(out, core.ColumnDescriptor{
			Key:      c.Name,
			Label:    c.Name,
			Type:     uiTypeOf(c),
			Sortable: true,
		})
	}
	return out
}

func uiTypeOf(c core.CatalogColumn) core.UIType {
	if c.Type == "" {
		return core.UITypeString
	}
	return c.Type
}

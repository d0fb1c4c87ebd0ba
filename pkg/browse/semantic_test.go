package browse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/canvasql/pkg/core"
)

func TestResolveSemantic(t *testing.T) {
	db := []core.CatalogColumn{
		{Name: "id", DataType: "integer", Type: core.UITypeNumber, Position: 1},
		{Name: "code", DataType: "text", Type: core.UITypeString, Position: 2},
		{Name: "shipped_on", DataType: "text", Type: core.UITypeString, Position: 3},
		{Name: "created_at", DataType: "timestamp", Type: core.UITypeDatetime, Position: 4},
		{Name: "payload", DataType: "jsonb", Position: 5},
		{Name: "paid", DataType: "boolean", Type: core.UITypeBoolean, Position: 6},
	}
	semantic := map[string]core.UIType{
		"id":         core.UITypeNumber,
		"code":       core.UITypeNumber,
		"shipped_on": core.UITypeDate,
		"created_at": core.UITypeDate,
		"payload":    core.UITypeNumber,
		"paid":       core.UITypeString,
		"ghost":      core.UITypeDate,
	}

	got := ResolveSemantic(db, semantic)
	assert.Equal(t, []SemanticColumn{
		{Column: "id", SemanticType: core.UITypeNumber, FilterType: core.FilterRange, Source: SourceSemantic},
		{Column: "code", SemanticType: core.UITypeString, FilterType: core.FilterContains, Source: SourceDatabase},
		{Column: "shipped_on", SemanticType: core.UITypeDate, FilterType: core.FilterRange, Source: SourceSemantic},
		{Column: "created_at", SemanticType: core.UITypeDate, FilterType: core.FilterRange, Source: SourceSemantic},
		{Column: "payload", SemanticType: core.UITypeNumber, FilterType: core.FilterRange, Source: SourceSemantic},
		{Column: "paid", SemanticType: core.UITypeBoolean, FilterType: core.FilterEquals, Source: SourceDatabase},
	}, got)
}

func TestResolveSemantic_NoMappings(t *testing.T) {
	got := ResolveSemantic(catalogColumns(), nil)
	require.Len(t, got, 4)
	for _, c := range got {
		assert.Equal(t, SourceDatabase, c.Source)
	}
	assert.Equal(t, core.UITypeString, got[3].SemanticType)
}

func TestApplySemantic_FeedsMerge(t *testing.T) {
	db := []core.CatalogColumn{
		{Name: "code", DataType: "text", Type: core.UITypeString, Position: 1},
		{Name: "shipped_on", DataType: "text", Type: core.UITypeString, Position: 2},
	}
	semantic := map[string]core.UIType{"code": core.UITypeNumber, "shipped_on": core.UITypeDate}

	applied := ApplySemantic(db, semantic)
	assert.Equal(t, core.UITypeString, db[1].Type, "input must not be modified")

	cols := MergeColumns(applied, nil, true)
	assert.Equal(t, []core.ColumnDescriptor{
		{Key: "code", Label: "code", Type: core.UITypeString, Sortable: true},
		{Key: "shipped_on", Label: "shipped_on", Type: core.UITypeDate, Sortable: true},
	}, cols)

	filters, err := DecodeFilters(`[{"field":"shipped_on","op":"gte","value":"2024-01-01"}]`)
	require.NoError(t, err)
	q, err := Compile(Request{Schema: "public", Table: "orders", Columns: cols, Filters: filters, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*) FROM "public"."orders" WHERE "shipped_on" >= @p0`, q.CountSQL)
	assert.Equal(t, "2024-01-01", q.CountArgs["p0"])
}

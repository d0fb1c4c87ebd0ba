package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUITypeForLabel(t *testing.T) {
	tests := []struct {
		label string
		want  UIType
	}{
		{"Timestamp", UITypeDatetime},
		{"Update Timestamp", UITypeDatetime},
		{"Event Date", UITypeDate},
		{"Integer Count", UITypeNumber},
		{"Currency Amount", UITypeNumber},
		{"Percentage", UITypeNumber},
		{"decimal ratio", UITypeNumber},
		{"Boolean Flag", UITypeBoolean},
		{"String Identifier", UITypeString},
		{"Free Text", UITypeString},
		{"", UITypeString},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, UITypeForLabel(tt.label))
			assert.Equal(t, tt.want, SemanticType{Label: tt.label}.UIType())
		})
	}
}

func TestFilterKindFor(t *testing.T) {
	assert.Equal(t, FilterRange, FilterKindFor(UITypeDate))
	assert.Equal(t, FilterRange, FilterKindFor(UITypeDatetime))
	assert.Equal(t, FilterRange, FilterKindFor(UITypeNumber))
	assert.Equal(t, FilterContains, FilterKindFor(UITypeString))
	assert.Equal(t, FilterEquals, FilterKindFor(UITypeBoolean))
}

func TestTableNodeEffectiveAlias(t *testing.T) {
	assert.Equal(t, "o", TableNode{TableName: "public.orders", Alias: "o"}.EffectiveAlias())
	assert.Equal(t, "orders", TableNode{TableName: "public.orders"}.EffectiveAlias())
	assert.Equal(t, "orders", TableNode{TableName: "orders"}.EffectiveAlias())
}

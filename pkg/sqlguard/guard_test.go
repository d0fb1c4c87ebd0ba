package sqlguard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateIdentifier(t *testing.T) {
	valid := []string{"orders", "_tmp", "Order_Items2", "a", "A1_b2"}
	for _, name := range valid {
		t.Run("valid/"+name, func(t *testing.T) {
			got, err := ValidateIdentifier(name, "table")
			require.NoError(t, err)
			assert.Equal(t, name, got)

			again, err := ValidateIdentifier(got, "table")
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}

	invalid := []string{"", "1orders", "order-items", "orders;", `"orders"`, "public.orders", "ord ers", "tést", "x'--"}
	for _, name := range invalid {
		t.Run("invalid/"+name, func(t *testing.T) {
			_, err := ValidateIdentifier(name, "schema")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidIdentifier)

			var identErr *InvalidIdentifierError
			require.True(t, errors.As(err, &identErr))
			assert.Equal(t, "schema", identErr.Kind)
			assert.Equal(t, name, identErr.Name)
			assert.Contains(t, err.Error(), "invalid schema")
		})
	}
}

func TestValidateQualifiedName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"orders", false},
		{"sales.orders", false},
		{"a.b.c", true},
		{"sales.", true},
		{".orders", true},
		{"sales.or-ders", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateQualifiedName(tt.name, "table")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidIdentifier)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.name, got)
		})
	}
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"public"."orders"`, QuoteIdentifier("public", "orders"))
	assert.Equal(t, `"created_at"`, QuoteIdentifier("created_at"))
}

func TestIsQuerySafe(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		safe bool
	}{
		{"plain select", "SELECT * FROM orders", true},
		{"trailing semicolon", "SELECT 1;", true},
		{"trailing semicolon and whitespace", "  SELECT 1;  \n", true},
		{"keyword as identifier prefix", "SELECT update_date, insert_id FROM orders", true},
		{"keyword as identifier suffix", "SELECT last_update FROM orders", true},
		{"keyword inside identifier", "SELECT created_by, dropped FROM t", true},
		{"generate series", "SELECT * FROM generate_series(1,25) AS n", true},
		{"insert", "INSERT INTO t VALUES (1)", false},
		{"lowercase delete", "delete from t", false},
		{"mixed case drop", "DrOp TABLE t", false},
		{"keyword inside select", "SELECT * FROM t WHERE id IN (SELECT id FROM x) AND update", false},
		{"cte with delete", "WITH d AS (DELETE FROM t RETURNING *) SELECT * FROM d", false},
		{"do block", "DO $$ BEGIN END $$", false},
		{"execute", "EXECUTE plan_a", false},
		{"copy", "COPY t TO '/tmp/x'", false},
		{"call", "CALL proc()", false},
		{"grant", "GRANT ALL ON t TO bob", false},
		{"truncate", "TRUNCATE t", false},
		{"stacked statements", "SELECT 1; SELECT 2", false},
		{"stacked with trailing", "SELECT 1; SELECT 2;", false},
		{"two trailing semicolons", "SELECT 1;;", false},
		{"semicolon in literal", "SELECT ';' AS x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.safe, IsQuerySafe(tt.sql))
		})
	}
}

func TestCheckQuery(t *testing.T) {
	require.NoError(t, CheckQuery("SELECT 1"))

	err := CheckQuery("SELECT 1; DROP TABLE t")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsafeStatement)
}

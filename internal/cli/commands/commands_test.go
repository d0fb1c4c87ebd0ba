package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/canvasql/internal/adhoc"
	"github.com/leapstack-labs/canvasql/internal/testutil"
)

type nopCanceler struct{}

func (nopCanceler) CancelBackend(context.Context, int) (bool, error) { return true, nil }

func strPtr(s string) *string { return &s }

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "NULL"},
		{"nil string pointer", (*string)(nil), "NULL"},
		{"string pointer", strPtr("alice"), "alice"},
		{"bytes", []byte("raw"), "raw"},
		{"int", 42, "42"},
		{"bool", true, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatValue(tt.in))
		})
	}
}

func TestRenderRows(t *testing.T) {
	cols := []string{"id", "name"}
	rows := [][]any{{1, "alice"}, {2, nil}}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderRows(&buf, FormatJSON, cols, rows))

		var got []map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "alice", got[0]["name"])
		assert.Nil(t, got[1]["name"])
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderRows(&buf, FormatCSV, cols, rows))
		assert.Contains(t, buf.String(), "1,alice")
		assert.Contains(t, buf.String(), "2,NULL")
	})

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderRows(&buf, FormatTable, cols, rows))
		assert.Contains(t, buf.String(), "alice")
		assert.Contains(t, buf.String(), "NULL")
	})

	t.Run("markdown", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderRows(&buf, FormatMarkdown, cols, rows))
		assert.Contains(t, buf.String(), "|")
		assert.Contains(t, buf.String(), "alice")
	})

	t.Run("empty table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderRows(&buf, FormatTable, cols, nil))
		assert.Equal(t, "(0 rows)\n", buf.String())
	})

	t.Run("unknown format", func(t *testing.T) {
		var buf bytes.Buffer
		err := renderRows(&buf, "xml", cols, rows)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown output format")
	})
}

func TestRenderResult(t *testing.T) {
	res := &adhoc.Result{
		Columns:   []adhoc.Column{{Key: "n", Label: "n", Type: "string"}},
		Data:      []map[string]*string{{"n": strPtr("1")}, {"n": strPtr("2")}},
		RowCount:  2,
		TotalRows: 25,
		HasMore:   true,
		QueryID:   "q1",
	}

	t.Run("table summary", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderResult(&buf, res, FormatTable))
		assert.Contains(t, buf.String(), "(2 of 25 rows, more available)")
	})

	t.Run("json envelope", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderResult(&buf, res, FormatJSON))

		var got map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, "q1", got["query_id"])
		assert.Equal(t, true, got["has_more"])
		assert.EqualValues(t, 25, got["total_rows"])
	})

	t.Run("csv has no summary", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderResult(&buf, res, FormatCSV))
		assert.NotContains(t, buf.String(), "rows")
	})
}

func TestExecuteAndRender(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	logger := testutil.NewTestLogger(t)
	exec := adhoc.NewExecutor(db, adhoc.NewRegistry(nopCanceler{}, logger), logger)

	const q = "SELECT n FROM numbers"
	mock.ExpectQuery("SELECT pg_backend_pid()").
		WillReturnRows(sqlmock.NewRows([]string{"pg_backend_pid"}).AddRow(7))
	mock.ExpectQuery("SELECT COUNT(*) FROM (\n" + q + "\n) AS count_query").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(2)))
	mock.ExpectQuery("SELECT * FROM (\n" + q + "\n) AS limited_query LIMIT $1 OFFSET $2").
		WithArgs(5, 0).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(int64(1)).AddRow(int64(2)))

	var buf bytes.Buffer
	err := executeAndRender(context.Background(), &buf, exec, adhoc.Request{Query: q + ";", Limit: 5}, FormatTable)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "(2 of 2 rows)")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteAndRender_RejectsWrites(t *testing.T) {
	db, _ := testutil.NewMockDB(t)
	exec := adhoc.NewExecutor(db, adhoc.NewRegistry(nopCanceler{}, nil), nil)

	var buf bytes.Buffer
	err := executeAndRender(context.Background(), &buf, exec, adhoc.Request{Query: "DELETE FROM users"}, FormatTable)
	require.Error(t, err)
	assert.Empty(t, buf.String())
}

func newTestCmd() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	cmd := &cobra.Command{}
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	return cmd, &out, &errOut
}

func TestREPLDotCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("limit", func(t *testing.T) {
		cmd, _, errOut := newTestCmd()
		sess := &replSession{format: FormatTable}

		assert.False(t, sess.handleDotCommand(ctx, cmd, nil, ".limit 25"))
		assert.Equal(t, 25, sess.limit)

		assert.False(t, sess.handleDotCommand(ctx, cmd, nil, ".limit zero"))
		assert.Equal(t, 25, sess.limit)
		assert.Contains(t, errOut.String(), "positive integer")
	})

	t.Run("format", func(t *testing.T) {
		cmd, _, _ := newTestCmd()
		sess := &replSession{format: FormatTable}
		sess.handleDotCommand(ctx, cmd, nil, ".format csv")
		assert.Equal(t, FormatCSV, sess.format)
	})

	t.Run("next without query", func(t *testing.T) {
		cmd, _, errOut := newTestCmd()
		sess := &replSession{}
		assert.False(t, sess.handleDotCommand(ctx, cmd, nil, ".next"))
		assert.Contains(t, errOut.String(), "No previous query")
	})

	t.Run("quit", func(t *testing.T) {
		cmd, _, _ := newTestCmd()
		sess := &replSession{}
		assert.True(t, sess.handleDotCommand(ctx, cmd, nil, ".quit"))
		assert.True(t, sess.handleDotCommand(ctx, cmd, nil, ".EXIT"))
	})

	t.Run("help and unknown", func(t *testing.T) {
		cmd, out, errOut := newTestCmd()
		sess := &replSession{}
		sess.handleDotCommand(ctx, cmd, nil, ".help")
		sess.handleDotCommand(ctx, cmd, nil, ".tables")
		assert.Contains(t, out.String(), ".next")
		assert.True(t, strings.HasPrefix(errOut.String(), "Unknown command: .tables"))
	})
}

func TestVersionCommand(t *testing.T) {
	cmd := NewVersionCommand(BuildInfo{Version: "1.2.3", GitCommit: "abc123", BuildDate: "2026-10-01"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "canvasql v1.2.3")
	assert.Contains(t, out.String(), "abc123")
	assert.Contains(t, out.String(), "2026-10-01")
}

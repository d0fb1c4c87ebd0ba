package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Output formats.
const (
	FormatTable    = "table"
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "md"
)

// renderRows writes a result set in the requested format.
func renderRows(w io.Writer, format string, cols []string, rows [][]any) error {
	if format == FormatJSON {
		out := make([]map[string]any, len(rows))
		for i, row := range rows {
			m := make(map[string]any, len(cols))
			for j, col := range cols {
				m[col] = row[j]
			}
			out[i] = m
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if format == FormatTable && len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(cols))
	for i, col := range cols {
		header[i] = col
	}
	t.AppendHeader(header)
	for _, row := range rows {
		r := make(table.Row, len(row))
		for i, v := range row {
			r[i] = formatValue(v)
		}
		t.AppendRow(r)
	}

	switch format {
	case FormatCSV:
		t.RenderCSV()
	case FormatMarkdown, "markdown":
		t.RenderMarkdown()
	case FormatTable:
		t.Render()
	default:
		return fmt.Errorf("unknown output format %q (want table, json, csv or md)", format)
	}
	return nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case *string:
		if x == nil {
			return "NULL"
		}
		return *x
	case []byte:
		return string(x)
	}
	return fmt.Sprintf("%v", v)
}

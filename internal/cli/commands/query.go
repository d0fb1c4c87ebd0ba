package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/leapstack-labs/canvasql/internal/adhoc"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Format string
	Input  string
	Limit  int
	Offset int
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Run an ad-hoc read-only query",
		Long: `Run an ad-hoc SELECT statement against the configured database.

Statements go through the same safety check and pagination as the HTTP API:
data-modifying keywords and multiple statements are rejected, and one page
of rows is returned together with the total row count.

When invoked without arguments on a terminal, enters interactive REPL mode.`,
		Example: `  # Execute SQL directly
  canvasql query "SELECT * FROM orders"

  # Second page of 20 rows, as CSV
  canvasql query "SELECT * FROM orders" --limit 20 --offset 20 --format csv

  # Read the statement from a file
  canvasql query -i report.sql

  # Interactive mode
  canvasql query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", FormatTable, "Output format: table, json, csv, md")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Rows per page (default query.default_limit)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Rows to skip")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	var stmt string
	interactive := false

	switch {
	case len(args) > 0:
		stmt = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		stmt = string(content)
	case !term.IsTerminal(int(os.Stdin.Fd())):
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		stmt = string(content)
	default:
		interactive = true
	}

	cc := NewCommandContext(cmd)
	ctx := cmd.Context()

	adp, err := cc.ConnectDatabase(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = adp.Close() }()

	exec := cc.NewExecutor(adp)
	if interactive {
		return runQueryREPL(cmd, cc, exec, opts)
	}
	return executeAndRender(ctx, cmd.OutOrStdout(), exec, adhoc.Request{
		Query:  stmt,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	}, opts.Format)
}

func executeAndRender(ctx context.Context, w io.Writer, exec *adhoc.Executor, req adhoc.Request, format string) error {
	res, err := exec.Execute(ctx, req)
	if err != nil {
		return err
	}
	return renderResult(w, res, format)
}

// renderResult writes one page of an ad-hoc result. JSON output is the
// full result envelope; the table format ends with a paging summary.
func renderResult(w io.Writer, res *adhoc.Result, format string) error {
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	cols := make([]string, len(res.Columns))
	for i, c := range res.Columns {
		cols[i] = c.Key
	}
	rows := make([][]any, len(res.Data))
	for i, rec := range res.Data {
		row := make([]any, len(cols))
		for j, col := range cols {
			row[j] = rec[col]
		}
		rows[i] = row
	}

	if err := renderRows(w, format, cols, rows); err != nil {
		return err
	}
	if format == FormatTable {
		more := ""
		if res.HasMore {
			more = ", more available"
		}
		_, _ = fmt.Fprintf(w, "(%d of %d rows%s)\n", res.RowCount, res.TotalRows, more)
	}
	return nil
}

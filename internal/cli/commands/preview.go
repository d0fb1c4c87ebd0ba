package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// PreviewOptions holds options for the preview command.
type PreviewOptions struct {
	Format  string
	SQLOnly bool
}

// NewPreviewCommand creates the preview command.
func NewPreviewCommand() *cobra.Command {
	opts := &PreviewOptions{}

	cmd := &cobra.Command{
		Use:   "preview <dataset-id>",
		Short: "Compile and preview a dataset",
		Long: `Compile a dataset's tables, joins and column roles into one aggregate
SELECT and run it against the configured database.

With --sql-only the compiled statement is printed and no database
connection is made.`,
		Example: `  canvasql preview 3f2a...
  canvasql preview 3f2a... --sql-only`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			ctx := cmd.Context()

			store, err := cc.OpenStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if opts.SQLOnly {
				stmt, err := cc.NewEngine(nil, store, nil).CompileDataset(ctx, args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), stmt)
				return nil
			}

			adp, err := cc.ConnectDatabase(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = adp.Close() }()

			p, err := cc.NewEngine(adp, store, nil).PreviewDataset(ctx, args[0])
			if err != nil {
				return err
			}
			cc.Logger.Debug("dataset preview", "dataset_id", args[0], "rows", len(p.Rows))
			return renderRows(cmd.OutOrStdout(), opts.Format, p.Columns, p.Rows)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", FormatTable, "Output format: table, json, csv, md")
	cmd.Flags().BoolVar(&opts.SQLOnly, "sql-only", false, "Print the compiled SQL without running it")

	return cmd
}

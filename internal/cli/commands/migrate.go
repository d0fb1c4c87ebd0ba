package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply dataset store migrations",
		Long: `Create or upgrade the SQLite database that stores dataset definitions.

The serve and preview commands migrate automatically; this command is
useful to prepare the store ahead of time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)

			store, err := cc.OpenStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			version, err := store.GetMigrationVersion()
			if err != nil {
				return fmt.Errorf("failed to read migration version: %w", err)
			}
			cc.Logger.Info("state store migrated", "path", cc.Cfg.StatePath, "version", version)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "State store %s at version %d\n", cc.Cfg.StatePath, version)
			return nil
		},
	}
}

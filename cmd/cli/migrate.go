package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anstrom/scanviz/internal/db"
)

var migrateForce bool

// migrateCmd manages the database schema.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
	Long: `Apply pending schema migrations. The server and every command that
uses the database migrate automatically, so this is mostly useful before
a deployment or to inspect the schema state.`,
	Args: cobra.NoArgs,
	RunE: runMigrateUp,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	Args:  cobra.NoArgs,
	RunE:  runMigrateUp,
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List migrations and whether they are applied",
	Args:  cobra.NoArgs,
	RunE:  runMigrateStatus,
}

var migrateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop all tables and re-apply migrations",
	Long:  `Drop the history and preference tables and re-create them. All recorded data is lost.`,
	Args:  cobra.NoArgs,
	RunE:  runMigrateReset,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
	migrateCmd.AddCommand(migrateResetCmd)

	migrateResetCmd.Flags().BoolVar(&migrateForce, "force", false, "confirm that all data may be deleted")
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	return withMigrator(cmd, func(ctx context.Context, m *db.Migrator) error {
		ran, err := m.Up(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(ran) == 0 {
			fmt.Fprintln(out, "Schema is up to date.")
			return nil
		}
		for _, name := range ran {
			fmt.Fprintf(out, "Applied %s\n", name)
		}
		return nil
	})
}

func runMigrateStatus(cmd *cobra.Command, _ []string) error {
	return withMigrator(cmd, func(ctx context.Context, m *db.Migrator) error {
		status, err := m.Status(ctx)
		if err != nil {
			return err
		}

		table := newTable(cmd.OutOrStdout(), "Migration", "Applied", "Applied At")
		for _, s := range status {
			at := "-"
			if s.AppliedAt != nil {
				at = s.AppliedAt.Local().Format(timeFormat)
			}
			_ = table.Append([]string{s.Name, yesNo(s.Applied), at})
		}
		return table.Render()
	})
}

func runMigrateReset(cmd *cobra.Command, _ []string) error {
	if !migrateForce {
		return fmt.Errorf("reset deletes all playback history and preferences; re-run with --force")
	}
	return withMigrator(cmd, func(ctx context.Context, m *db.Migrator) error {
		if err := m.Reset(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Database reset.")
		return nil
	})
}

func withMigrator(cmd *cobra.Command, fn func(context.Context, *db.Migrator) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Database.Enabled {
		return fmt.Errorf("database is disabled; set database.enabled in the config file")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), databaseTimeout)
	defer cancel()

	database, err := db.Connect(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer closeDatabase(database)

	return fn(ctx, db.NewMigrator(database.DB))
}

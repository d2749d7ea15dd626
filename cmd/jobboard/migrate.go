package main

import (
	"fmt"

	"github.com/jonathan/job-board/internal/config"
	"github.com/jonathan/job-board/internal/db"
	"github.com/spf13/cobra"
)

var (
	migrateConfigPath string
	migrateDryRun     bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database tables and indexes",
	Long: `Apply the job board schema to the database named by DATABASE_URL (or the config file).
Every statement is idempotent, so running it against an up-to-date database changes nothing.`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&migrateConfigPath, "config", "", "Path to a YAML config file")
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "Print the statements instead of running them")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()
	statements := db.SchemaStatements()

	if migrateDryRun {
		for _, stmt := range statements {
			fmt.Fprintf(w, "%s;\n\n", stmt)
		}
		return nil
	}

	cfg, err := config.Load(migrateConfigPath)
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	ctx := cmd.Context()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.EnsureSchema(ctx); err != nil {
		return err
	}
	fmt.Fprintf(w, "Schema applied (%d statements)\n", len(statements))
	return nil
}

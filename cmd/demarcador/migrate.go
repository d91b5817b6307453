package main

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/lewtec/demarcador/annotation"
	"github.com/lewtec/demarcador/internal/repository"
	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the schema of the SQLite index",
	Long: `Apply or revert the embedded schema migrations of the project database.

Example: demarcador -C ./images migrate up`,
}

func openRawDatabase(cmd *cobra.Command) (*sql.DB, error) {
	project, err := openProject(cmd)
	if err != nil {
		return nil, err
	}
	log.Printf("Database: %s", project.DatabasePath())
	db, err := annotation.GetDatabase(project.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openRawDatabase(cmd)
		if err != nil {
			return err
		}
		defer db.Close()
		return repository.MigrateUp(db)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert every migration, dropping the index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openRawDatabase(cmd)
		if err != nil {
			return err
		}
		defer db.Close()
		return repository.MigrateDown(db)
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openRawDatabase(cmd)
		if err != nil {
			return err
		}
		defer db.Close()
		version, dirty, err := repository.SchemaVersion(db)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "version %d", version)
		if dirty {
			fmt.Fprintf(cmd.OutOrStdout(), " (dirty)")
		}
		fmt.Fprintln(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
}

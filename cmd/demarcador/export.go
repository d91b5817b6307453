package main

import (
	"fmt"

	"github.com/lewtec/demarcador/annotation"
	"github.com/spf13/cobra"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the committed annotations in another format",
	Long: `Write the committed annotations as a line file (lines), one JSON document
per image (json) or into the SQLite index (db).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		project, images, store, err := loadProject(cmd)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		if format != "db" {
			if err := project.Export(store, format, images); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d annotations as %s\n", store.CountAnnotations(), format)
			return nil
		}

		db, err := project.OpenDatabase(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()
		if _, err := project.Index(cmd.Context(), db, images); err != nil {
			return err
		}
		if err := annotation.ExportStore(cmd.Context(), db, store); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d annotations to %s\n", store.CountAnnotations(), project.DatabasePath())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("format", "f", annotation.FormatJSON, "Output format: lines, json or db")
}

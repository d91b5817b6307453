package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// PrintQuery writes the rows of query as tab separated values. A header is
// printed when there is more than one column.
func PrintQuery(ctx context.Context, w io.Writer, db *sql.Tx, query string, args ...any) error {
	stmt, err := db.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()
	result, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return err
	}
	defer result.Close()
	columns, err := result.Columns()
	if err != nil {
		return err
	}
	if len(columns) > 1 {
		fmt.Fprintln(w, strings.Join(columns, "\t"))
	}
	pointers := make([]any, len(columns))
	container := make([]sql.NullString, len(columns))
	for i := 0; i < len(columns); i++ {
		pointers[i] = &container[i]
	}
	values := make([]string, len(columns))
	for result.Next() {
		if err := result.Scan(pointers...); err != nil {
			return err
		}
		for i, v := range container {
			values[i] = v.String
		}
		fmt.Fprintln(w, strings.Join(values, "\t"))
	}
	return result.Err()
}

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query [flags] [class] [image]",
	Short: "Queries the SQLite index",
	Long: `Query the annotations exported to the project database.

Examples:
  # List every class with its number of annotations
  demarcador query

  # List images with at least one "cat"
  demarcador query cat

  # List the "cat" boxes of an image
  demarcador query cat image.jpg`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		showIDs, err := cmd.Flags().GetBool("show-ids")
		if err != nil {
			return err
		}
		db, err := openRawDatabase(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		tx, err := db.BeginTx(cmd.Context(), &sql.TxOptions{
			Isolation: sql.LevelReadUncommitted,
		})
		if err != nil {
			return err
		}
		defer tx.Rollback()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		// No class provided - list all classes
		if len(args) < 1 {
			return PrintQuery(ctx, out, tx, "SELECT class_name, COUNT(*) AS annotations FROM annotations GROUP BY class_name ORDER BY class_name")
		}

		// Class provided, no image - list images with that class
		if len(args) < 2 {
			query := "SELECT DISTINCT images.path "
			if showIDs {
				query = "SELECT DISTINCT images.id "
			}
			query += "FROM annotations JOIN images ON annotations.image_id = images.id "
			query += "WHERE annotations.class_name = ? ORDER BY 1"
			return PrintQuery(ctx, out, tx, query, args[0])
		}

		query := "SELECT annotations.position, x1, y1, x2, y2, color, confidence "
		query += "FROM annotations JOIN images ON annotations.image_id = images.id "
		query += "WHERE annotations.class_name = ? AND (CAST(images.id AS TEXT) = ? OR images.path = ?) "
		query += "ORDER BY annotations.position"
		return PrintQuery(ctx, out, tx, query, args[0], args[1], args[1])
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().BoolP("show-ids", "i", false, "Show image IDs instead of paths")
}

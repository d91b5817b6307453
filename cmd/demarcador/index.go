package main

import (
	"fmt"
	"log"

	"github.com/lewtec/demarcador/internal/catalog"
	"github.com/spf13/cobra"
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Register the project images in the SQLite index",
	Long: `Record size and SHA-256 of every image of the project folder in the
database. With --watch the folder keeps being followed and new, changed or
removed images update the index until the command is interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		project, err := openProject(cmd)
		if err != nil {
			return err
		}
		db, err := project.OpenDatabase(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		images, err := project.Images()
		if err != nil {
			return err
		}
		count, err := project.Index(ctx, db, images)
		if err != nil {
			return fmt.Errorf("failed to index images: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "indexed %d of %d images\n", count, len(images))

		watch, _ := cmd.Flags().GetBool("watch")
		if !watch {
			return nil
		}
		return catalog.Watch(ctx, project.Dir, func(event catalog.Event) {
			log.Printf("Index: %s %s", event.Op, event.Name)
			switch event.Op {
			case catalog.Added, catalog.Changed:
				if _, err := project.Index(ctx, db, []string{event.Name}); err != nil {
					log.Printf("Index: %s", err)
				}
			case catalog.Removed:
				if err := project.Unindex(ctx, db, event.Name); err != nil {
					log.Printf("Index: %s", err)
				}
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolP("watch", "w", false, "Keep following the project folder")
}

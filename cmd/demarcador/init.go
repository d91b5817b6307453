package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/lewtec/demarcador/annotation"
	"github.com/spf13/cobra"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init [folder]",
	Short: "Initialize an annotation project",
	Long: `Initialize an annotation project by creating:
- A sample configuration file (config.yaml)
- The SQLite index (annotations.db) with the current schema

The folder defaults to --project. Existing files are kept.

Example:
  demarcador init ./images`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("project")
		if len(args) == 1 {
			dir = args[0]
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create project folder: %w", err)
		}

		configFile := filepath.Join(dir, annotation.ConfigFile)
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			log.Printf("Creating default config: %s", configFile)
			if err := annotation.WriteSampleConfig(configFile); err != nil {
				return fmt.Errorf("failed to create config: %w", err)
			}
		} else {
			log.Printf("Config file already exists: %s", configFile)
		}

		project, err := annotation.OpenProject(dir)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		log.Printf("Creating database: %s", project.DatabasePath())
		db, err := project.OpenDatabase(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to create database: %w", err)
		}
		defer db.Close()

		images, err := project.Images()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Project ready in %s (%d images)\n", dir, len(images))
		fmt.Fprintln(out, "\nNext steps:")
		fmt.Fprintln(out, "  1. Review and customize your config file:", configFile)
		fmt.Fprintf(out, "  2. Index the images: demarcador -C %s index\n", dir)
		fmt.Fprintf(out, "  3. Pre-annotate them: demarcador -C %s predict\n", dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

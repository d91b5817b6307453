package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/lewtec/demarcador/annotation"
	"github.com/lewtec/demarcador/internal/domain"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "demarcador",
	Short: "Draw and manage bounding box annotations for a folder of images",
	Long: strings.TrimSpace(`
Annotate a folder of images with labelled bounding boxes, pre-annotate them
with a detection model and export the result as a YOLO-style line file, JSON
sidecars or a SQLite index.
    `),
	SilenceUsage: true,
}

func main() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatalf("Error executing command: %v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("project", "C", ".", "Project folder")
}

func openProject(cmd *cobra.Command) (*annotation.Project, error) {
	dir, _ := cmd.Flags().GetString("project")
	project, err := annotation.OpenProject(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open project: %w", err)
	}
	return project, nil
}

// loadProject opens the project with its image list and committed annotations
func loadProject(cmd *cobra.Command) (*annotation.Project, []string, *domain.Store, error) {
	project, err := openProject(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	images, err := project.Images()
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := project.LoadStore(images)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load annotations: %w", err)
	}
	log.Printf("Project: %d images, %d annotated", len(images), store.Len())
	return project, images, store, nil
}

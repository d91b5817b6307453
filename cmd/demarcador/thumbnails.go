package main

import (
	"fmt"

	"github.com/lewtec/demarcador/internal/thumbnail"
	"github.com/spf13/cobra"
)

// thumbnailsCmd represents the thumbnails command
var thumbnailsCmd = &cobra.Command{
	Use:   "thumbnails",
	Short: "Render PNG previews of the project images",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := openProject(cmd)
		if err != nil {
			return err
		}
		images, err := project.Images()
		if err != nil {
			return err
		}
		g := thumbnail.Generator{FS: project.FS}
		g.Dir, _ = cmd.Flags().GetString("output")
		g.Size, _ = cmd.Flags().GetInt("size")
		g.Jobs, _ = cmd.Flags().GetInt("jobs")

		written, failed := g.RenderAll(cmd.Context(), images)
		fmt.Fprintf(cmd.OutOrStdout(), "thumbnails: %d written, %d failed\n", written, failed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(thumbnailsCmd)
	thumbnailsCmd.Flags().IntP("jobs", "j", 4, "Parallel workers")
	thumbnailsCmd.Flags().Int("size", thumbnail.DefaultSize, "Longest side of a thumbnail")
	thumbnailsCmd.Flags().StringP("output", "o", thumbnail.DefaultDir, "Thumbnail folder inside the project")
}

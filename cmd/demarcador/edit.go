package main

import (
	"fmt"
	"slices"

	"github.com/lewtec/demarcador/annotation"
	"github.com/spf13/cobra"
)

// editCmd represents the edit command
var editCmd = &cobra.Command{
	Use:   "edit <image>",
	Short: "Apply an editing script to the annotations of an image",
	Long: `Read editing commands from standard input, one per line, and apply them
starting at <image>. The annotations are saved when the script ends.

Commands:
  add x1 y1 x2 y2 [class] [color]   delete i       move i dx dy
  resize i x1=.. y1=.. x2=.. y2=..   class i name   color i #rrggbb
  toggle i   copy i   paste   undo   redo   checkpoint   list
  zoom z panx pany   hit x y   select i   press x y   drag x y   release x y
  predict [class]   pending   relabel i name   drop i   approve   reject
  complete   next   prev   goto i

Example:
  printf 'add 10 10 120 90 cat\ncomplete\n' | demarcador edit cat.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, images, store, err := loadProject(cmd)
		if err != nil {
			return err
		}
		index := slices.Index(images, args[0])
		if index < 0 {
			return fmt.Errorf("image %s is not part of the project", args[0])
		}

		editor, err := annotation.NewEditor(project, store, images, index, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		editor.Detector, err = project.Detector()
		if err != nil {
			return err
		}
		if err := editor.Run(cmd.Context(), cmd.InOrStdin()); err != nil {
			return err
		}

		if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
			return nil
		}
		return project.SaveStore(store, images)
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().BoolP("dry-run", "n", false, "Don't save the annotations")
}

package main

import (
	"fmt"

	"github.com/lewtec/demarcador/annotation"
	"github.com/spf13/cobra"
)

// predictCmd represents the predict command
var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Pre-annotate images with the configured detector",
	Long: `Run the detector over the project images. Detections at or above
detector.auto_approve_threshold become annotations, the others are discarded.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		project, images, store, err := loadProject(cmd)
		if err != nil {
			return err
		}
		det, err := project.Detector()
		if err != nil {
			return err
		}

		var opts annotation.PredictOptions
		opts.ClassFilter, _ = cmd.Flags().GetString("class")
		opts.SkipAnnotated, _ = cmd.Flags().GetBool("skip-annotated")
		opts.Jobs, _ = cmd.Flags().GetInt("jobs")
		if cmd.Flags().Changed("threshold") {
			project.Config.Detector.AutoApproveThreshold, _ = cmd.Flags().GetFloat64("threshold")
		}

		from, _ := cmd.Flags().GetInt("from")
		to, _ := cmd.Flags().GetInt("to")
		if to <= 0 || to > len(images) {
			to = len(images)
		}
		if from < 0 || from > to {
			return fmt.Errorf("invalid image range %d..%d", from, to)
		}

		result := project.Predict(cmd.Context(), det, store, images[from:to], opts)
		if err := project.SaveStore(store, images); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "images: %d approved: %d discarded: %d failed: %d\n",
			result.Images, result.Approved, result.Discarded, result.Failed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(predictCmd)
	predictCmd.Flags().String("class", "", "Only keep detections of this class")
	predictCmd.Flags().Bool("skip-annotated", false, "Leave images with annotations alone")
	predictCmd.Flags().IntP("jobs", "j", 0, "Parallel detector calls (default detector.jobs)")
	predictCmd.Flags().Float64("threshold", 0, "Override detector.auto_approve_threshold")
	predictCmd.Flags().Int("from", 0, "First image index")
	predictCmd.Flags().Int("to", 0, "Stop before this image index (default all)")
}

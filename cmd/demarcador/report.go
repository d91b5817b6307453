package main

import (
	"github.com/lewtec/demarcador/annotation"
	"github.com/spf13/cobra"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print annotation progress and per-class statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		project, images, store, err := loadProject(cmd)
		if err != nil {
			return err
		}
		report := annotation.BuildReport(project.Config, store, images)
		out := cmd.OutOrStdout()
		if html, _ := cmd.Flags().GetBool("html"); html {
			return annotation.ExecTemplate(out, annotation.TemplateContent{Title: "Report", Content: report.Markdown()})
		}
		_, err = out.Write([]byte(report.Markdown()))
		return err
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().Bool("html", false, "Render the report as an HTML page")
}

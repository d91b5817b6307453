package main

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the progress report and images over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := openProject(cmd)
		if err != nil {
			return err
		}
		addr, _ := cmd.Flags().GetString("addr")
		server := &http.Server{Addr: addr, Handler: project.GetHTTPHandler()}

		ctx := cmd.Context()
		go func() {
			<-ctx.Done()
			server.Shutdown(context.Background())
		}()

		log.Printf("Images: %s", project.Dir)
		log.Printf("Starting server on: %s", addr)
		err = server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":8080", "Address to bind the webserver")
}
